package domain

import (
	"fmt"
	"strings"
	"time"
)

// Platform identifies the upstream store a review came from.
type Platform string

const (
	PlatformGoogle Platform = "google"
	PlatformApple  Platform = "apple"
)

func ParsePlatform(s string) (Platform, error) {
	switch Platform(strings.ToLower(strings.TrimSpace(s))) {
	case PlatformGoogle:
		return PlatformGoogle, nil
	case PlatformApple:
		return PlatformApple, nil
	}
	return "", fmt.Errorf("unknown platform %q (want google or apple)", s)
}

// RawRecord is a provider-shaped review payload. It is transient: consumed
// by the normalizer right after a batch arrives, never persisted.
type RawRecord = map[string]any

// Review is the canonical, validated record. ReviewID is unique per
// platform+id pair, not globally.
type Review struct {
	ReviewID          string    `json:"review_id"`
	UserName          string    `json:"user_name"`
	Content           string    `json:"content"`
	Score             int       `json:"score"`
	CreatedAt         time.Time `json:"created_at"`
	Platform          Platform  `json:"platform"`
	FetchedAt         time.Time `json:"fetched_at"`
	IsSecurityRelated bool      `json:"is_security_related"`
}

// ContentLength is the derived character count used by the processed dataset.
func (r Review) ContentLength() int { return len([]rune(r.Content)) }

// WordCount splits on whitespace; empty content counts zero words.
func (r Review) WordCount() int { return len(strings.Fields(r.Content)) }
