package appstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"reviewharvest/internal/adapters/observability"
	"reviewharvest/internal/domain"
)

// The customer-reviews feed serves at most this many pages per app/country.
const maxFeedPages = 10

// Client reads the App Store customer-reviews feed. The feed has no
// continuation token; it is a numbered page sequence consumed front to back.
type Client struct {
	base    string
	hc      *http.Client
	appID   string
	country string
	rl      *rate.Limiter
}

func New(base, appID, country string, rps int) (*Client, error) {
	if appID == "" {
		return nil, fmt.Errorf("app id is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base:    strings.TrimRight(base, "/"),
		hc:      &http.Client{Timeout: 20 * time.Second},
		appID:   appID,
		country: strings.ToLower(country),
		rl:      rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

func (c *Client) Platform() domain.Platform { return domain.PlatformApple }

// ---- feed shapes ----

type label struct {
	Label string `json:"label"`
}

type feedEntry struct {
	ID     label `json:"id"`
	Author struct {
		Name label `json:"name"`
	} `json:"author"`
	Content label `json:"content"`
	Rating  label `json:"im:rating"`
	Updated label `json:"updated"`
	Title   label `json:"title"`
}

type feedDoc struct {
	Feed struct {
		Entry json.RawMessage `json:"entry"`
	} `json:"feed"`
}

// entries tolerates the feed's habit of collapsing a single-element entry
// list into a bare object.
func (d feedDoc) entries() ([]feedEntry, error) {
	raw := d.Feed.Entry
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var list []feedEntry
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var one feedEntry
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, fmt.Errorf("unexpected feed entry shape: %w", err)
	}
	return []feedEntry{one}, nil
}

func (e feedEntry) record() domain.RawRecord {
	return domain.RawRecord{
		"id":        e.ID.Label,
		"user_name": e.Author.Name.Label,
		"review":    e.Content.Label,
		"rating":    e.Rating.Label,
		"date":      e.Updated.Label,
	}
}

// fetchPage pulls one feed page. Transient 429/5xx get a short fixed-wait
// retry; everything else surfaces immediately.
func (c *Client) fetchPage(ctx context.Context, page int) ([]feedEntry, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}
	u := fmt.Sprintf("%s/%s/rss/customerreviews/page=%d/id=%s/sortby=mostrecent/json",
		c.base, c.country, page, c.appID)

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "reviewharvest/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			observability.ObserveExternal("appstore", "customerreviews", 0, time.Since(start))
			lastErr = err
		} else {
			observability.ObserveExternal("appstore", "customerreviews", resp.StatusCode, time.Since(start))
			switch resp.StatusCode {
			case http.StatusOK:
				var doc feedDoc
				derr := json.NewDecoder(resp.Body).Decode(&doc)
				resp.Body.Close()
				if derr != nil {
					return nil, derr
				}
				return doc.entries()
			case http.StatusNotFound:
				resp.Body.Close()
				return nil, domain.ErrNotFound
			case http.StatusUnauthorized, http.StatusForbidden:
				resp.Body.Close()
				return nil, domain.ErrUnauthorized
			case http.StatusTooManyRequests, http.StatusInternalServerError,
				http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			default:
				b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
				resp.Body.Close()
				return nil, fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
			}
		}

		if attempt < 2 {
			t := time.NewTimer(500 * time.Millisecond)
			select {
			case <-ctx.Done():
				t.Stop()
				return nil, ctx.Err()
			case <-t.C:
			}
		}
	}
	return nil, lastErr
}
