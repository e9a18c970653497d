package domain

import (
	"context"
	"errors"
)

var (
	ErrNotFound         = errors.New("reviews: not found")
	ErrUnauthorized     = errors.New("reviews: unauthorized")
	ErrInvalidAppID     = errors.New("reviews: invalid app id")
	ErrSchemaValidation = errors.New("reviews: required fields missing from response shape")
	ErrNoReviews        = errors.New("reviews: run produced no valid reviews")
)

// Source is the uniform contract over both upstream providers. cursor is
// opaque: nil on the first call, the previously returned value afterwards.
// A nil next cursor means the provider is exhausted. Each adapter translates
// its native pagination (continuation token vs. sequential feed pages) behind
// this contract.
type Source interface {
	FetchBatch(ctx context.Context, cursor *string, count int) (items []RawRecord, next *string, err error)
	Platform() Platform
}

// CursorStore checkpoints continuation cursors so an interrupted run can
// resume. Implementations must tolerate missing keys.
type CursorStore interface {
	Get(ctx context.Context, platform Platform, appID string) (cursor string, ok bool, err error)
	Set(ctx context.Context, platform Platform, appID, cursor string) error
	Clear(ctx context.Context, platform Platform, appID string) error
}

// ReviewArchive is the optional relational sink next to the CSV datasets.
type ReviewArchive interface {
	UpsertReviews(ctx context.Context, appID string, rs []Review) error
}

// ReviewStore is the primary persistence sink (raw + processed datasets).
type ReviewStore interface {
	SaveRaw(name string, rs []Review) (path string, err error)
	SaveProcessed(name string, rs []Review) (path string, err error)
}
