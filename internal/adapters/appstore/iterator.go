package appstore

import (
	"context"
	"strconv"

	"reviewharvest/internal/domain"
)

// ReviewIter walks the feed lazily, one page at a time, in the rows style:
//
//	it := client.Reviews(ctx, 1)
//	defer it.Close()
//	for it.Next() {
//	    rec := it.Record()
//	    ...
//	}
//	if err := it.Err(); err != nil { ... }
//
// Stopping early is just not calling Next again; no resources are held
// between calls.
type ReviewIter struct {
	ctx  context.Context
	c    *Client
	page int // next page to fetch
	buf  []feedEntry
	idx  int
	err  error
	done bool
}

// Reviews starts a lazy iteration from startPage (1-based). The sequence is
// restartable from the start by creating a fresh iterator.
func (c *Client) Reviews(ctx context.Context, startPage int) *ReviewIter {
	if startPage < 1 {
		startPage = 1
	}
	return &ReviewIter{ctx: ctx, c: c, page: startPage}
}

func (it *ReviewIter) Next() bool {
	if it.err != nil || it.done {
		return false
	}
	it.idx++
	if it.idx <= len(it.buf) {
		return true
	}
	for {
		if it.page > maxFeedPages {
			it.done = true
			return false
		}
		entries, err := it.c.fetchPage(it.ctx, it.page)
		if err != nil {
			// Past-the-end pages 404 on some storefronts; that is exhaustion,
			// not a failure.
			if err == domain.ErrNotFound && it.page > 1 {
				it.done = true
				return false
			}
			it.err = err
			return false
		}
		it.page++
		if len(entries) == 0 {
			it.done = true
			return false
		}
		it.buf = entries
		it.idx = 1
		return true
	}
}

func (it *ReviewIter) Record() domain.RawRecord {
	return it.buf[it.idx-1].record()
}

func (it *ReviewIter) Err() error { return it.err }

// NextPage reports the next page the iterator would fetch, for checkpointing.
func (it *ReviewIter) NextPage() int { return it.page }

func (it *ReviewIter) Close() error {
	it.done = true
	return nil
}

// Source adapts the iterator to the uniform batch contract. It owns a live
// iterator and advances its internal cursor; the opaque cursor it hands back
// is the next feed page, so a checkpointed run resumes at page granularity.
type Source struct {
	c  *Client
	it *ReviewIter
}

func NewSource(c *Client) *Source { return &Source{c: c} }

func (s *Source) Platform() domain.Platform { return domain.PlatformApple }

func (s *Source) FetchBatch(ctx context.Context, cursor *string, count int) ([]domain.RawRecord, *string, error) {
	if s.it == nil {
		start := 1
		if cursor != nil {
			if p, err := strconv.Atoi(*cursor); err == nil && p > 1 {
				start = p
			}
		}
		s.it = s.c.Reviews(ctx, start)
	}

	var items []domain.RawRecord
	for len(items) < count && s.it.Next() {
		items = append(items, s.it.Record())
	}

	if err := s.it.Err(); err != nil {
		// Surface the failure so the caller counts it and retries. The
		// iterator is dropped; the retry recreates it at the round's starting
		// page and refetches whatever this round had drained.
		_ = s.it.Close()
		s.it = nil
		return nil, cursor, err
	}

	if len(items) < count {
		// Iterator exhausted the feed.
		_ = s.it.Close()
		s.it = nil
		return items, nil, nil
	}

	next := strconv.Itoa(s.it.NextPage())
	return items, &next, nil
}
