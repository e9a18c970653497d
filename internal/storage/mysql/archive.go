package mysql

import (
	"context"
	"database/sql"
	"strings"

	"reviewharvest/internal/domain"
)

// Archive keeps canonical reviews in MySQL next to the CSV datasets, keyed on
// (platform, review_id) so re-runs upsert instead of duplicating.
type Archive struct{ db *sql.DB }

func New(db *sql.DB) *Archive { return &Archive{db: db} }

// EnsureSchema creates the reviews table when missing.
func (a *Archive) EnsureSchema(ctx context.Context) error {
	_, err := a.db.ExecContext(ctx, createReviewsSQL)
	return err
}

func (a *Archive) UpsertReviews(ctx context.Context, appID string, rs []domain.Review) error {
	if len(rs) == 0 {
		return nil
	}
	values := make([]string, 0, len(rs))
	args := make([]any, 0, len(rs)*9)
	for _, rv := range rs {
		values = append(values, "(?,?,?,?,?,?,?,?,?)")
		args = append(args,
			string(rv.Platform),
			rv.ReviewID,
			appID,
			rv.UserName,
			rv.Content,
			rv.Score,
			rv.CreatedAt,
			rv.FetchedAt,
			rv.IsSecurityRelated,
		)
	}
	sqlStr := insertReviewsPrefix + strings.Join(values, ",") + insertReviewsOnDup
	_, err := a.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (a *Archive) ListReviews(ctx context.Context, p domain.Platform, appID string, limit int) ([]domain.Review, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := a.db.QueryContext(ctx, listReviewsSQL, string(p), appID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Review
	for rows.Next() {
		var rv domain.Review
		var platform string
		if err := rows.Scan(
			&platform,
			&rv.ReviewID,
			&rv.UserName,
			&rv.Content,
			&rv.Score,
			&rv.CreatedAt,
			&rv.FetchedAt,
			&rv.IsSecurityRelated,
		); err != nil {
			return nil, err
		}
		rv.Platform = domain.Platform(platform)
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *Archive) CountByApp(ctx context.Context, p domain.Platform, appID string) (int, error) {
	var n int
	err := a.db.QueryRowContext(ctx, countByAppSQL, string(p), appID).Scan(&n)
	return n, err
}
