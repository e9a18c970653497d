package app

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"reviewharvest/internal/domain"
)

// fieldMap names the provider keys that feed each canonical column.
type fieldMap struct {
	id      string
	user    string
	content string
	score   string
	created string
}

var fieldMaps = map[domain.Platform]fieldMap{
	domain.PlatformGoogle: {id: "reviewId", user: "userName", content: "content", score: "score", created: "at"},
	domain.PlatformApple:  {id: "id", user: "user_name", content: "review", score: "rating", created: "date"},
}

const anonymousUser = "Anonymous"

// Normalize maps provider records onto the canonical schema. The shape check
// is schema-level: a required key missing from every record aborts the whole
// batch with ErrSchemaValidation. Per-row problems (bad timestamp, score out
// of [1,5]) just drop the row. An empty result with a nil error means "no
// valid rows" and is not a failure.
func Normalize(p domain.Platform, recs []domain.RawRecord, fetchedAt time.Time) ([]domain.Review, error) {
	fm, ok := fieldMaps[p]
	if !ok {
		return nil, fmt.Errorf("no field mapping for platform %q", p)
	}
	if len(recs) == 0 {
		return []domain.Review{}, nil
	}

	if missing := missingEverywhere(recs, fm); len(missing) > 0 {
		log.Error().Strs("fields", missing).Msg("response shape is missing required fields")
		return []domain.Review{}, fmt.Errorf("%w: %s", domain.ErrSchemaValidation, strings.Join(missing, ", "))
	}

	out := make([]domain.Review, 0, len(recs))
	for _, r := range recs {
		score, ok := coerceScore(r[fm.score])
		if !ok {
			continue // non-numeric or outside [1,5]: discard, never clamp
		}
		createdAt, ok := coerceTime(r[fm.created])
		if !ok {
			continue
		}
		rv := domain.Review{
			ReviewID:  coerceString(r[fm.id]),
			UserName:  coerceString(r[fm.user]),
			Content:   coerceString(r[fm.content]),
			Score:     score,
			CreatedAt: createdAt,
			Platform:  p,
			FetchedAt: fetchedAt,
		}
		if rv.UserName == "" {
			rv.UserName = anonymousUser
		}
		out = append(out, rv)
	}
	return out, nil
}

// missingEverywhere returns required source keys absent from every record.
func missingEverywhere(recs []domain.RawRecord, fm fieldMap) []string {
	required := []string{fm.id, fm.user, fm.content, fm.score, fm.created}
	var missing []string
	for _, key := range required {
		found := false
		for _, r := range recs {
			if _, ok := r[key]; ok {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, key)
		}
	}
	return missing
}

func coerceString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	}
	return fmt.Sprint(v)
}

// coerceScore accepts float64/int/string forms. Only integral values in the
// closed interval [1,5] pass; 4.5 is out of domain, not rounded.
func coerceScore(v any) (int, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(t, ",", "."))
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	n := int(f)
	if float64(n) != f {
		return 0, false
	}
	if n < 1 || n > 5 {
		return 0, false
	}
	return n, true
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC1123Z,
	"2006-01-02",
}

// coerceTime parses the upstream timestamp representations: layout strings
// and epoch numbers (seconds, or milliseconds when clearly too large).
func coerceTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts, true
			}
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return epochTime(n), true
		}
		return time.Time{}, false
	case float64:
		if t <= 0 {
			return time.Time{}, false
		}
		return epochTime(int64(t)), true
	case int64:
		if t <= 0 {
			return time.Time{}, false
		}
		return epochTime(t), true
	}
	return time.Time{}, false
}

func epochTime(n int64) time.Time {
	if n > 1e12 { // milliseconds
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}
