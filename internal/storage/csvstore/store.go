package csvstore

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"reviewharvest/internal/domain"
)

// Store writes the raw and processed datasets as CSV files under two
// directories it owns. Directory setup happens at construction so the
// lifecycle is scoped to the run, not the process.
type Store struct {
	rawDir       string
	processedDir string
}

func New(rawDir, processedDir string) (*Store, error) {
	for _, d := range []string{rawDir, processedDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", d, err)
		}
	}
	return &Store{rawDir: rawDir, processedDir: processedDir}, nil
}

var rawHeader = []string{
	"review_id", "user_name", "content", "score",
	"created_at", "platform", "fetched_at", "is_security_related",
}

func rawRow(r domain.Review) []string {
	return []string{
		r.ReviewID,
		r.UserName,
		r.Content,
		strconv.Itoa(r.Score),
		r.CreatedAt.Format(time.RFC3339),
		string(r.Platform),
		r.FetchedAt.Format(time.RFC3339),
		strconv.FormatBool(r.IsSecurityRelated),
	}
}

// SaveRaw writes the canonical dataset and returns its path.
func (s *Store) SaveRaw(name string, rs []domain.Review) (string, error) {
	path := filepath.Join(s.rawDir, name+".csv")
	rows := make([][]string, 0, len(rs))
	for _, r := range rs {
		rows = append(rows, rawRow(r))
	}
	return path, writeCSV(path, rawHeader, rows)
}

// SaveProcessed writes the enriched dataset: raw columns plus derived
// content_length and word_count.
func (s *Store) SaveProcessed(name string, rs []domain.Review) (string, error) {
	path := filepath.Join(s.processedDir, name+"_processed.csv")
	header := append(append([]string{}, rawHeader...), "content_length", "word_count")
	rows := make([][]string, 0, len(rs))
	for _, r := range rs {
		row := append(rawRow(r),
			strconv.Itoa(r.ContentLength()),
			strconv.Itoa(r.WordCount()),
		)
		rows = append(rows, row)
	}
	return path, writeCSV(path, header, rows)
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadRaw reads a raw dataset back into canonical reviews. Mainly here so
// downstream analysis and tests can round-trip what SaveRaw wrote.
func LoadRaw(path string) ([]domain.Review, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rd := csv.NewReader(f)
	records, err := rd.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: empty file", path)
	}
	if len(records[0]) != len(rawHeader) {
		return nil, fmt.Errorf("%s: expected %d columns, got %d", path, len(rawHeader), len(records[0]))
	}

	out := make([]domain.Review, 0, len(records)-1)
	for _, rec := range records[1:] {
		score, err := strconv.Atoi(rec[3])
		if err != nil {
			return nil, fmt.Errorf("%s: bad score %q: %w", path, rec[3], err)
		}
		createdAt, err := time.Parse(time.RFC3339, rec[4])
		if err != nil {
			return nil, fmt.Errorf("%s: bad created_at %q: %w", path, rec[4], err)
		}
		fetchedAt, err := time.Parse(time.RFC3339, rec[6])
		if err != nil {
			return nil, fmt.Errorf("%s: bad fetched_at %q: %w", path, rec[6], err)
		}
		flag, _ := strconv.ParseBool(rec[7])
		out = append(out, domain.Review{
			ReviewID:          rec[0],
			UserName:          rec[1],
			Content:           rec[2],
			Score:             score,
			CreatedAt:         createdAt,
			Platform:          domain.Platform(rec[5]),
			FetchedAt:         fetchedAt,
			IsSecurityRelated: flag,
		})
	}
	return out, nil
}
