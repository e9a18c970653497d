package csvstore_test

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"reviewharvest/internal/domain"
	"reviewharvest/internal/storage/csvstore"
)

func sampleReviews() []domain.Review {
	fetched := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return []domain.Review{
		{
			ReviewID:          "gp:abc123",
			UserName:          "Ana",
			Content:           "Commas, \"quotes\" and\nnewlines — плюс unicode",
			Score:             4,
			CreatedAt:         time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC),
			Platform:          domain.PlatformGoogle,
			FetchedAt:         fetched,
			IsSecurityRelated: true,
		},
		{
			ReviewID:  "gp:def456",
			UserName:  "Anonymous",
			Content:   "",
			Score:     1,
			CreatedAt: time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC),
			Platform:  domain.PlatformGoogle,
			FetchedAt: fetched,
		},
	}
}

func TestSaveRaw_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	st, err := csvstore.New(filepath.Join(dir, "raw"), filepath.Join(dir, "processed"))
	require.NoError(t, err)

	want := sampleReviews()
	path, err := st.SaveRaw("google_com.example.app_20250601_120000", want)
	require.NoError(t, err)

	got, err := csvstore.LoadRaw(path)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		require.Equal(t, want[i].ReviewID, got[i].ReviewID)
		require.Equal(t, want[i].UserName, got[i].UserName)
		require.Equal(t, want[i].Content, got[i].Content)
		require.Equal(t, want[i].Score, got[i].Score)
		require.True(t, want[i].CreatedAt.Equal(got[i].CreatedAt))
		require.Equal(t, want[i].Platform, got[i].Platform)
		require.True(t, want[i].FetchedAt.Equal(got[i].FetchedAt))
		require.Equal(t, want[i].IsSecurityRelated, got[i].IsSecurityRelated)
	}
}

func TestSaveProcessed_DerivedColumns(t *testing.T) {
	dir := t.TempDir()
	st, err := csvstore.New(filepath.Join(dir, "raw"), filepath.Join(dir, "processed"))
	require.NoError(t, err)

	rs := []domain.Review{{
		ReviewID:  "a1",
		UserName:  "Bob",
		Content:   "two words",
		Score:     5,
		CreatedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Platform:  domain.PlatformApple,
		FetchedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}}
	path, err := st.SaveProcessed("apple_900001_x", rs)
	require.NoError(t, err)
	require.True(t, filepath.Base(path) == "apple_900001_x_processed.csv")

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	header := records[0]
	require.Equal(t, "content_length", header[len(header)-2])
	require.Equal(t, "word_count", header[len(header)-1])

	row := records[1]
	require.Equal(t, "9", row[len(row)-2]) // len("two words")
	require.Equal(t, "2", row[len(row)-1])
}

func TestNew_CreatesDirectories(t *testing.T) {
	dir := t.TempDir()
	raw := filepath.Join(dir, "deep", "raw")
	proc := filepath.Join(dir, "deep", "processed")
	_, err := csvstore.New(raw, proc)
	require.NoError(t, err)

	for _, d := range []string{raw, proc} {
		st, err := os.Stat(d)
		require.NoError(t, err)
		require.True(t, st.IsDir())
	}
}
