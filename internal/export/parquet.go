// Package export writes cached search results to columnar files for offline analysis.
package export

import (
	"fmt"
	"io"
	"sort"

	"github.com/parquet-go/parquet-go"

	"github.com/kailas-cloud/casefinder/internal/domain"
)

// Row is one ranked case of one cached query.
type Row struct {
	Query           string  `parquet:"query,dict"`
	CachedAtMillis  int64   `parquet:"cached_at_ms"`
	Rank            int32   `parquet:"rank"`
	Title           string  `parquet:"title"`
	URL             string  `parquet:"url"`
	Summary         string  `parquet:"summary"`
	SimilarityScore float64 `parquet:"similarity_score"`
}

// Rows flattens entries into rows, oldest entry first, results in ranked order.
// Entries with no results produce no rows.
func Rows(entries []domain.CacheEntry) []Row {
	sorted := make([]domain.CacheEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	var rows []Row
	for _, e := range sorted {
		for i, r := range e.Results {
			rows = append(rows, Row{
				Query:           e.Query,
				CachedAtMillis:  e.Timestamp.UnixMilli(),
				Rank:            int32(i + 1),
				Title:           r.Title,
				URL:             r.URL,
				Summary:         r.Summary,
				SimilarityScore: r.SimilarityScore,
			})
		}
	}
	return rows
}

// WriteParquet writes entries to w as a single parquet file and returns the row count.
func WriteParquet(w io.Writer, entries []domain.CacheEntry) (int, error) {
	rows := Rows(entries)

	pw := parquet.NewGenericWriter[Row](w)
	n, err := pw.Write(rows)
	if err != nil {
		return n, fmt.Errorf("write rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return n, fmt.Errorf("close parquet writer: %w", err)
	}
	return n, nil
}
