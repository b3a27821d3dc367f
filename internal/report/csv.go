package report

import (
	"bytes"
	"encoding/csv"

	"github.com/joelkehle/patent-research/internal/watchlist"
)

// WatchlistCSV renders tracked patents as a CSV export.
func WatchlistCSV(entries []watchlist.ClassedEntry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"Patent ID", "Title", "Category", "Added Date"}); err != nil {
		return nil, err
	}
	for _, e := range entries {
		if err := w.Write([]string{e.PatentID, e.Title, e.Category, e.AddedDate}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
