package writer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/insightdelivered/bank-statement-parser/internal/models"
)

// WriteMonthly writes one transactions_YYYY-MM.csv per calendar month into
// dir, creating it if needed, and returns the written paths in month order.
func WriteMonthly(dir string, txns []models.Transaction) ([]string, error) {
	groups := make(map[string][]models.Transaction)
	for _, t := range txns {
		key := t.MonthKey()
		groups[key] = append(groups[key], t)
	}
	if len(groups) == 0 {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create monthly directory %q: %w", dir, err)
	}

	months := make([]string, 0, len(groups))
	for m := range groups {
		months = append(months, m)
	}
	sort.Strings(months)

	w := &CSVWriter{}
	paths := make([]string, 0, len(months))
	for _, m := range months {
		path := filepath.Join(dir, "transactions_"+m+".csv")
		if err := w.WriteToFile(path, groups[m]); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
