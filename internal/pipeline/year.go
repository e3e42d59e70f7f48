package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/insightdelivered/bank-statement-parser/internal/models"
)

var januaryIndicators = []string{
	"01_january", "statement_01", "january_", "_01_",
	"jan_", "_jan_", "january", "01.",
}

// monthIndicators are checked in month order; the first month whose token
// appears in a file name wins.
var monthIndicators = [12][]string{
	{"01", "jan", "january"},
	{"02", "feb", "february"},
	{"03", "mar", "march"},
	{"04", "apr", "april"},
	{"05", "may"},
	{"06", "jun", "june"},
	{"07", "jul", "july"},
	{"08", "aug", "august"},
	{"09", "sep", "september"},
	{"10", "oct", "october"},
	{"11", "nov", "november"},
	{"12", "dec", "december"},
}

// DiscoverYearFiles lists the PDFs under <base>/<year>/. With
// includeNextMonth, January statements from <base>/<year+1>/ are added so
// that December transactions printed on them are not lost. Files are
// sorted by name.
func DiscoverYearFiles(base string, year int, includeNextMonth bool, log zerolog.Logger) ([]string, error) {
	yearDir := filepath.Join(base, strconv.Itoa(year))
	files, err := ListPDFs(yearDir)
	switch {
	case os.IsNotExist(err):
		log.Warn().Str("dir", yearDir).Msg("year directory not found")
	case err != nil:
		return nil, err
	default:
		log.Info().Str("dir", yearDir).Int("files", len(files)).Msg("year directory scanned")
	}

	if includeNextMonth {
		nextDir := filepath.Join(base, strconv.Itoa(year+1))
		next, err := ListPDFs(nextDir)
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		var added int
		for _, f := range next {
			if isLikelyJanuary(f) {
				files = append(files, f)
				added++
			}
		}
		if added > 0 {
			log.Info().Int("files", added).Int("year", year+1).Msg("added next-year January statements")
		}
	}

	sort.SliceStable(files, func(i, j int) bool {
		return filepath.Base(files[i]) < filepath.Base(files[j])
	})
	return files, nil
}

// ListPDFs returns the .pdf files directly inside dir.
func ListPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func isLikelyJanuary(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	for _, ind := range januaryIndicators {
		if strings.Contains(name, ind) {
			return true
		}
	}
	return false
}

// YearCoverage warns when the discovered files are unlikely to cover all
// twelve months of year.
func YearCoverage(files []string, year int) []models.Warning {
	var warnings []models.Warning
	add := func(format string, args ...any) {
		warnings = append(warnings, models.Warning{Kind: models.WarningCoverage, Message: fmt.Sprintf(format, args...)})
	}

	switch n := len(files); {
	case n < 12:
		add("only %d files found for %d, expected about 12 for complete year coverage", n, year)
	case n > 15:
		add("found %d files for %d, this may include duplicate or extra files", n, year)
	}

	covered := make(map[int]bool)
	for _, f := range files {
		name := strings.ToLower(filepath.Base(f))
	months:
		for m, tokens := range monthIndicators {
			for _, tok := range tokens {
				if strings.Contains(name, tok) {
					covered[m+1] = true
					break months
				}
			}
		}
	}
	if len(covered) < 12 {
		var missing []string
		for m := 1; m <= 12; m++ {
			if !covered[m] {
				missing = append(missing, strconv.Itoa(m))
			}
		}
		add("potentially missing months: %s", strings.Join(missing, ", "))
	}
	return warnings
}

// FilterByYear keeps the transactions dated in year and reports how many
// were excluded.
func FilterByYear(txns []models.Transaction, year int) (kept []models.Transaction, excluded int) {
	for _, t := range txns {
		if t.Year == year {
			kept = append(kept, t)
		} else {
			excluded++
		}
	}
	return kept, excluded
}

// OutputPaths are the files written by a year run.
type OutputPaths struct {
	MainCSV    string
	MonthlyDir string
	Summary    string
}

// YearOutputPaths derives year-specific output names from output,
// prefixing the year when the file name does not already contain it.
func YearOutputPaths(output string, year int) OutputPaths {
	dir := filepath.Dir(output)
	stem := strings.TrimSuffix(filepath.Base(output), filepath.Ext(output))
	if y := strconv.Itoa(year); !strings.Contains(stem, y) {
		stem = y + "_" + stem
	}
	return OutputPaths{
		MainCSV:    filepath.Join(dir, stem+"_complete.csv"),
		MonthlyDir: filepath.Join(dir, stem+"_complete_monthly"),
		Summary:    filepath.Join(dir, stem+"_complete_summary.txt"),
	}
}
