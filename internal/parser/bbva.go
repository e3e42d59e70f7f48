package parser

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/insightdelivered/bank-statement-parser/internal/models"
)

// BBVADialect parses legacy BBVA statements: one chronological activity
// table where each entry ends with a transaction amount and a running
// balance, both prefixed with "$".
type BBVADialect struct {
	catalog     *Catalog
	cleaner     *TextCleaner
	merchants   *MerchantExtractor
	categorizer *Categorizer
	stops       []string
	log         zerolog.Logger
}

var creditKeywords = []string{"DEPOSIT", "CREDIT", "ACH", "PAYROLL", "REFUND"}

// NewBBVA returns the legacy BBVA dialect.
func NewBBVA(opts Options) *BBVADialect {
	catalog := BBVACatalog()
	log := opts.Logger.With().Str("dialect", string(models.DialectBBVA)).Logger()
	d := &BBVADialect{
		catalog:     catalog,
		cleaner:     NewTextCleaner(catalog, log),
		merchants:   NewMerchantExtractor(catalog),
		categorizer: opts.categorizer(),
		log:         log,
	}
	for _, s := range catalog.StopMarkers {
		d.stops = append(d.stops, squash(s))
	}
	return d
}

func (d *BBVADialect) Name() models.Dialect { return models.DialectBBVA }

func (d *BBVADialect) Catalog() *Catalog { return d.catalog }

// ParseHeader reads "Primary Account:" and
// "Beginning <Month> D, YYYY - Ending <Month> D, YYYY".
func (d *BBVADialect) ParseHeader(text string) (*models.StatementSummary, error) {
	return parseHeader(d.catalog, text, func(m []string) (time.Time, time.Time, error) {
		start, err := parseMonthDayYear(m[1], m[2], m[3])
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end, err := parseMonthDayYear(m[4], m[5], m[6])
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		return start, end, nil
	})
}

// block is one date-started run of lines.
type block struct {
	date     string
	combined string
	rawLines []string
	page     int
	line     int
}

// ExtractTransactions walks the whole document. Each dated line absorbs the
// following lines until the next dated line, a page marker or a stop marker.
// Extraneous lines inside a block are skipped.
func (d *BBVADialect) ExtractTransactions(text string, summary *models.StatementSummary, sourceFile string) ([]models.Transaction, []Failure) {
	var (
		txns     []models.Transaction
		failures []Failure
	)
	lines := strings.Split(text, "\n")
	page := 1

	for i := 0; i < len(lines); {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			i++
			continue
		}
		if n, ok := ParsePageMarker(line); ok {
			page = n
			i++
			continue
		}
		m := d.catalog.DateStart.FindStringSubmatch(line)
		if m == nil {
			i++
			continue
		}

		b := block{date: m[1], combined: line, rawLines: []string{lines[i]}, page: page, line: i + 1}
		j := i + 1
		for ; j < len(lines); j++ {
			next := strings.TrimSpace(lines[j])
			if next == "" {
				continue
			}
			if _, ok := ParsePageMarker(next); ok || d.catalog.DateStart.MatchString(next) || d.isStop(next) {
				break
			}
			if d.cleaner.IsExtraneousLine(next) {
				continue
			}
			b.rawLines = append(b.rawLines, lines[j])
			b.combined += " " + next
		}

		txn, err := d.build(b, summary, sourceFile)
		if err != nil {
			d.log.Warn().Err(err).Int("line", b.line).Str("text", line).Msg("skipping transaction candidate")
			failures = append(failures, Failure{Line: b.line, Text: line, Err: err})
		} else {
			txns = append(txns, txn)
		}
		i = j
	}

	d.log.Info().Int("transactions", len(txns)).Int("skipped", len(failures)).Msg("activity parsed")
	return txns, failures
}

func (d *BBVADialect) build(b block, summary *models.StatementSummary, sourceFile string) (txn models.Transaction, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("assembling transaction: %v", r)
		}
	}()

	found := d.catalog.Amount.FindAllStringSubmatch(b.combined, -1)
	if len(found) == 0 {
		return txn, ErrMissingAmount
	}
	amounts := make([]string, len(found))
	for k, f := range found {
		amounts[k] = f[1]
	}
	amountStr, balanceStr := splitAmounts(amounts)

	amount, err := ParseAmount(amountStr)
	if err != nil {
		return txn, err
	}

	desc := strings.TrimSpace(strings.TrimPrefix(b.combined, b.date))
	desc = removeAmount(desc, amountStr)
	if balanceStr != "" {
		desc = removeAmount(desc, balanceStr)
	}
	desc = d.cleaner.CleanDescription(desc)

	date, err := NormalizeDate(b.date)
	if err != nil {
		return txn, err
	}
	year, month, err := ResolveYearMonth(date, summary)
	if err != nil {
		return txn, err
	}

	kind := inferKind(desc)
	merchant, _ := d.merchants.Extract(desc, kind)

	return models.Transaction{
		Date:        date,
		Year:        year,
		Month:       month,
		Amount:      amount,
		Kind:        kind,
		Description: desc,
		Merchant:    merchant,
		CardSuffix:  d.merchants.CardSuffix(b.combined),
		Category:    d.categorizer.Categorize(desc),
		RawLines:    b.rawLines,
		PageNumber:  b.page,
		LineNumber:  b.line,
		SourceFile:  sourceFile,
	}, nil
}

func (d *BBVADialect) isStop(line string) bool {
	s := squash(line)
	for _, prefix := range d.stops {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

// splitAmounts treats the last amount as the running balance and the one
// before it as the transaction amount. Order-reversed layouts will be
// misread; there is no reliable way to tell the two columns apart.
func splitAmounts(amounts []string) (amount, balance string) {
	switch len(amounts) {
	case 0:
		return "", ""
	case 1:
		return amounts[0], ""
	}
	amount = amounts[len(amounts)-2]
	balance = amounts[len(amounts)-1]
	if len(amounts) == 2 && amount == balance {
		balance = ""
	}
	return amount, balance
}

func removeAmount(text, amount string) string {
	re := regexp.MustCompile(`(?:\$\s*)?` + regexp.QuoteMeta(amount))
	loc := re.FindStringIndex(text)
	if loc == nil {
		return text
	}
	return strings.TrimSpace(text[:loc[0]] + text[loc[1]:])
}

func inferKind(description string) models.Kind {
	upper := strings.ToUpper(description)
	for _, kw := range creditKeywords {
		if strings.Contains(upper, kw) {
			return models.KindCredit
		}
	}
	return models.KindDebit
}

// squash upper-cases s and removes all whitespace.
func squash(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}
