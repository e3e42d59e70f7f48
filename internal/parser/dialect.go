package parser

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudflare/ahocorasick"
	"github.com/rs/zerolog"

	"github.com/insightdelivered/bank-statement-parser/internal/models"
)

// ErrUnknownDialect is returned when a statement layout is not supported or
// cannot be recognised.
var ErrUnknownDialect = errors.New("unknown statement dialect")

// Dialect parses one statement layout.
type Dialect interface {
	// Name returns the dialect identifier.
	Name() models.Dialect
	// Catalog returns the dialect's pattern table.
	Catalog() *Catalog
	// ParseHeader extracts account, period and page count. A missing
	// period yields ErrNoPeriod.
	ParseHeader(text string) (*models.StatementSummary, error)
	// ExtractTransactions returns every transaction in text. Candidates that
	// cannot be assembled are reported as failures, never as an error.
	ExtractTransactions(text string, summary *models.StatementSummary, sourceFile string) ([]models.Transaction, []Failure)
}

// Options are shared by all dialect implementations.
type Options struct {
	Categorizer *Categorizer
	Logger      zerolog.Logger
}

func (o Options) categorizer() *Categorizer {
	if o.Categorizer != nil {
		return o.Categorizer
	}
	return NewCategorizer(CategorizerConfig{Logger: o.Logger})
}

// Result is the parse outcome for one document.
type Result struct {
	Summary      *models.StatementSummary
	Transactions []models.Transaction
	Failures     []Failure
}

// Parse runs header parsing followed by transaction extraction.
func Parse(d Dialect, text, sourceFile string) (*Result, error) {
	summary, err := d.ParseHeader(text)
	if err != nil {
		return nil, fmt.Errorf("%s header: %w", d.Name(), err)
	}
	txns, failures := d.ExtractTransactions(text, summary, sourceFile)
	return &Result{Summary: summary, Transactions: txns, Failures: failures}, nil
}

// ParseDialect maps a user-supplied name to a dialect identifier.
func ParseDialect(name string) (models.Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "pnc", "pnc_virtual_wallet", "virtual-wallet":
		return models.DialectPNC, nil
	case "bbva", "bbva_legacy", "compass":
		return models.DialectBBVA, nil
	}
	return "", fmt.Errorf("%w: %q (supported: pnc, bbva)", ErrUnknownDialect, name)
}

type indicator struct {
	dialect models.Dialect
	group   int
}

// Registry maps dialect identifiers to implementations and recognises a
// statement's dialect from its first page.
type Registry struct {
	dialects map[models.Dialect]Dialect
	order    []models.Dialect
	needles  []indicator

	mu      sync.Mutex // Matcher.Match keeps per-call state on the matcher
	matcher *ahocorasick.Matcher
}

// NewRegistry registers dialects. Detection tries them in the given order.
func NewRegistry(dialects ...Dialect) *Registry {
	r := &Registry{dialects: make(map[models.Dialect]Dialect)}
	var dict []string
	for _, d := range dialects {
		name := d.Name()
		if _, dup := r.dialects[name]; !dup {
			r.order = append(r.order, name)
		}
		r.dialects[name] = d
		for g, group := range d.Catalog().Indicators {
			for _, phrase := range group {
				dict = append(dict, strings.ToUpper(phrase))
				r.needles = append(r.needles, indicator{dialect: name, group: g})
			}
		}
	}
	if len(dict) > 0 {
		r.matcher = ahocorasick.NewStringMatcher(dict)
	}
	return r
}

// DefaultRegistry registers the PNC and BBVA dialects.
func DefaultRegistry(opts Options) *Registry {
	opts.Categorizer = opts.categorizer()
	return NewRegistry(NewPNC(opts), NewBBVA(opts))
}

// Get returns the dialect registered under name.
func (r *Registry) Get(name models.Dialect) (Dialect, error) {
	d, ok := r.dialects[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, name)
	}
	return d, nil
}

// Names lists registered dialects in detection order.
func (r *Registry) Names() []models.Dialect {
	return append([]models.Dialect(nil), r.order...)
}

// Detect identifies the dialect of a statement from its first page text.
func (r *Registry) Detect(firstPage string) (Dialect, error) {
	if r.matcher == nil || strings.TrimSpace(firstPage) == "" {
		return nil, fmt.Errorf("%w: no statement text", ErrUnknownDialect)
	}

	r.mu.Lock()
	found := r.matcher.Match([]byte(strings.ToUpper(firstPage)))
	r.mu.Unlock()

	hits := make(map[models.Dialect]map[int]bool)
	for _, idx := range found {
		n := r.needles[idx]
		if hits[n.dialect] == nil {
			hits[n.dialect] = make(map[int]bool)
		}
		hits[n.dialect][n.group] = true
	}

	for _, name := range r.order {
		d := r.dialects[name]
		groups := d.Catalog().Indicators
		if len(groups) == 0 || len(hits[name]) < len(groups) {
			continue
		}
		return d, nil
	}
	return nil, fmt.Errorf("%w: no dialect indicators found", ErrUnknownDialect)
}
