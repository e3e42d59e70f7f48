// Package pipeline turns extracted statement text into validated
// transactions: dialect detection, parsing, cleaning and validation, for a
// single document or a batch processed by a bounded worker pool.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/insightdelivered/bank-statement-parser/internal/metrics"
	"github.com/insightdelivered/bank-statement-parser/internal/models"
	"github.com/insightdelivered/bank-statement-parser/internal/parser"
)

// ErrNoText is reported for a document with no extractable text.
var ErrNoText = errors.New("no text extracted")

// Document is the per-page text of one statement.
type Document struct {
	SourceFile string
	Pages      []string
}

// Options configure a Processor.
type Options struct {
	Registry  *parser.Registry
	Validator *Validator
	Metrics   *metrics.Metrics
	Logger    zerolog.Logger
	// Workers bounds concurrent documents in ProcessBatch. Values below 1
	// mean 1.
	Workers int
	// Dialect forces a dialect instead of detecting it.
	Dialect models.Dialect
}

// Processor runs the detect, parse, clean and validate stages.
type Processor struct {
	registry  *parser.Registry
	validator *Validator
	metrics   *metrics.Metrics
	log       zerolog.Logger
	workers   int
	dialect   models.Dialect
}

// NewProcessor returns a processor. Missing registry and validator default
// to the built-in dialects and the default validation settings.
func NewProcessor(opts Options) *Processor {
	p := &Processor{
		registry:  opts.Registry,
		validator: opts.Validator,
		metrics:   opts.Metrics,
		log:       opts.Logger,
		workers:   opts.Workers,
		dialect:   opts.Dialect,
	}
	if p.registry == nil {
		p.registry = parser.DefaultRegistry(parser.Options{Logger: opts.Logger})
	}
	if p.validator == nil {
		p.validator = NewValidator(DefaultLargeAmountCeiling, DedupBroad, opts.Logger)
	}
	if p.workers < 1 {
		p.workers = 1
	}
	return p
}

// ProcessDocument parses one statement. Document-level failures are
// reported through the result's Err and Warnings; they never panic or
// affect other documents.
func (p *Processor) ProcessDocument(ctx context.Context, doc Document) models.DocumentResult {
	res := models.DocumentResult{SourceFile: doc.SourceFile, Transactions: []models.Transaction{}}
	log := p.log.With().Str("file", doc.SourceFile).Logger()

	fail := func(kind models.WarningKind, dialect string, err error) models.DocumentResult {
		log.Error().Err(err).Msg("statement rejected")
		res.Err = err
		res.Warnings = append(res.Warnings, models.Warning{Kind: kind, Message: err.Error(), SourceFile: doc.SourceFile})
		p.metrics.ObserveDocument(dialect, metrics.StatusFailed, 0)
		p.metrics.AddWarning(string(kind))
		return res
	}

	if err := ctx.Err(); err != nil {
		return fail(models.WarningDocument, "", err)
	}

	firstPage := firstNonBlank(doc.Pages)
	if firstPage == "" {
		return fail(models.WarningDocument, "", ErrNoText)
	}

	d, err := p.resolveDialect(firstPage)
	if err != nil {
		return fail(models.WarningDocument, string(p.dialect), err)
	}
	res.Dialect = d.Name()
	log = log.With().Str("dialect", string(d.Name())).Logger()

	start := time.Now()
	parsed, err := parser.Parse(d, parser.JoinPages(doc.Pages), doc.SourceFile)
	if err != nil {
		return fail(models.WarningHeader, string(d.Name()), err)
	}
	elapsed := time.Since(start)

	res.Summary = parsed.Summary
	res.Transactions = CleanTransactions(parsed.Transactions)
	res.Warnings = p.validator.Validate(res.Summary, res.Transactions, doc.SourceFile)

	dialect := string(d.Name())
	p.metrics.ObserveDocument(dialect, metrics.StatusOK, elapsed)
	p.metrics.AddTransactions(dialect, string(models.KindCredit), res.Summary.DepositCount)
	p.metrics.AddTransactions(dialect, string(models.KindDebit), res.Summary.WithdrawalCount)
	p.metrics.AddSkipped(dialect, len(parsed.Failures))
	for _, w := range res.Warnings {
		p.metrics.AddWarning(string(w.Kind))
	}

	log.Info().
		Str("account", res.Summary.AccountNumber).
		Str("period", res.Summary.Period()).
		Int("transactions", len(res.Transactions)).
		Int("skipped", len(parsed.Failures)).
		Int("warnings", len(res.Warnings)).
		Dur("elapsed", elapsed).
		Msg("statement parsed")
	return res
}

// WithDialect returns a copy of p that parses every document as d. An
// empty d restores detection.
func (p *Processor) WithDialect(d models.Dialect) *Processor {
	cp := *p
	cp.dialect = d
	return &cp
}

func (p *Processor) resolveDialect(firstPage string) (parser.Dialect, error) {
	if p.dialect != "" {
		return p.registry.Get(p.dialect)
	}
	return p.registry.Detect(firstPage)
}

// ProcessBatch processes docs with up to Workers documents in flight.
// Results keep the input order regardless of completion order.
func (p *Processor) ProcessBatch(ctx context.Context, docs []Document) *models.BatchResult {
	batch := &models.BatchResult{
		RunID:        uuid.NewString(),
		Documents:    make([]models.DocumentResult, len(docs)),
		Transactions: []models.Transaction{},
	}
	log := p.log.With().Str("run_id", batch.RunID).Logger()
	log.Info().Int("documents", len(docs)).Int("workers", p.workers).Msg("batch started")

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				batch.Documents[i] = p.ProcessDocument(ctx, docs[i])
			}
		}()
	}
	for i := range docs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for _, doc := range batch.Documents {
		batch.Transactions = append(batch.Transactions, doc.Transactions...)
		batch.Warnings = append(batch.Warnings, doc.Warnings...)
	}
	log.Info().
		Int("transactions", len(batch.Transactions)).
		Int("warnings", len(batch.Warnings)).
		Msg("batch finished")
	return batch
}

func firstNonBlank(pages []string) string {
	for _, p := range pages {
		if strings.TrimSpace(p) != "" {
			return p
		}
	}
	return ""
}
