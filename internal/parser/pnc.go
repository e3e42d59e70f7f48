package parser

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/insightdelivered/bank-statement-parser/internal/models"
)

// PNCDialect parses PNC Virtual Wallet statements, which group
// transactions into deposit, withdrawal and online banking sections.
type PNCDialect struct {
	catalog   *Catalog
	sections  *SectionExtractor
	assembler *Assembler
	log       zerolog.Logger
}

// NewPNC returns the PNC Virtual Wallet dialect.
func NewPNC(opts Options) *PNCDialect {
	catalog := PNCCatalog()
	log := opts.Logger.With().Str("dialect", string(models.DialectPNC)).Logger()
	return &PNCDialect{
		catalog:   catalog,
		sections:  NewSectionExtractor(catalog, log),
		assembler: NewAssembler(catalog, opts.categorizer(), log),
		log:       log,
	}
}

func (d *PNCDialect) Name() models.Dialect { return models.DialectPNC }

func (d *PNCDialect) Catalog() *Catalog { return d.catalog }

// ParseHeader reads "Primary account number:" and
// "For the period MM/DD/YYYY to MM/DD/YYYY".
func (d *PNCDialect) ParseHeader(text string) (*models.StatementSummary, error) {
	return parseHeader(d.catalog, text, func(m []string) (time.Time, time.Time, error) {
		start, err := parseSlashDate(m[1])
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end, err := parseSlashDate(m[2])
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		return start, end, nil
	})
}

// ExtractTransactions assembles each section in turn and concatenates the
// results in section order.
func (d *PNCDialect) ExtractTransactions(text string, summary *models.StatementSummary, sourceFile string) ([]models.Transaction, []Failure) {
	var (
		txns     []models.Transaction
		failures []Failure
	)
	for _, sec := range d.sections.Extract(text) {
		got, failed := d.assembler.Assemble(sec, summary, sourceFile)
		d.log.Info().
			Str("section", string(sec.Name)).
			Int("page", sec.StartPage).
			Int("transactions", len(got)).
			Int("skipped", len(failed)).
			Msg("section parsed")
		txns = append(txns, got...)
		failures = append(failures, failed...)
	}
	return txns, failures
}
