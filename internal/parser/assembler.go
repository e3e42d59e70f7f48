package parser

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/insightdelivered/bank-statement-parser/internal/models"
)

type assemblerState int

const (
	stateScanning assemblerState = iota
	stateCollecting
)

func (s assemblerState) String() string {
	if s == stateCollecting {
		return "COLLECTING"
	}
	return "SCANNING"
}

type lineClass int

const (
	classBlank lineClass = iota
	classPageMarker
	classIgnoredDate // date-prefixed but extraneous, e.g. daily balance rows
	classDateStart
	classExtraneous
	classContinuation
	classOther
)

type action int

const (
	actSkip action = iota
	actTrackPage
	actStart
	actAppend
	actFinalize
	actFinalizeAndRescan // finalize, then handle the same line again from SCANNING
)

type transition struct {
	act  action
	next assemblerState
}

var transitions = map[assemblerState]map[lineClass]transition{
	stateScanning: {
		classBlank:        {actSkip, stateScanning},
		classPageMarker:   {actTrackPage, stateScanning},
		classIgnoredDate:  {actSkip, stateScanning},
		classDateStart:    {actStart, stateCollecting},
		classExtraneous:   {actSkip, stateScanning},
		classContinuation: {actSkip, stateScanning},
		classOther:        {actSkip, stateScanning},
	},
	stateCollecting: {
		classBlank:        {actFinalize, stateScanning},
		classPageMarker:   {actTrackPage, stateCollecting},
		classIgnoredDate:  {actFinalizeAndRescan, stateScanning},
		classDateStart:    {actFinalizeAndRescan, stateScanning},
		classExtraneous:   {actSkip, stateCollecting},
		classContinuation: {actAppend, stateCollecting},
		classOther:        {actFinalizeAndRescan, stateScanning},
	},
}

// Failure records a transaction candidate that could not be assembled.
type Failure struct {
	Line int
	Text string
	Err  error
}

func (f Failure) Error() string {
	return fmt.Sprintf("line %d %q: %v", f.Line, f.Text, f.Err)
}

// candidate is a transaction being collected.
type candidate struct {
	date      string
	amount    string
	fragments []string
	rawLines  []string
	page      int
	line      int
}

// Assembler turns the lines of one section into transactions using an
// explicit SCANNING/COLLECTING state machine.
type Assembler struct {
	catalog     *Catalog
	cleaner     *TextCleaner
	merchants   *MerchantExtractor
	categorizer *Categorizer
	log         zerolog.Logger
}

// NewAssembler returns an assembler for catalog. A nil categorizer uses the
// default category catalog.
func NewAssembler(catalog *Catalog, categorizer *Categorizer, log zerolog.Logger) *Assembler {
	if categorizer == nil {
		categorizer = NewCategorizer(CategorizerConfig{Logger: log})
	}
	return &Assembler{
		catalog:     catalog,
		cleaner:     NewTextCleaner(catalog, log),
		merchants:   NewMerchantExtractor(catalog),
		categorizer: categorizer,
		log:         log,
	}
}

// classify maps a trimmed line to its class. The order of checks matters:
// date-prefixed extraneous rows must not start a transaction.
func (a *Assembler) classify(line string) lineClass {
	if line == "" {
		return classBlank
	}
	if _, ok := ParsePageMarker(line); ok {
		return classPageMarker
	}
	isDate := a.catalog.DateStart.MatchString(line)
	isExtraneous := a.cleaner.IsExtraneousLine(line)
	switch {
	case isDate && isExtraneous:
		return classIgnoredDate
	case isDate:
		return classDateStart
	case isExtraneous:
		return classExtraneous
	case a.isContinuation(line):
		return classContinuation
	}
	return classOther
}

func (a *Assembler) isContinuation(line string) bool {
	if a.cleaner.IsValidMerchantContinuation(line) {
		return true
	}
	cleaned := a.cleaner.clean(line)
	return len(cleaned) >= 3 && a.cleaner.IsValidMerchantContinuation(cleaned)
}

// Assemble walks sec and returns the transactions it contains together with
// the candidates that had to be skipped. It never fails as a whole.
func (a *Assembler) Assemble(sec SectionSlice, summary *models.StatementSummary, sourceFile string) ([]models.Transaction, []Failure) {
	var (
		txns     []models.Transaction
		failures []Failure
		cur      *candidate
		state    = stateScanning
		page     = sec.StartPage
	)
	if page < 1 {
		page = 1
	}

	finalize := func() {
		if cur == nil {
			return
		}
		txn, err := a.finalize(cur, sec.Kind, summary, sourceFile)
		if err != nil {
			f := Failure{Line: cur.line, Text: strings.TrimSpace(cur.rawLines[0]), Err: err}
			a.log.Warn().Err(err).Int("line", cur.line).Str("text", f.Text).Msg("skipping transaction candidate")
			failures = append(failures, f)
		} else {
			txns = append(txns, txn)
		}
		cur = nil
	}

	lines := strings.Split(sec.Text, "\n")
	for i := 0; i < len(lines); {
		raw := lines[i]
		line := strings.TrimSpace(raw)
		lineNo := sec.StartLine + i
		class := a.classify(line)
		t := transitions[state][class]

		switch t.act {
		case actSkip:
		case actTrackPage:
			page, _ = ParsePageMarker(line)
		case actStart:
			c, err := a.start(line, raw, page, lineNo)
			if err != nil {
				a.log.Warn().Err(err).Int("line", lineNo).Str("text", line).Msg("skipping transaction candidate")
				failures = append(failures, Failure{Line: lineNo, Text: line, Err: err})
				t.next = stateScanning
				break
			}
			cur = c
		case actAppend:
			cur.fragments = append(cur.fragments, line)
			cur.rawLines = append(cur.rawLines, raw)
		case actFinalize:
			finalize()
		case actFinalizeAndRescan:
			finalize()
			state = t.next
			continue
		}

		state = t.next
		i++
	}
	if state == stateCollecting {
		finalize()
	}
	return txns, failures
}

// start opens a candidate from a date-prefixed line. line is the trimmed
// form of raw.
func (a *Assembler) start(line, raw string, page, lineNo int) (*candidate, error) {
	m := a.catalog.DateStart.FindStringSubmatchIndex(line)
	if m == nil {
		return nil, fmt.Errorf("no date at line start")
	}
	date := line[m[2]:m[3]]
	rest := line[m[1]:]

	loc := a.catalog.Amount.FindStringSubmatchIndex(rest)
	if loc == nil {
		return nil, ErrMissingAmount
	}
	return &candidate{
		date:      date,
		amount:    rest[loc[2]:loc[3]],
		fragments: []string{strings.TrimSpace(rest[loc[1]:])},
		rawLines:  []string{raw},
		page:      page,
		line:      lineNo,
	}, nil
}

// finalize builds the transaction for c. A panic while doing so is turned
// into an error so one bad candidate cannot abort the section.
func (a *Assembler) finalize(c *candidate, kind models.Kind, summary *models.StatementSummary, sourceFile string) (txn models.Transaction, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("assembling transaction: %v", r)
		}
	}()

	amount, err := ParseAmount(c.amount)
	if err != nil {
		return txn, err
	}
	year, month, err := ResolveYearMonth(c.date, summary)
	if err != nil {
		return txn, err
	}

	description := a.cleaner.CleanDescription(strings.Join(c.fragments, " "))
	merchant, card := a.merchants.Extract(description, kind)

	return models.Transaction{
		Date:        c.date,
		Year:        year,
		Month:       month,
		Amount:      amount,
		Kind:        kind,
		Description: description,
		Merchant:    merchant,
		CardSuffix:  card,
		Category:    a.categorizer.Categorize(description),
		RawLines:    c.rawLines,
		PageNumber:  c.page,
		LineNumber:  c.line,
		SourceFile:  sourceFile,
	}, nil
}
