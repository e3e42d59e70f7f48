package parser

import (
	"regexp"

	"github.com/rs/zerolog"

	"github.com/insightdelivered/bank-statement-parser/internal/models"
)

// SectionName identifies a transaction section of a sectioned statement.
type SectionName string

const (
	SectionDeposits      SectionName = "deposits"
	SectionWithdrawals   SectionName = "withdrawals"
	SectionOnlineBanking SectionName = "online_banking"
)

// SectionSlice is the text of one section plus the context the assembler
// needs to walk it.
type SectionSlice struct {
	Name      SectionName
	Kind      models.Kind
	Text      string
	Start     int // byte offset of Text within the document
	End       int
	StartPage int // page in effect at the section header
	StartLine int // 1-based document line of the first byte of Text
}

type sectionRule struct {
	name      SectionName
	kind      models.Kind
	start     *regexp.Regexp
	followers []*regexp.Regexp
}

// SectionExtractor slices a document into its transaction sections.
type SectionExtractor struct {
	rules []sectionRule
	log   zerolog.Logger
}

// NewSectionExtractor builds the section rules from catalog. Sections whose
// start pattern is nil are omitted.
func NewSectionExtractor(catalog *Catalog, log zerolog.Logger) *SectionExtractor {
	all := []sectionRule{
		{
			name:      SectionDeposits,
			kind:      models.KindCredit,
			start:     catalog.DepositsStart,
			followers: []*regexp.Regexp{catalog.WithdrawalsStart},
		},
		{
			name:      SectionWithdrawals,
			kind:      models.KindDebit,
			start:     catalog.WithdrawalsStart,
			followers: []*regexp.Regexp{catalog.OnlineBankingStart, catalog.DailyBalanceStart},
		},
		{
			name:      SectionOnlineBanking,
			kind:      models.KindDebit,
			start:     catalog.OnlineBankingStart,
			followers: []*regexp.Regexp{catalog.DailyBalanceStart},
		},
	}
	e := &SectionExtractor{log: log}
	for _, r := range all {
		if r.start != nil {
			e.rules = append(e.rules, r)
		}
	}
	return e
}

// Extract returns the sections found in text in rule order. A missing
// section is logged and skipped.
func (e *SectionExtractor) Extract(text string) []SectionSlice {
	var out []SectionSlice
	for _, r := range e.rules {
		loc := r.start.FindStringIndex(text)
		if loc == nil {
			e.log.Info().Str("section", string(r.name)).Msg("section not found")
			continue
		}
		bodyStart := loc[1]
		end := len(text)
		for _, f := range r.followers {
			if f == nil {
				continue
			}
			if fl := f.FindStringIndex(text[bodyStart:]); fl != nil && bodyStart+fl[0] < end {
				end = bodyStart + fl[0]
			}
		}
		out = append(out, SectionSlice{
			Name:      r.name,
			Kind:      r.kind,
			Text:      text[bodyStart:end],
			Start:     bodyStart,
			End:       end,
			StartPage: PageAt(text, loc[0]),
			StartLine: LineAt(text, bodyStart),
		})
	}
	return out
}
