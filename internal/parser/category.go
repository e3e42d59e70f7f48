package parser

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// OtherCategory is assigned when no category pattern matches.
const OtherCategory = "Other"

// Category is one named entry of a category catalog.
type Category struct {
	Name     string   `json:"name" yaml:"name"`
	Patterns []string `json:"patterns" yaml:"patterns"`
}

// CategoryCatalog is an ordered list of categories. Order decides ties.
type CategoryCatalog []Category

// CatalogProvider supplies a category catalog to a Categorizer.
type CatalogProvider interface {
	Load() (CategoryCatalog, error)
}

// StaticCatalog is a programmatic catalog.
type StaticCatalog CategoryCatalog

// Load implements CatalogProvider.
func (s StaticCatalog) Load() (CategoryCatalog, error) {
	return CategoryCatalog(s), nil
}

//go:embed categories.json
var defaultCategories []byte

// DefaultCatalog returns the catalog compiled into the binary.
func DefaultCatalog() CatalogProvider {
	return bytesCatalog{name: "embedded", data: defaultCategories}
}

// FileCatalog loads a JSON or YAML catalog file from disk.
type FileCatalog struct {
	Path string
}

// Load implements CatalogProvider.
func (f FileCatalog) Load() (CategoryCatalog, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read category file %q: %w", f.Path, err)
	}
	return bytesCatalog{name: f.Path, data: data}.Load()
}

type bytesCatalog struct {
	name string
	data []byte
}

func (b bytesCatalog) Load() (CategoryCatalog, error) {
	cat, err := DecodeCatalog(b.data)
	if err != nil {
		return nil, fmt.Errorf("decode category catalog %s: %w", b.name, err)
	}
	return cat, nil
}

// ErrEmptyCatalog is returned when a catalog document has no categories.
var ErrEmptyCatalog = errors.New("category catalog is empty")

// DecodeCatalog parses a catalog document, keeping the document's key order.
// Both shapes are accepted:
//
//	{"Shopping": {"patterns": ["AMAZON", "WALMART"]}}
//	{"Shopping": ["AMAZON", "WALMART"]}
//
// JSON is valid YAML, so one decoder covers both file types.
func DecodeCatalog(data []byte) (CategoryCatalog, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return nil, ErrEmptyCatalog
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected a mapping of category name to patterns, got %s", nodeKind(root))
	}

	var out CategoryCatalog
	for i := 0; i+1 < len(root.Content); i += 2 {
		name := root.Content[i].Value
		patterns, err := decodePatterns(root.Content[i+1])
		if err != nil {
			return nil, fmt.Errorf("category %q: %w", name, err)
		}
		out = append(out, Category{Name: name, Patterns: patterns})
	}
	if len(out) == 0 {
		return nil, ErrEmptyCatalog
	}
	return out, nil
}

func decodePatterns(n *yaml.Node) ([]string, error) {
	var patterns []string
	switch n.Kind {
	case yaml.SequenceNode:
		if err := n.Decode(&patterns); err != nil {
			return nil, err
		}
	case yaml.MappingNode:
		var entry struct {
			Patterns []string `yaml:"patterns"`
		}
		if err := n.Decode(&entry); err != nil {
			return nil, err
		}
		patterns = entry.Patterns
	default:
		return nil, fmt.Errorf("expected a pattern list, got %s", nodeKind(n))
	}
	return patterns, nil
}

func nodeKind(n *yaml.Node) string {
	switch n.Kind {
	case yaml.ScalarNode:
		return "scalar"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.AliasNode:
		return "alias"
	}
	return "document"
}

// FallbackCatalog is used when the configured provider fails to load.
var FallbackCatalog = StaticCatalog{
	{Name: "Shopping", Patterns: []string{"Amazon", "Amzn", "Walmart", "Target"}},
	{Name: "Transportation", Patterns: []string{"Uber", "Lyft"}},
	{Name: "Subscription", Patterns: []string{"Recurring", "Netflix"}},
	{Name: "Income", Patterns: []string{"DirectDeposit", "Payroll"}},
}

// CategorizerConfig wires a Categorizer to its catalog source.
type CategorizerConfig struct {
	Provider CatalogProvider
	Logger   zerolog.Logger
}

type categoryMatcher struct {
	name     string
	patterns []patternMatcher
}

type patternMatcher struct {
	raw   string
	upper string
	re    *regexp.Regexp // nil when raw is not a valid expression
}

func (p patternMatcher) match(upperDesc string) bool {
	if p.re != nil {
		return p.re.MatchString(upperDesc)
	}
	return strings.Contains(upperDesc, p.upper)
}

// Categorizer assigns the first matching category in catalog order.
type Categorizer struct {
	categories []categoryMatcher
	log        zerolog.Logger
}

// NewCategorizer loads the catalog from cfg.Provider. A provider error is
// logged and FallbackCatalog is used instead.
func NewCategorizer(cfg CategorizerConfig) *Categorizer {
	provider := cfg.Provider
	if provider == nil {
		provider = DefaultCatalog()
	}
	catalog, err := provider.Load()
	if err != nil {
		cfg.Logger.Warn().Err(err).Msg("category catalog unavailable, using fallback categories")
		catalog = CategoryCatalog(FallbackCatalog)
	}
	return newCategorizer(catalog, cfg.Logger)
}

func newCategorizer(catalog CategoryCatalog, log zerolog.Logger) *Categorizer {
	c := &Categorizer{log: log}
	for _, cat := range catalog {
		m := categoryMatcher{name: cat.Name}
		for _, p := range cat.Patterns {
			pm := patternMatcher{raw: p, upper: strings.ToUpper(p)}
			re, err := regexp.Compile(`(?i)` + p)
			if err != nil {
				log.Debug().Str("pattern", p).Msg("category pattern is not a valid expression, matching as text")
			} else {
				pm.re = re
			}
			m.patterns = append(m.patterns, pm)
		}
		c.categories = append(c.categories, m)
	}
	return c
}

// Categorize returns the category for description, or OtherCategory.
func (c *Categorizer) Categorize(description string) string {
	upper := strings.ToUpper(description)
	for _, cat := range c.categories {
		for _, p := range cat.patterns {
			if p.match(upper) {
				c.log.Debug().Str("category", cat.name).Str("pattern", p.raw).Msg("categorized")
				return cat.name
			}
		}
	}
	return OtherCategory
}

// Names lists the categories in catalog order.
func (c *Categorizer) Names() []string {
	names := make([]string, 0, len(c.categories))
	for _, cat := range c.categories {
		names = append(names, cat.name)
	}
	return names
}
