// Package merge reconciles independently parsed annual financial statements of one
// reporting entity into a single longitudinal catalog per statement type.
//
// Each 10-K carries its own section/line-item hierarchy, which drifts year over year
// (renames, reorders, restatements). The engine resolves which line item in one
// filing is "the same" as one already in the catalog and accretes a rectangular
// time series per resolved item.
//
// Pipeline (per statement type):
//  1. Flatten every filing into positioned rows and blank colliding section codes.
//  2. Fold filings oldest→newest: resolve sections (greedy, then fallback ratio),
//     resolve items (greedy one-to-one), update or create catalog entries.
//  3. Zero stale values not confirmed by the authoritative filing of each period.
//  4. Order sections/items on the most recent filing's layout and pad periods.
//
// The engine is single-threaded and deterministic: the same input yields the
// same catalog, key for key and value for value.
package merge

import (
	"encoding/json"
	"fmt"
	"strings"
)

// =============================================================================
// STATEMENT TYPES
// =============================================================================

// StatementType names one of the three primary financial statements.
type StatementType string

const (
	IncomeStatement   StatementType = "income_statement"
	BalanceSheet      StatementType = "balance_sheet"
	CashFlowStatement StatementType = "cash_flow_statement"
)

// StatementTypes lists the statement types in their canonical output order.
var StatementTypes = []StatementType{IncomeStatement, BalanceSheet, CashFlowStatement}

// =============================================================================
// COLLABORATOR INPUT
// =============================================================================

// StructuredStatement is one parsed statement of one filing.
// Section and item order reflect the filing's visual layout top to bottom.
type StructuredStatement struct {
	Statement string    `json:"statement,omitempty"`
	Periods   []string  `json:"periods"`
	Sections  []Section `json:"sections"`
	SourceURL string    `json:"source_url,omitempty"`
}

// Section is a grouping of line items (e.g. "Operating activities").
type Section struct {
	GAAP  string     `json:"gaap,omitempty"`
	Label string     `json:"section"`
	Items []LineItem `json:"items"`
}

// LineItem is one row of a statement with its value per raw period key.
type LineItem struct {
	GAAP   string           `json:"gaap,omitempty"`
	Label  string           `json:"label"`
	Values map[string]Value `json:"values"`
}

// StatementResult is either a parsed statement or the collaborator's error marker.
type StatementResult struct {
	Statement *StructuredStatement
	Err       string
}

// UnmarshalJSON accepts either a statement object or {"error": "<message>"}.
func (r *StatementResult) UnmarshalJSON(data []byte) error {
	var probe struct {
		Error *string `json:"error"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if probe.Error != nil {
		r.Err = *probe.Error
		if r.Err == "" {
			r.Err = "unspecified error"
		}
		return nil
	}
	var stmt StructuredStatement
	if err := json.Unmarshal(data, &stmt); err != nil {
		return err
	}
	r.Statement = &stmt
	return nil
}

// MarshalJSON writes the statement, or the error marker.
func (r StatementResult) MarshalJSON() ([]byte, error) {
	if r.Err != "" || r.Statement == nil {
		msg := r.Err
		if msg == "" {
			msg = "missing statement"
		}
		return json.Marshal(map[string]string{"error": msg})
	}
	return json.Marshal(r.Statement)
}

// Usable reports whether the result carries a statement rather than an error marker.
func (r *StatementResult) Usable() bool {
	return r != nil && r.Err == "" && r.Statement != nil
}

// Filing is one annual submission with up to three statements.
type Filing struct {
	// Period is the filing-period identifier handed over by the collaborator
	// (the report date, e.g. "2024-09-28").
	Period string `json:"period"`
	// Filed is the date the filing was submitted, when known.
	Filed           string                             `json:"filed,omitempty"`
	AccessionNumber string                             `json:"accession_number,omitempty"`
	Statements      map[StatementType]*StatementResult `json:"statements"`
}

// FilingSet is the complete, finished collaborator output for one ticker.
type FilingSet struct {
	Ticker  string   `json:"ticker"`
	Filings []Filing `json:"filings"`
}

// =============================================================================
// IDENTITY KEYS
// =============================================================================

// KeyKind tags how a Key was derived.
type KeyKind int

const (
	ByCode KeyKind = iota + 1
	ByLabel
)

func (k KeyKind) String() string {
	switch k {
	case ByCode:
		return "code"
	case ByLabel:
		return "label"
	default:
		return "none"
	}
}

// Key identifies a section or an item. Ordinal disambiguates catalog entries that
// share a natural key; it is zero for every key derived from filing rows.
type Key struct {
	Kind    KeyKind
	Value   string
	Ordinal int
}

// CodeKey builds a key from a regulatory code.
func CodeKey(code string) Key { return Key{Kind: ByCode, Value: code} }

// LabelKey builds a key from an already normalized label.
func LabelKey(normalized string) Key { return Key{Kind: ByLabel, Value: normalized} }

// Natural strips the ordinal.
func (k Key) Natural() Key { return Key{Kind: k.Kind, Value: k.Value} }

func (k Key) String() string {
	s := k.Kind.String() + ":" + k.Value
	if k.Ordinal > 0 {
		s += fmt.Sprintf("#%d", k.Ordinal)
	}
	return s
}

// SectionKeyOf returns the section identity: the code when present, else the
// normalized label.
func SectionKeyOf(gaap, label string) Key {
	if g := strings.TrimSpace(gaap); g != "" {
		return CodeKey(g)
	}
	return LabelKey(NormalizeLabel(label))
}

// ItemKeyOf returns the item identity. A colliding code falls back to the label.
func ItemKeyOf(gaap, label string, collides bool) Key {
	if !collides && gaap != "" {
		return CodeKey(gaap)
	}
	return LabelKey(NormalizeLabel(label))
}

// CatalogKey identifies one UnifiedItem within a catalog.
type CatalogKey struct {
	Section Key
	Item    Key
}

func (k CatalogKey) String() string {
	return k.Item.String() + "|" + k.Section.String()
}

// =============================================================================
// FLAT ROWS & OUTPUT
// =============================================================================

// FlatRow is one line item of one filing with its section identity and position
// inside that section.
type FlatRow struct {
	SectionGAAP  string              `json:"section_gaap"`
	SectionLabel string              `json:"section_label"`
	ItemGAAP     string              `json:"item_gaap"`
	ItemLabel    string              `json:"item_label"`
	Values       map[string]*float64 `json:"values"`
	Position     int                 `json:"position"`
}

// UnifiedItem is the accreted record of one resolved line item.
type UnifiedItem struct {
	SectionGAAP  string              `json:"section_gaap"`
	SectionLabel string              `json:"section_label"`
	ItemGAAP     string              `json:"item_gaap"`
	ItemLabel    string              `json:"item_label"`
	Values       map[string]*float64 `json:"values"`
}

// Entry is one ordered catalog element.
type Entry struct {
	Key  CatalogKey
	Item *UnifiedItem
}

// Restatement records a newer filing replacing a previously reported figure.
type Restatement struct {
	Key          string  `json:"key"`
	ItemLabel    string  `json:"item_label"`
	Period       string  `json:"period"`
	OldValue     float64 `json:"old_value"`
	NewValue     float64 `json:"new_value"`
	DeltaPercent float64 `json:"delta_percent"`
	OldFiling    string  `json:"old_filing"`
	NewFiling    string  `json:"new_filing"`
}

// Stats summarizes how a catalog was resolved.
type Stats struct {
	Filings         int `json:"filings"`
	SkippedFilings  int `json:"skipped_filings"`
	GreedySections  int `json:"greedy_sections"`
	FallbackSection int `json:"fallback_sections"`
	NewSections     int `json:"new_sections"`
	MatchedRows     int `json:"matched_rows"`
	NewItems        int `json:"new_items"`
	ZeroedCells     int `json:"zeroed_cells"`
}

// UnifiedCatalog is the ordered output for one statement type.
type UnifiedCatalog struct {
	StatementType StatementType `json:"statement_type"`
	// Periods holds every period observed across filings, ascending.
	Periods      []string      `json:"periods"`
	Entries      []Entry       `json:"-"`
	SourceURLs   []string      `json:"source_urls"`
	Restatements []Restatement `json:"restatements"`
	Stats        Stats         `json:"stats"`

	index map[CatalogKey]int
}

// NewUnifiedCatalog returns an empty catalog.
func NewUnifiedCatalog(t StatementType) *UnifiedCatalog {
	return &UnifiedCatalog{
		StatementType: t,
		Periods:       []string{},
		SourceURLs:    []string{},
		Restatements:  []Restatement{},
		index:         make(map[CatalogKey]int),
	}
}

// Len returns the number of items.
func (c *UnifiedCatalog) Len() int { return len(c.Entries) }

// Get returns the item stored under key.
func (c *UnifiedCatalog) Get(key CatalogKey) (*UnifiedItem, bool) {
	i, ok := c.index[key]
	if !ok {
		return nil, false
	}
	return c.Entries[i].Item, true
}

// Find returns the first item whose label normalizes to label.
func (c *UnifiedCatalog) Find(label string) (*UnifiedItem, bool) {
	norm := NormalizeLabel(label)
	for _, e := range c.Entries {
		if NormalizeLabel(e.Item.ItemLabel) == norm {
			return e.Item, true
		}
	}
	return nil, false
}

// Labels returns item labels in catalog order.
func (c *UnifiedCatalog) Labels() []string {
	out := make([]string, len(c.Entries))
	for i, e := range c.Entries {
		out[i] = e.Item.ItemLabel
	}
	return out
}

type jsonEntry struct {
	Key string `json:"key"`
	*UnifiedItem
}

// MarshalJSON writes entries as an ordered array.
func (c *UnifiedCatalog) MarshalJSON() ([]byte, error) {
	type alias UnifiedCatalog
	entries := make([]jsonEntry, len(c.Entries))
	for i, e := range c.Entries {
		entries[i] = jsonEntry{Key: e.Key.String(), UnifiedItem: e.Item}
	}
	return json.Marshal(struct {
		*alias
		Items []jsonEntry `json:"items"`
	}{alias: (*alias)(c), Items: entries})
}
