package analysis

// IssueCategory names one class of reported dead code.
type IssueCategory string

const (
	CategoryFiles      IssueCategory = "files"
	CategoryExports    IssueCategory = "exports"
	CategoryTypes      IssueCategory = "types"
	CategoryMembers    IssueCategory = "members"
	CategoryDuplicates IssueCategory = "duplicates"
)

// Categories lists all issue categories in reporting order.
var Categories = []IssueCategory{
	CategoryFiles,
	CategoryExports,
	CategoryTypes,
	CategoryMembers,
	CategoryDuplicates,
}

type (
	// Issue is one reported finding.
	Issue struct {
		Category IssueCategory `json:"category"`
		// Path is relative to the configured root.
		Path   string `json:"path"`
		Symbol string `json:"symbol"`
		// SymbolType carries the resolved type signature for type issues.
		SymbolType string `json:"symbolType,omitempty"`
		// Symbols lists the export names of a duplicate group in detection
		// order. Symbol is the same list joined by comma.
		Symbols []string `json:"symbols,omitempty"`
	}

	// IssueSet holds issues keyed by category, relative file path and symbol.
	IssueSet map[IssueCategory]map[string]map[string]*Issue

	// Counters tracks per-category totals plus the number of processed files.
	Counters struct {
		Files      int `json:"files"`
		Exports    int `json:"exports"`
		Types      int `json:"types"`
		Members    int `json:"members"`
		Duplicates int `json:"duplicates"`
		Processed  int `json:"processedFiles"`
	}
)

// add inserts an issue at its (category, path, symbol) key. Last write wins
// on collision.
func (s IssueSet) add(iss *Issue) {
	byPath, ok := s[iss.Category]
	if !ok {
		byPath = make(map[string]map[string]*Issue)
		s[iss.Category] = byPath
	}
	bySymbol, ok := byPath[iss.Path]
	if !ok {
		bySymbol = make(map[string]*Issue)
		byPath[iss.Path] = bySymbol
	}
	bySymbol[iss.Symbol] = iss
}

func (s IssueSet) has(cat IssueCategory, path, symbol string) bool {
	_, ok := s[cat][path][symbol]
	return ok
}

// Category returns the counter belonging to one category.
func (c *Counters) Category(cat IssueCategory) int {
	switch cat {
	case CategoryFiles:
		return c.Files
	case CategoryExports:
		return c.Exports
	case CategoryTypes:
		return c.Types
	case CategoryMembers:
		return c.Members
	case CategoryDuplicates:
		return c.Duplicates
	}
	return 0
}

// IssueCount returns the sum over all categories, without processed files.
func (c *Counters) IssueCount() int {
	return c.Files + c.Exports + c.Types + c.Members + c.Duplicates
}

func (c *Counters) bump(cat IssueCategory) {
	switch cat {
	case CategoryFiles:
		c.Files++
	case CategoryExports:
		c.Exports++
	case CategoryTypes:
		c.Types++
	case CategoryMembers:
		c.Members++
	case CategoryDuplicates:
		c.Duplicates++
	}
}
