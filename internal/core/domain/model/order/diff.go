package order

// DiffOp names the kind of ledger change a mutation produced.
type DiffOp string

const (
	// DiffLineAdded records a new line appended to the ledger.
	DiffLineAdded DiffOp = "line_added"
	// DiffLineChanged records an in-place change to an existing line.
	DiffLineChanged DiffOp = "line_changed"
	// DiffLineRemoved records a line leaving the ledger, including a
	// quantity reaching zero through CHANGE or SET_QTY.
	DiffLineRemoved DiffOp = "line_removed"
)

// LineSnapshot is the externally visible state of one line, captured before
// and after a mutation. Field types are plain so snapshots serialize directly
// into audit entries and order views.
type LineSnapshot struct {
	LineID     string   `json:"line_id"`
	MenuItemID string   `json:"menu_item_id"`
	Name       string   `json:"name"`
	Quantity   int      `json:"quantity"`
	Size       string   `json:"size,omitempty"`
	Modifiers  []string `json:"modifiers,omitempty"`
	UnitPrice  int64    `json:"unit_price_cents"`
	Combo      bool     `json:"combo,omitempty"`
	LineTotal  int64    `json:"line_total_cents"`
}

// Diff describes exactly what one applied command changed in the ledger.
// Diffs are immutable once returned; the audit log stores them verbatim so a
// duplicate command can be answered without re-mutating state.
type Diff struct {
	Op      DiffOp        `json:"op"`
	LineID  string        `json:"line_id"`
	Before  *LineSnapshot `json:"before,omitempty"`
	After   *LineSnapshot `json:"after,omitempty"`
	Version int           `json:"version"`
}

// Totals is the derived money view of the ledger. Total always equals
// Subtotal plus Tax; it is computed, never stored independently, except for
// the one frozen copy taken when the order closes.
type Totals struct {
	Subtotal int64 `json:"subtotal_cents"`
	Tax      int64 `json:"tax_cents"`
	Total    int64 `json:"total_cents"`
}
