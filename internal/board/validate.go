package board

// Topology selects the column-shape policy for a deployment. The two
// policies are materially different and are never merged: applying the
// fixed check to data created under the flexible one would spuriously
// reject valid boards.
type Topology string

const (
	// TopologyFixed pins the exact ordered column id list of the default
	// template. Card contents still move freely between columns.
	TopologyFixed Topology = "fixed"
	// TopologyFlexible only requires at least one column with unique,
	// non-empty ids.
	TopologyFlexible Topology = "flexible"
)

// ValidColumns reports whether the document has a non-empty column list with
// non-empty, pairwise-distinct ids. Total: malformed input yields false.
func ValidColumns(doc *Document) bool {
	if doc == nil || len(doc.Columns) == 0 {
		return false
	}

	seen := make(map[string]struct{}, len(doc.Columns))
	for _, col := range doc.Columns {
		if col.ID == "" {
			return false
		}
		if _, dup := seen[col.ID]; dup {
			return false
		}
		seen[col.ID] = struct{}{}
	}

	return true
}

// ValidFixedColumns reports whether the document's column id sequence equals
// want exactly, same order.
func ValidFixedColumns(doc *Document, want []string) bool {
	if doc == nil || len(doc.Columns) != len(want) {
		return false
	}

	for i, col := range doc.Columns {
		if col.ID != want[i] {
			return false
		}
	}

	return true
}

// ValidColumnsFor applies the column-shape check selected by the topology
func ValidColumnsFor(doc *Document, topology Topology) bool {
	if topology == TopologyFixed {
		return ValidFixedColumns(doc, FixedColumnIDs())
	}
	return ValidColumns(doc)
}

// ValidCardRefs reports whether the card ids referenced across columns are
// exactly the key set of Cards: every reference resolves, no card is
// orphaned, and no card id appears twice within or across columns.
// Total: malformed input yields false.
func ValidCardRefs(doc *Document) bool {
	if doc == nil || doc.Cards == nil {
		return false
	}

	referenced := make(map[string]struct{})
	for _, col := range doc.Columns {
		for _, cardID := range col.CardIDs {
			if _, exists := doc.Cards[cardID]; !exists {
				return false // dangling reference
			}
			if _, dup := referenced[cardID]; dup {
				return false // duplicate within or across columns
			}
			referenced[cardID] = struct{}{}
		}
	}

	// Every stored card must be referenced by exactly one column
	return len(referenced) == len(doc.Cards)
}
