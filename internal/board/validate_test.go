package board

import (
	"encoding/json"
	"strings"
	"testing"
)

// TestDefaultDocumentIsValid tests that the seeded template passes every check
func TestDefaultDocumentIsValid(t *testing.T) {
	doc := DefaultDocument()

	if !ValidColumns(doc) {
		t.Error("Expected default document to have valid columns")
	}
	if !ValidFixedColumns(doc, FixedColumnIDs()) {
		t.Error("Expected default document to match the fixed column list")
	}
	if !ValidCardRefs(doc) {
		t.Error("Expected default document to have consistent card references")
	}
	if err := CheckBounds(doc); err != nil {
		t.Errorf("Expected default document to be within bounds: %v", err)
	}
}

// TestDefaultDocumentIsIndependent tests that successive templates share no state
func TestDefaultDocumentIsIndependent(t *testing.T) {
	a := DefaultDocument()
	b := DefaultDocument()

	a.Columns[0].CardIDs = append(a.Columns[0].CardIDs, "card-x")
	a.Cards["card-x"] = Card{ID: "card-x", Title: "mutation check", Details: "added after construction"}

	if len(b.Columns[0].CardIDs) == len(a.Columns[0].CardIDs) {
		t.Error("Expected template column mutation not to leak between calls")
	}
	if _, ok := b.Cards["card-x"]; ok {
		t.Error("Expected template card mutation not to leak between calls")
	}
}

func TestValidColumns(t *testing.T) {
	tests := []struct {
		name string
		doc  *Document
		want bool
	}{
		{"nil document", nil, false},
		{"no columns", &Document{}, false},
		{"empty id", &Document{Columns: []Column{{ID: ""}}}, false},
		{"duplicate ids", &Document{Columns: []Column{{ID: "a"}, {ID: "a"}}}, false},
		{"single column", &Document{Columns: []Column{{ID: "a"}}}, true},
		{"distinct ids", &Document{Columns: []Column{{ID: "a"}, {ID: "b"}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidColumns(tt.doc); got != tt.want {
				t.Errorf("ValidColumns() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidFixedColumns(t *testing.T) {
	want := FixedColumnIDs()

	doc := DefaultDocument()
	if !ValidFixedColumns(doc, want) {
		t.Error("Expected exact column list to pass")
	}

	// Reordering fails even when the set matches
	reordered := DefaultDocument()
	reordered.Columns[0], reordered.Columns[1] = reordered.Columns[1], reordered.Columns[0]
	if ValidFixedColumns(reordered, want) {
		t.Error("Expected reordered columns to fail the fixed check")
	}

	// An extra column fails
	extra := DefaultDocument()
	extra.Columns = append(extra.Columns, Column{ID: "col-extra", Title: "Extra"})
	if ValidFixedColumns(extra, want) {
		t.Error("Expected extra column to fail the fixed check")
	}

	if ValidFixedColumns(nil, want) {
		t.Error("Expected nil document to fail the fixed check")
	}
}

func TestValidColumnsFor(t *testing.T) {
	flexible := &Document{Columns: []Column{{ID: "anything"}}, Cards: map[string]Card{}}

	if !ValidColumnsFor(flexible, TopologyFlexible) {
		t.Error("Expected arbitrary column to pass the flexible policy")
	}
	if ValidColumnsFor(flexible, TopologyFixed) {
		t.Error("Expected arbitrary column to fail the fixed policy")
	}
	if !ValidColumnsFor(DefaultDocument(), TopologyFixed) {
		t.Error("Expected template columns to pass the fixed policy")
	}
}

func TestValidCardRefs(t *testing.T) {
	base := func() *Document {
		return &Document{
			Columns: []Column{
				{ID: "a", CardIDs: []string{"c1"}},
				{ID: "b", CardIDs: []string{"c2"}},
			},
			Cards: map[string]Card{
				"c1": {ID: "c1", Title: "one"},
				"c2": {ID: "c2", Title: "two"},
			},
		}
	}

	if !ValidCardRefs(base()) {
		t.Error("Expected consistent references to pass")
	}

	// Dangling reference
	dangling := base()
	dangling.Columns[0].CardIDs = append(dangling.Columns[0].CardIDs, "ghost")
	if ValidCardRefs(dangling) {
		t.Error("Expected dangling reference to fail")
	}

	// Orphaned card
	orphan := base()
	orphan.Cards["c3"] = Card{ID: "c3", Title: "three"}
	if ValidCardRefs(orphan) {
		t.Error("Expected orphaned card to fail")
	}

	// Same card referenced twice
	dup := base()
	dup.Columns[1].CardIDs = append(dup.Columns[1].CardIDs, "c1")
	if ValidCardRefs(dup) {
		t.Error("Expected duplicate reference to fail")
	}

	if ValidCardRefs(nil) {
		t.Error("Expected nil document to fail")
	}
}

// TestParseDocument tests strict decoding of board payloads
func TestParseDocument(t *testing.T) {
	raw, err := json.Marshal(DefaultDocument())
	if err != nil {
		t.Fatalf("Failed to marshal template: %v", err)
	}

	doc, err := ParseDocument(raw)
	if err != nil {
		t.Fatalf("Failed to parse template round trip: %v", err)
	}
	if !ValidCardRefs(doc) {
		t.Error("Expected parsed template to keep consistent references")
	}

	if _, err := ParseDocument([]byte(`{"columns": "nope"}`)); err == nil {
		t.Error("Expected type mismatch to fail")
	}
	if _, err := ParseDocument([]byte(`not json`)); err == nil {
		t.Error("Expected malformed payload to fail")
	}

	// Omitting the cards key is the same as an empty card map
	bare, err := ParseDocument([]byte(`{"columns": [{"id": "a", "title": "A", "cardIds": []}]}`))
	if err != nil {
		t.Fatalf("Failed to parse payload without cards key: %v", err)
	}
	if bare.Cards == nil {
		t.Error("Expected omitted cards key to normalize to an empty map")
	}
	if !ValidCardRefs(bare) {
		t.Error("Expected card-free document to keep consistent references")
	}

	// An empty details string is rejected end to end, not just by CheckBounds
	blank := DefaultDocument()
	card := blank.Cards["card-1"]
	card.Details = ""
	blank.Cards["card-1"] = card
	raw, err = json.Marshal(blank)
	if err != nil {
		t.Fatalf("Failed to marshal document: %v", err)
	}
	if _, err := ParseDocument(raw); err == nil {
		t.Error("Expected empty card details to fail parsing")
	}
}

// TestCheckBounds tests the size and format limits
func TestCheckBounds(t *testing.T) {
	doc := DefaultDocument()
	if err := CheckBounds(doc); err != nil {
		t.Fatalf("Expected template within bounds: %v", err)
	}

	// Title too long
	long := DefaultDocument()
	card := long.Cards["card-1"]
	card.Title = strings.Repeat("x", MaxTitleLength+1)
	long.Cards["card-1"] = card
	if err := CheckBounds(long); err == nil {
		t.Error("Expected oversized title to fail bounds")
	}

	// Card key must match the card id
	mismatch := DefaultDocument()
	card = mismatch.Cards["card-1"]
	card.ID = "card-other"
	mismatch.Cards["card-1"] = card
	if err := CheckBounds(mismatch); err == nil {
		t.Error("Expected mismatched card key to fail bounds")
	}

	// Bad due date format
	badDate := DefaultDocument()
	card = badDate.Cards["card-1"]
	card.DueDate = "tomorrow"
	badDate.Cards["card-1"] = card
	if err := CheckBounds(badDate); err == nil {
		t.Error("Expected malformed due date to fail bounds")
	}

	// Unknown priority
	badPriority := DefaultDocument()
	card = badPriority.Cards["card-1"]
	card.Priority = "critical"
	badPriority.Cards["card-1"] = card
	if err := CheckBounds(badPriority); err == nil {
		t.Error("Expected unknown priority to fail bounds")
	}

	// Details must be present
	noDetails := DefaultDocument()
	card = noDetails.Cards["card-1"]
	card.Details = ""
	noDetails.Cards["card-1"] = card
	if err := CheckBounds(noDetails); err == nil {
		t.Error("Expected empty card details to fail bounds")
	}
}
