package board

// FixedColumnIDs is the pinned column topology used when BOARD_TOPOLOGY is
// "fixed": the set and order of columns cannot be altered by any writer,
// including the AI.
func FixedColumnIDs() []string {
	return []string{"col-backlog", "col-discovery", "col-progress", "col-review", "col-done"}
}

// DefaultDocument returns the seeded board template for new boards.
// Every call constructs fresh values so no caller can alias the template's
// nested slices or maps.
func DefaultDocument() *Document {
	cards := []Card{
		{ID: "card-1", Title: "Align roadmap themes", Details: "Draft quarterly themes with impact statements and metrics."},
		{ID: "card-2", Title: "Gather customer signals", Details: "Review support tags, sales notes, and churn feedback."},
		{ID: "card-3", Title: "Prototype analytics view", Details: "Sketch initial dashboard layout and key drill-downs."},
		{ID: "card-4", Title: "Refine status language", Details: "Standardize column labels and tone across the board."},
		{ID: "card-5", Title: "Design card layout", Details: "Add hierarchy and spacing for scanning dense lists."},
		{ID: "card-6", Title: "QA micro-interactions", Details: "Verify hover, focus, and loading states."},
		{ID: "card-7", Title: "Ship marketing page", Details: "Final copy approved and asset pack delivered."},
		{ID: "card-8", Title: "Close onboarding sprint", Details: "Document release notes and share internally."},
	}

	doc := &Document{
		Columns: []Column{
			{ID: "col-backlog", Title: "Backlog", CardIDs: []string{"card-1", "card-2"}},
			{ID: "col-discovery", Title: "Discovery", CardIDs: []string{"card-3"}},
			{ID: "col-progress", Title: "In Progress", CardIDs: []string{"card-4", "card-5"}},
			{ID: "col-review", Title: "Review", CardIDs: []string{"card-6"}},
			{ID: "col-done", Title: "Done", CardIDs: []string{"card-7", "card-8"}},
		},
		Cards: make(map[string]Card, len(cards)),
	}

	for _, card := range cards {
		doc.Cards[card.ID] = card
	}

	return doc
}
