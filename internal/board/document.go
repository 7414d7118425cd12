// document.go
//
// An AI-assisted project board service for the jam-build platform
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of jam-board.
// jam-board is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// jam-board is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with jam-board.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package board

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/localnerve/jam-board/internal/types"
)

// Field bounds for board documents
const (
	MaxIDLength       = 100
	MaxTitleLength    = 200
	MaxDetailsLength  = 2000
	MaxColumns        = 10
	MaxCardsPerColumn = 100
	MaxLabels         = 10
	MaxLabelLength    = 40
)

// Card priorities accepted on the optional priority field
var validPriorities = map[string]struct{}{
	"low":    {},
	"medium": {},
	"high":   {},
	"urgent": {},
}

// Card is a single work item. Cards are addressed only through a column's
// cardIds list; a card absent from every list violates referential integrity.
type Card struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Details  string `json:"details"`
	Priority string `json:"priority,omitempty"`
	DueDate  string `json:"dueDate,omitempty"`
	// Completion models emit both a bare string and an array here
	Labels types.FlexList[string] `json:"labels,omitempty"`
}

// Column is an ordered lane of card ids with a stable identifier
type Column struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	CardIDs []string `json:"cardIds"`
}

// Document is the root board document a user edits
type Document struct {
	Columns []Column        `json:"columns"`
	Cards   map[string]Card `json:"cards"`
}

// ParseDocument decodes untrusted JSON into a Document, enforcing the field
// bounds above. It is the only path by which caller-submitted or AI-proposed
// board payloads become canonical documents. Structural invariants (column
// topology, card references) are checked separately by the validators.
func ParseDocument(raw []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("board document is not valid JSON: %w", err)
	}

	// A payload may omit the cards key entirely; treat that as no cards
	if doc.Cards == nil {
		doc.Cards = map[string]Card{}
	}

	if err := CheckBounds(&doc); err != nil {
		return nil, err
	}

	return &doc, nil
}

// CheckBounds verifies the per-field size limits of a decoded document
func CheckBounds(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("board document is empty")
	}

	if len(doc.Columns) > MaxColumns {
		return fmt.Errorf("board has %d columns, limit is %d", len(doc.Columns), MaxColumns)
	}

	for _, col := range doc.Columns {
		if err := checkStringBounds("column id", col.ID, MaxIDLength); err != nil {
			return err
		}
		if err := checkStringBounds("column title", col.Title, MaxTitleLength); err != nil {
			return err
		}
		if len(col.CardIDs) > MaxCardsPerColumn {
			return fmt.Errorf("column %q has %d cards, limit is %d", col.ID, len(col.CardIDs), MaxCardsPerColumn)
		}
	}

	for key, card := range doc.Cards {
		if err := checkStringBounds("card id", card.ID, MaxIDLength); err != nil {
			return err
		}
		if key != card.ID {
			return fmt.Errorf("card key %q does not match card id %q", key, card.ID)
		}
		if err := checkStringBounds("card title", card.Title, MaxTitleLength); err != nil {
			return err
		}
		if err := checkStringBounds("card details", card.Details, MaxDetailsLength); err != nil {
			return err
		}
		if card.Priority != "" {
			if _, ok := validPriorities[card.Priority]; !ok {
				return fmt.Errorf("card %q has unknown priority %q", card.ID, card.Priority)
			}
		}
		if card.DueDate != "" {
			if _, err := time.Parse("2006-01-02", card.DueDate); err != nil {
				return fmt.Errorf("card %q has invalid due date %q", card.ID, card.DueDate)
			}
		}
		if len(card.Labels) > MaxLabels {
			return fmt.Errorf("card %q has %d labels, limit is %d", card.ID, len(card.Labels), MaxLabels)
		}
		for _, label := range card.Labels {
			if err := checkStringBounds("card label", label, MaxLabelLength); err != nil {
				return err
			}
		}
	}

	return nil
}

func checkStringBounds(field, value string, max int) error {
	if value == "" {
		return fmt.Errorf("%s must not be empty", field)
	}
	if len(value) > max {
		return fmt.Errorf("%s exceeds %d characters", field, max)
	}
	return nil
}
