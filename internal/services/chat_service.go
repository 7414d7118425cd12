package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/localnerve/jam-board/internal/ai"
	"github.com/localnerve/jam-board/internal/board"
	"github.com/localnerve/jam-board/internal/models"
	"gorm.io/gorm"
)

// Chat pipeline failures beyond the gateway's own taxonomy
var (
	// ErrBadUpstreamShape: the assistant returned valid JSON that fails the
	// required response schema or the board invariants. Never applied.
	ErrBadUpstreamShape = errors.New("assistant response failed validation")
	// ErrBoardCorrupted: the stored board no longer satisfies the pinned
	// topology, so no AI replacement may be applied on top of it.
	ErrBoardCorrupted = errors.New("stored board is invalid; reset it before applying assistant updates")
)

// ChatService runs one chat turn against a board: load, gather context,
// generate, parse, persist the exchange, validate, and apply under the same
// compare-and-swap protocol as a direct user edit. Single attempt, no
// retries; every failure is terminal for the request and the caller decides
// whether to resubmit.
type ChatService struct {
	DB           *gorm.DB
	AI           ai.Completer
	Topology     board.Topology
	HistoryLimit int
	MaxMessages  int
}

// ChatResult is the outcome of a successful chat turn
type ChatResult struct {
	AssistantMessage string
	AppliedBoard     *board.Document // nil when the turn proposed no update
	NewVersion       uint64          // 0 when no update was applied
}

// Converse executes the chat pipeline for one user message.
//
// The user and assistant messages are persisted once the assistant's reply
// has parsed, before the proposed board is validated or applied: history
// records the exchange even when the proposal is rejected or loses the
// version race. Failures before that point persist nothing.
func (s *ChatService) Converse(ctx context.Context, userID, boardID, message string) (*ChatResult, error) {
	// Load
	record, err := GetBoard(s.DB, userID, boardID)
	if err != nil {
		return nil, err
	}
	versionAtLoad := record.DocumentVersion

	boardJSON, err := record.Document.MarshalJSON()
	if err != nil {
		return nil, err
	}

	// Context
	rows, err := ListChatMessages(s.DB, userID, boardID, s.HistoryLimit)
	if err != nil {
		return nil, err
	}
	history := make([]ai.Message, 0, len(rows))
	for _, row := range rows {
		history = append(history, ai.Message{Role: row.Role, Content: row.Content})
	}

	// Generate
	raw, err := s.AI.CompleteStructured(ctx, boardJSON, message, history)
	if err != nil {
		return nil, err
	}

	// Parse
	assistantMessage, proposed, err := parseAssistantResponse(raw)
	if err != nil {
		return nil, err
	}

	// Persist the exchange
	if err := AppendChatMessage(s.DB, userID, boardID, models.RoleUser, message, s.MaxMessages); err != nil {
		return nil, err
	}
	if err := AppendChatMessage(s.DB, userID, boardID, models.RoleAssistant, assistantMessage, s.MaxMessages); err != nil {
		return nil, err
	}

	if proposed == nil {
		return &ChatResult{AssistantMessage: assistantMessage}, nil
	}

	// Validate
	if !board.ValidColumnsFor(proposed, s.Topology) {
		return nil, fmt.Errorf("%w: proposed board violates the column policy", ErrBadUpstreamShape)
	}
	if !board.ValidCardRefs(proposed) {
		return nil, fmt.Errorf("%w: proposed board has inconsistent card references", ErrBadUpstreamShape)
	}
	if s.Topology == board.TopologyFixed {
		current, err := DecodeDocument(record)
		if err != nil || !board.ValidFixedColumns(current, board.FixedColumnIDs()) {
			return nil, ErrBoardCorrupted
		}
	}

	// Apply
	newVersion, err := CompareAndSwapBoard(s.DB, userID, boardID, proposed, versionAtLoad)
	if err != nil {
		// E_VERSION propagates; the persisted exchange remains
		return nil, err
	}

	return &ChatResult{
		AssistantMessage: assistantMessage,
		AppliedBoard:     proposed,
		NewVersion:       newVersion,
	}, nil
}

// parseAssistantResponse validates the loosely-shaped JSON object from the
// gateway into a trimmed assistant message and an optional canonical board.
// The raw object is never passed through beyond this point.
func parseAssistantResponse(raw map[string]interface{}) (string, *board.Document, error) {
	messageValue, ok := raw["assistant_message"].(string)
	if !ok || strings.TrimSpace(messageValue) == "" {
		return "", nil, fmt.Errorf("%w: missing required assistant_message", ErrBadUpstreamShape)
	}
	assistantMessage := strings.TrimSpace(messageValue)

	updateValue, present := raw["board_update"]
	if !present || updateValue == nil {
		return assistantMessage, nil, nil
	}

	update, ok := updateValue.(map[string]interface{})
	if !ok {
		return "", nil, fmt.Errorf("%w: board_update must be an object", ErrBadUpstreamShape)
	}

	boardValue, ok := update["board"]
	if !ok || boardValue == nil {
		return "", nil, fmt.Errorf("%w: board_update must include board", ErrBadUpstreamShape)
	}

	encoded, err := json.Marshal(boardValue)
	if err != nil {
		return "", nil, fmt.Errorf("%w: board payload is not encodable", ErrBadUpstreamShape)
	}

	proposed, err := board.ParseDocument(encoded)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrBadUpstreamShape, err)
	}

	return assistantMessage, proposed, nil
}
