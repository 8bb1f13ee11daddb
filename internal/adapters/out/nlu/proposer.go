// Package nlu calls the external utterance-understanding service. The engine
// never parses language itself; it sends the transcript plus conversational
// context and receives a structured proposal back.
package nlu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"drivethru/internal/core/domain/model/command"
	"drivethru/internal/core/domain/model/kernel"
	"drivethru/internal/core/domain/model/order"
	"drivethru/internal/core/ports"
	"drivethru/internal/pkg/errs"
)

const proposeTimeout = 10 * time.Second

// HTTPIntentProposer implements ports.IntentProposer against an HTTP
// understanding service.
type HTTPIntentProposer struct {
	url    string
	client *http.Client
}

// NewHTTPIntentProposer creates a proposer client for the given endpoint.
func NewHTTPIntentProposer(url string) *HTTPIntentProposer {
	return &HTTPIntentProposer{
		url:    url,
		client: &http.Client{Timeout: proposeTimeout},
	}
}

// proposeRequest is the wire form of one understanding call. The order lines
// give the service resolution context ("the burger" → line 1).
type proposeRequest struct {
	TurnKey      string               `json:"turn_key"`
	RestaurantID string               `json:"restaurant_id"`
	Utterance    string               `json:"utterance"`
	State        string               `json:"state"`
	OrderLines   []order.LineSnapshot `json:"order_lines"`
}

type proposeResponse struct {
	Intent     string        `json:"intent"`
	Confidence float64       `json:"confidence"`
	Commands   []wireCommand `json:"commands"`
}

type wireCommand struct {
	Type           string      `json:"type"`
	IdempotencyKey string      `json:"idempotency_key"`
	Confidence     float64     `json:"confidence"`
	Target         *wireTarget `json:"target,omitempty"`
	Payload        wirePayload `json:"payload"`
}

type wireTarget struct {
	LineID   string `json:"line_id,omitempty"`
	Position int    `json:"position,omitempty"`
	Last     bool   `json:"last,omitempty"`
}

type wirePayload struct {
	MenuItemID string   `json:"menu_item_id,omitempty"`
	Quantity   int      `json:"quantity,omitempty"`
	Size       string   `json:"size,omitempty"`
	Modifiers  []string `json:"modifiers,omitempty"`
	Combo      bool     `json:"combo,omitempty"`
}

// Propose sends the transcript and context to the understanding service.
func (p *HTTPIntentProposer) Propose(ctx context.Context, req ports.ProposeRequest) (ports.Proposal, error) {
	wire := proposeRequest{
		TurnKey:      req.TurnKey,
		RestaurantID: req.RestaurantID,
		Utterance:    req.Utterance,
		State:        req.State.String(),
	}
	if req.Order != nil {
		for _, line := range req.Order.Lines() {
			wire.OrderLines = append(wire.OrderLines, line.Snapshot())
		}
	}

	body, err := json.Marshal(wire)
	if err != nil {
		return ports.Proposal{}, fmt.Errorf("marshal propose request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return ports.Proposal{}, fmt.Errorf("build propose request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return ports.Proposal{}, fmt.Errorf("call understanding service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ports.Proposal{}, fmt.Errorf("understanding service returned %d", resp.StatusCode)
	}

	var decoded proposeResponse
	if err = json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return ports.Proposal{}, fmt.Errorf("decode propose response: %w", err)
	}

	return toProposal(decoded)
}

func toProposal(wire proposeResponse) (ports.Proposal, error) {
	intent, err := intentFromString(wire.Intent)
	if err != nil {
		return ports.Proposal{}, err
	}

	commands := make([]command.Command, 0, len(wire.Commands))
	for _, wc := range wire.Commands {
		cmd, cmdErr := toCommand(wc)
		if cmdErr != nil {
			return ports.Proposal{}, cmdErr
		}
		commands = append(commands, cmd)
	}

	return ports.Proposal{
		Intent:     intent,
		Commands:   commands,
		Confidence: wire.Confidence,
	}, nil
}

func toCommand(wire wireCommand) (command.Command, error) {
	commandType, err := command.TypeFromString(wire.Type)
	if err != nil {
		return command.Command{}, err
	}

	var target command.TargetRef
	if wire.Target != nil {
		target, err = toTarget(*wire.Target)
		if err != nil {
			return command.Command{}, err
		}
	}

	return command.NewCommand(
		commandType,
		target,
		command.Payload{
			MenuItemID: wire.Payload.MenuItemID,
			Quantity:   wire.Payload.Quantity,
			Size:       wire.Payload.Size,
			Modifiers:  wire.Payload.Modifiers,
			Combo:      wire.Payload.Combo,
		},
		wire.Confidence,
		wire.IdempotencyKey,
	)
}

func toTarget(wire wireTarget) (command.TargetRef, error) {
	switch {
	case wire.LineID != "":
		lineID, err := kernel.UUIDFromString(wire.LineID)
		if err != nil {
			return command.TargetRef{}, err
		}
		return command.TargetLine(lineID)
	case wire.Position > 0:
		return command.TargetPosition(wire.Position)
	case wire.Last:
		return command.TargetLast(), nil
	default:
		return command.TargetRef{}, nil
	}
}

func intentFromString(s string) (ports.Intent, error) {
	intents := map[string]ports.Intent{
		"ORDER":         ports.IntentOrder,
		"DONE":          ports.IntentDone,
		"NEED_TIME":     ports.IntentNeedTime,
		"NEVER_MIND":    ports.IntentNeverMind,
		"CONFIRM":       ports.IntentConfirm,
		"WANTS_CHANGES": ports.IntentWantsChanges,
		"NOT_RIGHT":     ports.IntentNotRight,
		"MENU_QUESTION": ports.IntentMenuQuestion,
		"RESUME":        ports.IntentResume,
		"UNCLEAR":       ports.IntentUnclear,
	}

	intent, ok := intents[s]
	if !ok {
		return ports.IntentUnknown, errs.NewValueIsInvalidErrorWithCause("intent",
			fmt.Errorf("%q is not a known intent", s))
	}
	return intent, nil
}
