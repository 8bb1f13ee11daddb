package services

import (
	"fmt"
	"slices"
	"time"

	"drivethru/internal/core/domain/model/audit"
	"drivethru/internal/core/domain/model/command"
	"drivethru/internal/core/domain/model/kernel"
	"drivethru/internal/core/domain/model/order"
	"drivethru/internal/pkg/errs"
)

// Catalog answers menu questions during command validation. Implementations
// may serve from a cached snapshot; the pipeline tolerates a stale catalog by
// skipping re-validation of lines whose item has since disappeared.
type Catalog interface {
	Lookup(menuItemID string) (MenuItemInfo, bool)
}

// MenuItemInfo is the catalog's view of one menu item.
type MenuItemInfo struct {
	ID   string
	Name string
	// Available is false for out-of-stock or disabled items.
	Available bool
	// PriceCents is the base price; SizePriceCents overrides it per size.
	PriceCents     int64
	SizePriceCents map[string]int64
	// AllowedSizes lists the orderable sizes; empty means the item has no
	// size variants.
	AllowedSizes []string
	// AllowedModifiers lists the permitted modifiers; nil means unrestricted.
	AllowedModifiers []string
	// ComboUpchargeCents is added to the unit price of combo lines.
	ComboUpchargeCents int64
}

// BatchOutcome summarizes how a whole batch of commands ended.
type BatchOutcome int

const (
	// BatchAllSuccess means every command applied (or replayed as applied).
	BatchAllSuccess BatchOutcome = iota + 1
	// BatchPartialSuccess means some commands applied and some were rejected.
	BatchPartialSuccess
	// BatchAllFail means every command was rejected by a business rule.
	BatchAllFail
	// BatchFatal means a system error aborted the batch; no outcome of this
	// batch may be persisted.
	BatchFatal
)

// String returns the wire name of the outcome.
func (o BatchOutcome) String() string {
	switch o {
	case BatchAllSuccess:
		return "ALL_SUCCESS"
	case BatchPartialSuccess:
		return "PARTIAL_SUCCESS"
	case BatchAllFail:
		return "ALL_FAIL"
	case BatchFatal:
		return "FATAL_SYSTEM"
	default:
		return "UNKNOWN"
	}
}

// FollowUp tells the conversation layer what to do after a batch.
type FollowUp int

const (
	// FollowUpContinue keeps the conversation flowing.
	FollowUpContinue FollowUp = iota + 1
	// FollowUpAsk makes the conversation ask about the failed part.
	FollowUpAsk
	// FollowUpStop aborts the turn with an apology.
	FollowUpStop
)

// CommandResult is the outcome of one command inside a batch.
type CommandResult struct {
	Command command.Command
	Entry   audit.Entry
	// Replayed is true when the idempotency key was already in the audit log
	// and the stored outcome was returned without touching the order.
	Replayed bool
}

// Applied reports whether the command mutated the order (now or on a
// previous delivery of the same key).
func (r CommandResult) Applied() bool {
	return r.Entry.Outcome() == audit.OutcomeApplied
}

// BatchResult is the outcome of one ExecuteBatch call. Order is the post-batch
// ledger; the caller's input order is never mutated.
type BatchResult struct {
	Outcome  BatchOutcome
	Results  []CommandResult
	Order    *order.Order
	Referent *kernel.UUID
	// UnsafeChange is true when the batch touched a large share of the
	// existing lines, which should trigger a re-summary before continuing.
	UnsafeChange bool
	// FatalErr carries the system error when Outcome is BatchFatal.
	FatalErr error
}

// FollowUp derives the conversational follow-up from the batch outcome.
func (b BatchResult) FollowUp() FollowUp {
	switch b.Outcome {
	case BatchAllSuccess:
		return FollowUpContinue
	case BatchPartialSuccess, BatchAllFail:
		return FollowUpAsk
	case BatchFatal:
		return FollowUpStop
	default:
		return FollowUpStop
	}
}

// CommandPipeline applies proposed command batches to an order.
//
// Guarantees:
//   - each command either fully applies or leaves the ledger untouched; a
//     rejected command never blocks its siblings
//   - a command whose idempotency key already has an audit entry is replayed
//     from the log, never applied twice
//   - the caller's order is never mutated; the resulting ledger is returned
//     in BatchResult.Order
//   - after every applied command the ledger invariants are re-checked; a
//     violation aborts the batch as BatchFatal
type CommandPipeline struct {
	catalog              Catalog
	taxBasisPoints       int64
	unsafeChangeFraction float64
}

// NewCommandPipeline creates a pipeline over a menu catalog. taxBasisPoints
// is the tax rate in basis points; unsafeChangeFraction in (0, 1] is the
// share of existing lines a batch may touch before it is flagged unsafe.
func NewCommandPipeline(catalog Catalog, taxBasisPoints int64, unsafeChangeFraction float64) (*CommandPipeline, error) {
	if catalog == nil {
		return nil, errs.NewValueIsRequiredError("catalog")
	}
	if taxBasisPoints < 0 {
		return nil, errs.NewValueIsInvalidError("tax basis points")
	}
	if unsafeChangeFraction <= 0 || unsafeChangeFraction > 1 {
		return nil, errs.NewValueIsOutOfRangeError("unsafe change fraction", unsafeChangeFraction, 0.0, 1.0)
	}
	return &CommandPipeline{
		catalog:              catalog,
		taxBasisPoints:       taxBasisPoints,
		unsafeChangeFraction: unsafeChangeFraction,
	}, nil
}

// ExecuteBatch runs the commands in order against ord, recording every
// outcome in log. referent is the session's current "that one" line, used to
// resolve TargetLast references; the updated referent is returned in the
// result.
func (p *CommandPipeline) ExecuteBatch(
	ord *order.Order,
	log *audit.Log,
	referent *kernel.UUID,
	commands []command.Command,
	now time.Time,
) BatchResult {
	if err := ord.Validate(); err != nil {
		return BatchResult{Outcome: BatchFatal, FatalErr: err}
	}

	working := ord.Clone()
	result := BatchResult{Referent: cloneRef(referent)}
	baseline := working.LineCount()
	touched := map[string]struct{}{}

	for _, cmd := range commands {
		if err := cmd.Validate(); err != nil {
			return BatchResult{Outcome: BatchFatal, FatalErr: err}
		}

		if prior, ok := log.Lookup(cmd.IdempotencyKey()); ok {
			result.Results = append(result.Results, CommandResult{
				Command:  cmd,
				Entry:    prior,
				Replayed: true,
			})
			continue
		}

		candidate := working.Clone()
		diff, err := p.apply(candidate, cmd, result.Referent)
		if err != nil {
			ve, recoverable := order.AsValidationError(err)
			if !recoverable {
				return BatchResult{Outcome: BatchFatal, FatalErr: err}
			}
			entry, entryErr := audit.NewRejectedEntry(
				working.ID(), cmd.IdempotencyKey(), cmd.Type().String(),
				ve.Category, ve.Error(), now)
			if entryErr != nil {
				return BatchResult{Outcome: BatchFatal, FatalErr: entryErr}
			}
			log.Append(entry)
			result.Results = append(result.Results, CommandResult{Command: cmd, Entry: entry})
			continue
		}

		if invErr := candidate.CheckInvariants(p.taxBasisPoints); invErr != nil {
			return BatchResult{Outcome: BatchFatal, FatalErr: invErr}
		}

		entry, entryErr := audit.NewAppliedEntry(
			working.ID(), cmd.IdempotencyKey(), cmd.Type().String(), diff, now)
		if entryErr != nil {
			return BatchResult{Outcome: BatchFatal, FatalErr: entryErr}
		}
		log.Append(entry)

		working = candidate
		result.Results = append(result.Results, CommandResult{Command: cmd, Entry: entry})

		if cmd.Type() != command.TypeAdd {
			touched[diff.LineID] = struct{}{}
		}
		result.Referent = referentAfter(working, diff)
	}

	result.Order = working
	result.Outcome = classify(result.Results)
	result.UnsafeChange = baseline >= 2 &&
		float64(len(touched))/float64(baseline) >= p.unsafeChangeFraction
	return result
}

// apply routes one command to the aggregate, validating the payload against
// the catalog first. It returns a *order.ValidationError for every
// recoverable rejection.
func (p *CommandPipeline) apply(ord *order.Order, cmd command.Command, referent *kernel.UUID) (order.Diff, error) {
	switch cmd.Type() {
	case command.TypeAdd:
		return p.applyAdd(ord, cmd)
	case command.TypeRemove:
		lineID, err := p.resolveTarget(ord, cmd.Target(), referent)
		if err != nil {
			return order.Diff{}, err
		}
		return ord.RemoveLine(lineID)
	case command.TypeSetQuantity:
		lineID, err := p.resolveTarget(ord, cmd.Target(), referent)
		if err != nil {
			return order.Diff{}, err
		}
		return ord.SetQuantity(lineID, cmd.Payload().Quantity)
	case command.TypeChange:
		return p.applyChange(ord, cmd, referent)
	case command.TypeSetCombo:
		return p.applySetCombo(ord, cmd, referent)
	case command.TypeUnknown:
	}
	return order.Diff{}, errs.NewValueIsInvalidError("command type")
}

func (p *CommandPipeline) applyAdd(ord *order.Order, cmd command.Command) (order.Diff, error) {
	payload := cmd.Payload()

	info, ok := p.catalog.Lookup(payload.MenuItemID)
	if !ok {
		return order.Diff{}, order.NewValidationError(order.CategoryItemNotFound, "menu item",
			fmt.Errorf("%q is not on the menu", payload.MenuItemID))
	}
	if !info.Available {
		return order.Diff{}, order.NewValidationError(order.CategoryItemUnavailable, "menu item",
			fmt.Errorf("%q is currently unavailable", payload.MenuItemID))
	}
	if err := checkSize(info, payload.Size); err != nil {
		return order.Diff{}, err
	}
	if err := checkModifiers(info, payload.Modifiers); err != nil {
		return order.Diff{}, err
	}

	unitPrice, err := priceFor(info, payload.Size, payload.Combo)
	if err != nil {
		return order.Diff{}, err
	}

	return ord.AddLine(order.LineSpec{
		MenuItemID: info.ID,
		Name:       info.Name,
		Quantity:   payload.Quantity,
		Size:       payload.Size,
		Modifiers:  payload.Modifiers,
		UnitPrice:  unitPrice,
		Combo:      payload.Combo,
	})
}

func (p *CommandPipeline) applyChange(ord *order.Order, cmd command.Command, referent *kernel.UUID) (order.Diff, error) {
	lineID, err := p.resolveTarget(ord, cmd.Target(), referent)
	if err != nil {
		return order.Diff{}, err
	}
	line, ok := ord.LineByID(lineID)
	if !ok {
		return order.Diff{}, unresolved(lineID.String())
	}

	payload := cmd.Payload()
	var change order.LineChange
	if payload.Quantity > 0 {
		quantity := payload.Quantity
		change.Quantity = &quantity
	}
	if payload.Modifiers != nil {
		modifiers := payload.Modifiers
		change.Modifiers = &modifiers
	}

	size := line.Size()
	if payload.Size != "" {
		size = payload.Size
		change.Size = &size
	}

	// Re-validate and reprice against the catalog. A line whose item has
	// dropped out of a stale catalog keeps its current price.
	if info, found := p.catalog.Lookup(line.MenuItemID()); found {
		if sizeErr := checkSize(info, size); sizeErr != nil {
			return order.Diff{}, sizeErr
		}
		if payload.Modifiers != nil {
			if modErr := checkModifiers(info, payload.Modifiers); modErr != nil {
				return order.Diff{}, modErr
			}
		}
		unitPrice, priceErr := priceFor(info, size, line.IsCombo())
		if priceErr != nil {
			return order.Diff{}, priceErr
		}
		change.UnitPrice = &unitPrice
	}

	return ord.ChangeLine(lineID, change)
}

func (p *CommandPipeline) applySetCombo(ord *order.Order, cmd command.Command, referent *kernel.UUID) (order.Diff, error) {
	lineID, err := p.resolveTarget(ord, cmd.Target(), referent)
	if err != nil {
		return order.Diff{}, err
	}
	line, ok := ord.LineByID(lineID)
	if !ok {
		return order.Diff{}, unresolved(lineID.String())
	}

	combo := cmd.Payload().Combo
	change := order.LineChange{Combo: &combo}

	if info, found := p.catalog.Lookup(line.MenuItemID()); found {
		unitPrice, priceErr := priceFor(info, line.Size(), combo)
		if priceErr != nil {
			return order.Diff{}, priceErr
		}
		change.UnitPrice = &unitPrice
	}

	return ord.ChangeLine(lineID, change)
}

// resolveTarget maps a target reference to a concrete line id. Precedence is
// explicit line id, then 1-based position, then the session referent.
func (p *CommandPipeline) resolveTarget(ord *order.Order, target command.TargetRef, referent *kernel.UUID) (kernel.UUID, error) {
	if id := target.LineID(); id != nil {
		if _, ok := ord.LineByID(*id); !ok {
			return kernel.UUID{}, unresolved(id.String())
		}
		return *id, nil
	}
	if pos := target.Position(); pos > 0 {
		line, ok := ord.LineAt(pos)
		if !ok {
			return kernel.UUID{}, unresolved(fmt.Sprintf("position %d", pos))
		}
		return line.ID(), nil
	}
	if target.IsLast() {
		if referent != nil {
			if _, ok := ord.LineByID(*referent); ok {
				return *referent, nil
			}
		}
		if line, ok := ord.LastLine(); ok {
			return line.ID(), nil
		}
		return kernel.UUID{}, unresolved("last line of an empty order")
	}
	return kernel.UUID{}, unresolved("empty target")
}

func unresolved(detail string) error {
	return order.NewValidationError(order.CategoryReferentUnresolved, "target",
		fmt.Errorf("cannot resolve %s", detail))
}

func checkSize(info MenuItemInfo, size string) error {
	if size == "" {
		return nil
	}
	if !slices.Contains(info.AllowedSizes, size) {
		return order.NewValidationError(order.CategoryItemNotFound, "size",
			fmt.Errorf("%q does not come in %q", info.ID, size))
	}
	return nil
}

func checkModifiers(info MenuItemInfo, modifiers []string) error {
	if info.AllowedModifiers == nil {
		return nil
	}
	for _, m := range modifiers {
		if !slices.Contains(info.AllowedModifiers, m) {
			return order.NewValidationError(order.CategoryInvalidModifier, "modifier",
				fmt.Errorf("%q is not available for %q", m, info.ID))
		}
	}
	return nil
}

func priceFor(info MenuItemInfo, size string, combo bool) (kernel.Money, error) {
	cents := info.PriceCents
	if size != "" {
		if sized, ok := info.SizePriceCents[size]; ok {
			cents = sized
		}
	}
	if combo {
		cents += info.ComboUpchargeCents
	}
	return kernel.NewMoneyFromCents(cents)
}

// referentAfter picks the session's next referent from a diff: the touched
// line for adds and changes, the closest surviving line after a removal.
func referentAfter(ord *order.Order, diff order.Diff) *kernel.UUID {
	if diff.Op == order.DiffLineRemoved {
		line, ok := ord.LastLine()
		if !ok {
			return nil
		}
		id := line.ID()
		return &id
	}
	id, err := kernel.UUIDFromString(diff.LineID)
	if err != nil {
		return nil
	}
	return &id
}

func classify(results []CommandResult) BatchOutcome {
	applied, rejected := 0, 0
	for _, r := range results {
		if r.Applied() {
			applied++
		} else {
			rejected++
		}
	}
	if rejected == 0 {
		return BatchAllSuccess
	}
	if applied == 0 {
		return BatchAllFail
	}
	return BatchPartialSuccess
}

func cloneRef(id *kernel.UUID) *kernel.UUID {
	if id == nil {
		return nil
	}
	ref := *id
	return &ref
}
