package commands_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"drivethru/internal/config"
	"drivethru/internal/core/application/usecases/commands"
	"drivethru/internal/core/domain/model/command"
	"drivethru/internal/core/domain/model/kernel"
	"drivethru/internal/core/domain/model/session"
	"drivethru/internal/core/domain/services"
	"drivethru/internal/core/ports"
	"drivethru/internal/responder"
	"drivethru/internal/turn"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type turnFixture struct {
	store    *memStore
	kitchen  *recordingKitchen
	proposer *stubProposer
	handler  commands.RunTurnCommandHandler
	starter  commands.StartSessionCommandHandler
	ender    commands.EndSessionCommandHandler
	turns    *turn.Registry
}

func newTurnFixture(t *testing.T) *turnFixture {
	t.Helper()

	catalog := stubCatalog{
		"burger-01": {
			ID: "burger-01", Name: "Classic Burger", Available: true,
			PriceCents:         599,
			SizePriceCents:     map[string]int64{"large": 749},
			AllowedSizes:       []string{"regular", "large"},
			AllowedModifiers:   []string{"no onions", "extra cheese"},
			ComboUpchargeCents: 250,
		},
		"fries-01": {ID: "fries-01", Name: "Fries", Available: true, PriceCents: 299},
		"shake-01": {ID: "shake-01", Name: "Vanilla Shake", Available: false, PriceCents: 399},
	}

	f := &turnFixture{
		store:    newMemStore(),
		kitchen:  &recordingKitchen{},
		proposer: &stubProposer{proposals: map[string]ports.Proposal{}},
		turns:    turn.NewRegistry(),
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	policies := config.NewDefaultPolicyFile()
	phrases := responder.New()

	f.handler = commands.NewRunTurnCommandHandler(
		&memUoWFactory{f.store},
		commands.RunTurnDependencies{
			Turns:       f.turns,
			Transcriber: &stubTranscriber{err: ports.ErrNoSpeechDetected},
			Proposer:    f.proposer,
			Menu:        &stubMenu{catalog: catalog},
			Synthesizer: stubSynthesizer{},
			Kitchen:     f.kitchen,
			Policies:    policies,
			Phrases:     phrases,
			Logger:      logger,
		})
	f.starter = commands.NewStartSessionCommandHandler(&memUoWFactory{f.store}, policies, phrases)
	f.ender = commands.NewEndSessionCommandHandler(&memSessionUoWFactory{f.store}, f.turns)
	return f
}

func (f *turnFixture) startSession(t *testing.T) kernel.UUID {
	t.Helper()
	id := kernel.NewUUID()
	cmd, err := commands.NewStartSessionCommand(id, "rest-001", "lane-1")
	require.NoError(t, err)
	res, err := f.starter.Handle(context.Background(), cmd)
	require.NoError(t, err)
	require.Equal(t, "Ordering", res.State)
	require.NotEmpty(t, res.Greeting)
	return id
}

func (f *turnFixture) script(utterance string, proposal ports.Proposal) {
	f.proposer.proposals[utterance] = proposal
}

func (f *turnFixture) turnText(t *testing.T, sessionID kernel.UUID, key, utterance string) commands.RunTurnResult {
	t.Helper()
	cmd, err := commands.NewRunTurnCommand(sessionID, key, utterance, nil)
	require.NoError(t, err)
	res, err := f.handler.Handle(context.Background(), cmd)
	require.NoError(t, err)
	return res
}

func orderProposal(t *testing.T, confidence float64, cmds ...command.Command) ports.Proposal {
	t.Helper()
	return ports.Proposal{Intent: ports.IntentOrder, Commands: cmds, Confidence: confidence}
}

func addCmd(t *testing.T, key, item string, quantity int) command.Command {
	t.Helper()
	c, err := command.NewCommand(command.TypeAdd, command.TargetRef{},
		command.Payload{MenuItemID: item, Quantity: quantity}, 0.9, key)
	require.NoError(t, err)
	return c
}

func TestRunTurnCommandHandler_Handle(t *testing.T) {
	t.Run("should add items and keep ordering", func(t *testing.T) {
		f := newTurnFixture(t)
		sessionID := f.startSession(t)
		f.script("two burgers", orderProposal(t, 0.95, addCmd(t, "t1:0", "burger-01", 2)))

		res := f.turnText(t, sessionID, "t1", "two burgers")

		assert.Equal(t, "Ordering", res.State)
		assert.Equal(t, "ALL_SUCCESS", res.Outcome)
		require.Len(t, res.Diffs, 1)
		assert.Equal(t, int64(1198), res.Totals.Subtotal)
		assert.NotEmpty(t, res.ReplyAudio)
		assert.False(t, res.Finalized)
	})

	t.Run("should replay a retried turn without duplicating items", func(t *testing.T) {
		f := newTurnFixture(t)
		sessionID := f.startSession(t)
		f.script("two burgers", orderProposal(t, 0.95, addCmd(t, "t1:0", "burger-01", 2)))

		first := f.turnText(t, sessionID, "t1", "two burgers")
		second := f.turnText(t, sessionID, "t1", "two burgers")

		assert.Equal(t, first.Totals, second.Totals)
		assert.Equal(t, "ALL_SUCCESS", second.Outcome)
		sess := f.store.sessions[sessionID.String()]
		ord := f.store.orders[sess.OrderID().String()]
		assert.Equal(t, 1, ord.LineCount())
		assert.Equal(t, 1, ord.Version())
	})

	t.Run("should summarize on done and finalize on confirmation", func(t *testing.T) {
		f := newTurnFixture(t)
		sessionID := f.startSession(t)
		f.script("two burgers", orderProposal(t, 0.95, addCmd(t, "t1:0", "burger-01", 2)))
		f.script("that's all", ports.Proposal{Intent: ports.IntentDone, Confidence: 0.95})
		f.script("yes", ports.Proposal{Intent: ports.IntentConfirm, Confidence: 0.95})

		f.turnText(t, sessionID, "t1", "two burgers")

		summary := f.turnText(t, sessionID, "t2", "that's all")
		assert.Equal(t, "Confirming", summary.State)
		assert.Contains(t, summary.Reply, "Is that right?")

		confirmed := f.turnText(t, sessionID, "t3", "yes")
		assert.Equal(t, "Closing", confirmed.State)
		assert.True(t, confirmed.Finalized)
		assert.Contains(t, confirmed.Reply, "pull forward")

		sess := f.store.sessions[sessionID.String()]
		ord := f.store.orders[sess.OrderID().String()]
		assert.True(t, ord.IsFrozen())

		require.Len(t, f.kitchen.tickets, 1)
		ticket := f.kitchen.tickets[0]
		assert.Equal(t, ord.ID().String(), ticket.OrderID)
		require.Len(t, ticket.Lines, 1)
		assert.Equal(t, confirmed.Totals.Total, ticket.Totals.TotalCents)
	})

	t.Run("should nudge on silence without mutating anything", func(t *testing.T) {
		f := newTurnFixture(t)
		sessionID := f.startSession(t)
		f.script("two burgers", orderProposal(t, 0.95, addCmd(t, "t1:0", "burger-01", 2)))
		f.turnText(t, sessionID, "t1", "two burgers")

		cmd, err := commands.NewRunTurnCommand(sessionID, "t2", "", []byte{0})
		require.NoError(t, err)
		res, err := f.handler.Handle(context.Background(), cmd)

		require.NoError(t, err)
		assert.Equal(t, "Ordering", res.State)
		assert.Equal(t, "nudge", res.Action)
		assert.Empty(t, res.Outcome)
	})

	t.Run("should ask instead of applying a low-confidence proposal", func(t *testing.T) {
		f := newTurnFixture(t)
		sessionID := f.startSession(t)
		f.script("mumble", orderProposal(t, 0.4, addCmd(t, "t1:0", "burger-01", 2)))

		res := f.turnText(t, sessionID, "t1", "mumble")

		assert.Equal(t, "Clarifying", res.State)
		sess := f.store.sessions[sessionID.String()]
		ord := f.store.orders[sess.OrderID().String()]
		assert.True(t, ord.IsEmpty())
	})

	t.Run("should propose an alternative for an unavailable item", func(t *testing.T) {
		f := newTurnFixture(t)
		sessionID := f.startSession(t)
		f.script("a shake", orderProposal(t, 0.95, addCmd(t, "t1:0", "shake-01", 1)))

		res := f.turnText(t, sessionID, "t1", "a shake")

		assert.Equal(t, "Clarifying", res.State)
		assert.Equal(t, "ALL_FAIL", res.Outcome)
		assert.Contains(t, res.Reply, "Vanilla Shake")
	})

	t.Run("should ask about the rejected part of a mixed batch", func(t *testing.T) {
		f := newTurnFixture(t)
		sessionID := f.startSession(t)
		f.script("a burger and a soda", orderProposal(t, 0.95,
			addCmd(t, "t1:0", "burger-01", 1),
			addCmd(t, "t1:1", "soda-99", 1)))

		res := f.turnText(t, sessionID, "t1", "a burger and a soda")

		assert.Equal(t, "Clarifying", res.State)
		assert.Equal(t, "PARTIAL_SUCCESS", res.Outcome)
		sess := f.store.sessions[sessionID.String()]
		ord := f.store.orders[sess.OrderID().String()]
		assert.Equal(t, 1, ord.LineCount())
	})

	t.Run("should hold back a doubtful command and ask", func(t *testing.T) {
		f := newTurnFixture(t)
		sessionID := f.startSession(t)
		doubtful, err := command.NewCommand(command.TypeAdd, command.TargetRef{},
			command.Payload{MenuItemID: "burger-01", Quantity: 2}, 0.05, "t1:0")
		require.NoError(t, err)
		f.script("uh maybe two burgers", orderProposal(t, 0.95, doubtful))

		res := f.turnText(t, sessionID, "t1", "uh maybe two burgers")

		assert.Equal(t, "Clarifying", res.State)
		sess := f.store.sessions[sessionID.String()]
		ord := f.store.orders[sess.OrderID().String()]
		assert.True(t, ord.IsEmpty())
	})

	t.Run("should apply confident commands but still ask about a doubtful sibling", func(t *testing.T) {
		f := newTurnFixture(t)
		sessionID := f.startSession(t)
		doubtful, err := command.NewCommand(command.TypeAdd, command.TargetRef{},
			command.Payload{MenuItemID: "burger-01", Quantity: 2}, 0.05, "t1:1")
		require.NoError(t, err)
		f.script("fries and maybe burgers", orderProposal(t, 0.95,
			addCmd(t, "t1:0", "fries-01", 1), doubtful))

		res := f.turnText(t, sessionID, "t1", "fries and maybe burgers")

		assert.Equal(t, "Clarifying", res.State)
		sess := f.store.sessions[sessionID.String()]
		ord := f.store.orders[sess.OrderID().String()]
		assert.Equal(t, 1, ord.LineCount())
	})

	t.Run("should skip the order write for an all-rejected batch", func(t *testing.T) {
		f := newTurnFixture(t)
		sessionID := f.startSession(t)
		f.script("a soda", orderProposal(t, 0.95, addCmd(t, "t1:0", "soda-99", 1)))

		res := f.turnText(t, sessionID, "t1", "a soda")

		assert.Equal(t, "Clarifying", res.State)
		assert.Equal(t, "ALL_FAIL", res.Outcome)
		assert.Zero(t, f.store.orderUpdates)
		sess := f.store.sessions[sessionID.String()]
		assert.Len(t, f.store.entries[sess.OrderID().String()], 1)
	})

	t.Run("should resolve a clarification with a clean batch", func(t *testing.T) {
		f := newTurnFixture(t)
		sessionID := f.startSession(t)
		f.script("a burger", orderProposal(t, 0.95, addCmd(t, "t2:0", "burger-01", 1)))

		first := f.turnText(t, sessionID, "t1", "gibberish")
		require.Equal(t, "Clarifying", first.State)

		res := f.turnText(t, sessionID, "t2", "a burger")

		assert.Equal(t, "Ordering", res.State)
		assert.Equal(t, "apply_pending", res.Action)
		sess := f.store.sessions[sessionID.String()]
		assert.Zero(t, sess.ClarifyAttempts())
	})

	t.Run("should release the lane on the handoff acknowledgment", func(t *testing.T) {
		f := newTurnFixture(t)
		sessionID := f.startSession(t)
		f.script("two burgers", orderProposal(t, 0.95, addCmd(t, "t1:0", "burger-01", 2)))
		f.script("that's all", ports.Proposal{Intent: ports.IntentDone, Confidence: 0.95})
		f.script("yes", ports.Proposal{Intent: ports.IntentConfirm, Confidence: 0.95})
		f.script("thanks", ports.Proposal{Intent: ports.IntentConfirm, Confidence: 0.95})

		f.turnText(t, sessionID, "t1", "two burgers")
		f.turnText(t, sessionID, "t2", "that's all")
		f.turnText(t, sessionID, "t3", "yes")

		res := f.turnText(t, sessionID, "t4", "thanks")

		assert.Equal(t, "Idle", res.State)
		assert.Equal(t, "release", res.Action)
		assert.True(t, res.SessionOver)
		assert.True(t, f.store.sessions[sessionID.String()].IsOver())
	})

	t.Run("should ask again when the proposer is unreachable", func(t *testing.T) {
		f := newTurnFixture(t)
		sessionID := f.startSession(t)
		f.proposer.err = errors.New("proposer: connection refused")

		res := f.turnText(t, sessionID, "t1", "two burgers")

		assert.Equal(t, "Clarifying", res.State)
		assert.NotEmpty(t, res.Reply)
		sess := f.store.sessions[sessionID.String()]
		ord := f.store.orders[sess.OrderID().String()]
		assert.True(t, ord.IsEmpty())
	})

	t.Run("should escalate after two unresolved clarifications", func(t *testing.T) {
		f := newTurnFixture(t)
		sessionID := f.startSession(t)

		first := f.turnText(t, sessionID, "t1", "gibberish")
		assert.Equal(t, "Clarifying", first.State)

		second := f.turnText(t, sessionID, "t2", "more gibberish")
		assert.Equal(t, "Thinking", second.State)
	})

	t.Run("should reopen a closed order for a late addition", func(t *testing.T) {
		f := newTurnFixture(t)
		sessionID := f.startSession(t)
		f.script("two burgers", orderProposal(t, 0.95, addCmd(t, "t1:0", "burger-01", 2)))
		f.script("that's all", ports.Proposal{Intent: ports.IntentDone, Confidence: 0.95})
		f.script("yes", ports.Proposal{Intent: ports.IntentConfirm, Confidence: 0.95})
		f.script("oh and fries", orderProposal(t, 0.95, addCmd(t, "t4:0", "fries-01", 1)))

		f.turnText(t, sessionID, "t1", "two burgers")
		f.turnText(t, sessionID, "t2", "that's all")
		f.turnText(t, sessionID, "t3", "yes")

		res := f.turnText(t, sessionID, "t4", "oh and fries")

		assert.Equal(t, "Ordering", res.State)
		sess := f.store.sessions[sessionID.String()]
		ord := f.store.orders[sess.OrderID().String()]
		assert.False(t, ord.IsFrozen())
		assert.Equal(t, 2, ord.LineCount())
	})

	t.Run("should reject a turn on a released session", func(t *testing.T) {
		f := newTurnFixture(t)
		sessionID := f.startSession(t)
		endCmd, err := commands.NewEndSessionCommand(sessionID)
		require.NoError(t, err)
		require.NoError(t, f.ender.Handle(context.Background(), endCmd))

		cmd, err := commands.NewRunTurnCommand(sessionID, "t1", "hello", nil)
		require.NoError(t, err)
		_, err = f.handler.Handle(context.Background(), cmd)

		assert.ErrorIs(t, err, session.ErrSessionIsOver)
	})
}

func TestStartSessionCommandHandler_Handle(t *testing.T) {
	t.Run("should refuse a second session on a busy lane", func(t *testing.T) {
		f := newTurnFixture(t)
		f.startSession(t)

		cmd, err := commands.NewStartSessionCommand(kernel.NewUUID(), "rest-001", "lane-1")
		require.NoError(t, err)
		_, err = f.starter.Handle(context.Background(), cmd)

		assert.ErrorIs(t, err, commands.ErrLaneIsBusy)
	})

	t.Run("should allow parallel sessions on different lanes", func(t *testing.T) {
		f := newTurnFixture(t)
		f.startSession(t)

		cmd, err := commands.NewStartSessionCommand(kernel.NewUUID(), "rest-001", "lane-2")
		require.NoError(t, err)
		res, err := f.starter.Handle(context.Background(), cmd)

		require.NoError(t, err)
		assert.Equal(t, "Ordering", res.State)
	})
}

func TestExpireIdleSessionsCommandHandler_Handle(t *testing.T) {
	t.Run("should release only expired sessions", func(t *testing.T) {
		f := newTurnFixture(t)
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		sweeper := commands.NewExpireIdleSessionsCommandHandler(
			&memSessionUoWFactory{f.store}, f.turns, logger)

		fresh := f.startSession(t)

		// An expired session is seeded directly with a past deadline.
		staleID := kernel.NewUUID()
		stale, err := session.RestoreSession(
			staleID, "rest-001", "lane-9", kernel.NewUUID(),
			session.Ordering, 3, nil, 0,
			pastTime(10), pastTime(5), 60*time.Second)
		require.NoError(t, err)
		f.store.sessions[staleID.String()] = stale

		cmd, err := commands.NewExpireIdleSessionsCommand()
		require.NoError(t, err)
		require.NoError(t, sweeper.Handle(context.Background(), cmd))

		assert.True(t, f.store.sessions[staleID.String()].IsOver())
		assert.False(t, f.store.sessions[fresh.String()].IsOver())
	})
}

func pastTime(minutes int) time.Time {
	return time.Now().Add(-time.Duration(minutes) * time.Minute)
}

var _ services.Catalog = stubCatalog{}
