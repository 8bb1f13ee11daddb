package session_test

import (
	"testing"
	"time"

	"drivethru/internal/core/domain/model/kernel"
	"drivethru/internal/core/domain/model/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T) *session.Session {
	t.Helper()
	s, err := session.NewSession(
		kernel.NewUUID(),
		"rest-001",
		"lane-1",
		kernel.NewUUID(),
		time.Now(),
		90*time.Second,
	)
	require.NoError(t, err)
	return s
}

func TestNewSession(t *testing.T) {
	t.Run("should create session in idle state", func(t *testing.T) {
		s := newTestSession(t)

		assert.Equal(t, session.Idle, s.State())
		assert.Equal(t, 0, s.TurnCounter())
		assert.Nil(t, s.Referent())
		assert.False(t, s.IsOver())
	})

	t.Run("should reject empty lane", func(t *testing.T) {
		_, err := session.NewSession(
			kernel.NewUUID(), "rest-001", "", kernel.NewUUID(), time.Now(), time.Minute)

		assert.Error(t, err)
	})

	t.Run("should reject non-positive idle timeout", func(t *testing.T) {
		_, err := session.NewSession(
			kernel.NewUUID(), "rest-001", "lane-1", kernel.NewUUID(), time.Now(), 0)

		assert.Error(t, err)
	})

	t.Run("should reject unconstructed session", func(t *testing.T) {
		var s session.Session

		err := s.Validate()

		assert.ErrorIs(t, err, session.ErrSessionIsNotConstructed)
	})
}

func TestSession_ApplyEvent(t *testing.T) {
	t.Run("should walk the happy path to finalization", func(t *testing.T) {
		s := newTestSession(t)

		action, err := s.ApplyEvent(session.EventCarArrived, session.Guards{})
		require.NoError(t, err)
		assert.Equal(t, session.ActionGreet, action)
		assert.Equal(t, session.Ordering, s.State())

		_, err = s.ApplyEvent(session.EventUtteranceOK, session.Guards{HasOrder: true})
		require.NoError(t, err)
		assert.Equal(t, session.Ordering, s.State())

		action, err = s.ApplyEvent(session.EventUserDone, session.Guards{HasOrder: true})
		require.NoError(t, err)
		assert.Equal(t, session.ActionBuildSummary, action)
		assert.Equal(t, session.Confirming, s.State())

		action, err = s.ApplyEvent(session.EventUserConfirms, session.Guards{HasOrder: true})
		require.NoError(t, err)
		assert.Equal(t, session.ActionFinalize, action)
		assert.Equal(t, session.Closing, s.State())

		action, err = s.ApplyEvent(session.EventFinalizeAck, session.Guards{HasOrder: true})
		require.NoError(t, err)
		assert.Equal(t, session.ActionRelease, action)
		assert.Equal(t, session.Idle, s.State())
	})

	t.Run("should escalate to thinking after two unresolved clarifications", func(t *testing.T) {
		s := newTestSession(t)

		_, err := s.ApplyEvent(session.EventCarArrived, session.Guards{})
		require.NoError(t, err)

		action, err := s.ApplyEvent(session.EventUtteranceUnclear, session.Guards{})
		require.NoError(t, err)
		assert.Equal(t, session.ActionAskClarification, action)
		assert.Equal(t, session.Clarifying, s.State())
		assert.Equal(t, 1, s.ClarifyAttempts())

		action, err = s.ApplyEvent(session.EventUtteranceUnclear, session.Guards{})
		require.NoError(t, err)
		assert.Equal(t, session.ActionGenericSuggestion, action)
		assert.Equal(t, session.Thinking, s.State())
		assert.Equal(t, 0, s.ClarifyAttempts())
	})

	t.Run("should reset clarify counter when ambiguity resolves", func(t *testing.T) {
		s := newTestSession(t)

		_, err := s.ApplyEvent(session.EventCarArrived, session.Guards{})
		require.NoError(t, err)
		_, err = s.ApplyEvent(session.EventUtteranceUnclear, session.Guards{})
		require.NoError(t, err)

		_, err = s.ApplyEvent(session.EventClarified, session.Guards{})
		require.NoError(t, err)
		assert.Equal(t, session.Ordering, s.State())
		assert.Equal(t, 0, s.ClarifyAttempts())

		// A fresh ambiguity later starts counting from one again.
		_, err = s.ApplyEvent(session.EventUtteranceUnclear, session.Guards{})
		require.NoError(t, err)
		assert.Equal(t, session.Clarifying, s.State())
		assert.Equal(t, 1, s.ClarifyAttempts())
	})

	t.Run("should keep state on barge-in", func(t *testing.T) {
		s := newTestSession(t)

		_, err := s.ApplyEvent(session.EventCarArrived, session.Guards{})
		require.NoError(t, err)

		action, err := s.ApplyEvent(session.EventBargeIn, session.Guards{})
		require.NoError(t, err)
		assert.Equal(t, session.ActionNone, action)
		assert.Equal(t, session.Ordering, s.State())
	})

	t.Run("should report unexpected event without changing state", func(t *testing.T) {
		s := newTestSession(t)

		_, err := s.ApplyEvent(session.EventUserConfirms, session.Guards{})

		assert.ErrorIs(t, err, session.ErrNoTransition)
		assert.Equal(t, session.Idle, s.State())
	})
}

func TestSession_Lifecycle(t *testing.T) {
	t.Run("should record turns and extend the idle deadline", func(t *testing.T) {
		s := newTestSession(t)
		start := s.IdleDeadline()

		later := time.Now().Add(30 * time.Second)
		s.RecordTurn(later)

		assert.Equal(t, 1, s.TurnCounter())
		assert.Equal(t, later, s.LastActivityAt())
		assert.True(t, s.IdleDeadline().After(start))
	})

	t.Run("should expire once the deadline passes", func(t *testing.T) {
		s := newTestSession(t)

		assert.False(t, s.IsExpired(time.Now()))
		assert.True(t, s.IsExpired(time.Now().Add(2*time.Minute)))
	})

	t.Run("should be over after returning to idle with turns on record", func(t *testing.T) {
		s := newTestSession(t)

		_, err := s.ApplyEvent(session.EventCarArrived, session.Guards{})
		require.NoError(t, err)
		s.RecordTurn(time.Now())
		_, err = s.ApplyEvent(session.EventLaneClear, session.Guards{})
		require.NoError(t, err)

		assert.True(t, s.IsOver())
	})

	t.Run("should copy the referent on read and clear on nil", func(t *testing.T) {
		s := newTestSession(t)
		line := kernel.NewUUID()

		s.UpdateReferent(&line)
		got := s.Referent()
		require.NotNil(t, got)
		assert.True(t, got.IsEqual(line))

		s.UpdateReferent(nil)
		assert.Nil(t, s.Referent())
	})
}

func TestRestoreSession(t *testing.T) {
	t.Run("should restore all persisted fields", func(t *testing.T) {
		id := kernel.NewUUID()
		orderID := kernel.NewUUID()
		ref := kernel.NewUUID()
		created := time.Now().Add(-5 * time.Minute)
		lastActivity := time.Now().Add(-10 * time.Second)

		s, err := session.RestoreSession(
			id, "rest-001", "lane-2", orderID,
			session.Confirming, 7, &ref, 0,
			created, lastActivity, 90*time.Second,
		)

		require.NoError(t, err)
		assert.True(t, s.ID().IsEqual(id))
		assert.Equal(t, "lane-2", s.LaneID())
		assert.Equal(t, session.Confirming, s.State())
		assert.Equal(t, 7, s.TurnCounter())
		require.NotNil(t, s.Referent())
		assert.True(t, s.Referent().IsEqual(ref))
		assert.Equal(t, lastActivity.Add(90*time.Second), s.IdleDeadline())
	})

	t.Run("should reject negative turn counter", func(t *testing.T) {
		_, err := session.RestoreSession(
			kernel.NewUUID(), "rest-001", "lane-1", kernel.NewUUID(),
			session.Ordering, -1, nil, 0,
			time.Now(), time.Now(), time.Minute,
		)

		assert.Error(t, err)
	})
}
