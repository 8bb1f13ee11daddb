package commands_test

import (
	"testing"

	"drivethru/internal/core/application/usecases/commands"
	"drivethru/internal/core/domain/model/kernel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunTurnCommand(t *testing.T) {
	t.Run("should accept a text utterance", func(t *testing.T) {
		cmd, err := commands.NewRunTurnCommand(kernel.NewUUID(), "turn-1", "two burgers", nil)

		require.NoError(t, err)
		assert.Equal(t, "two burgers", cmd.Utterance())
		assert.Equal(t, "turn-1", cmd.TurnKey())
	})

	t.Run("should accept raw audio", func(t *testing.T) {
		cmd, err := commands.NewRunTurnCommand(kernel.NewUUID(), "turn-1", "", []byte{1, 2, 3})

		require.NoError(t, err)
		assert.Empty(t, cmd.Utterance())
		assert.Len(t, cmd.Audio(), 3)
	})

	t.Run("should require a turn key", func(t *testing.T) {
		_, err := commands.NewRunTurnCommand(kernel.NewUUID(), "", "two burgers", nil)

		assert.ErrorIs(t, err, commands.ErrTurnKeyIsRequired)
	})

	t.Run("should require some input", func(t *testing.T) {
		_, err := commands.NewRunTurnCommand(kernel.NewUUID(), "turn-1", "", nil)

		assert.ErrorIs(t, err, commands.ErrTurnInputIsRequired)
	})
}
