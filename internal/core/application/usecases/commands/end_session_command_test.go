package commands_test

import (
	"testing"

	"drivethru/internal/core/application/usecases/commands"
	"drivethru/internal/core/domain/model/kernel"
	"drivethru/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEndSessionCommand(t *testing.T) {
	t.Run("should create a valid command", func(t *testing.T) {
		sessionID := kernel.NewUUID()
		cmd, err := commands.NewEndSessionCommand(sessionID)

		require.NoError(t, err)
		require.NoError(t, cmd.Validate())
		assert.Equal(t, sessionID, cmd.SessionID())
	})

	t.Run("should reject empty session id", func(t *testing.T) {
		_, err := commands.NewEndSessionCommand(kernel.UUID{})

		assert.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("should reject unconstructed command", func(t *testing.T) {
		var cmd commands.EndSessionCommand

		assert.ErrorIs(t, cmd.Validate(), commands.ErrEndSessionCommandIsNotConstructed)
	})
}
