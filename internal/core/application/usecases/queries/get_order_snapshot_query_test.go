package queries_test

import (
	"testing"

	"drivethru/internal/core/application/usecases/queries"
	"drivethru/internal/core/domain/model/kernel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGetOrderSnapshotQuery_Valid(t *testing.T) {
	sessionID := kernel.NewUUID()

	query, err := queries.NewGetOrderSnapshotQuery(sessionID)
	require.NoError(t, err)
	require.NoError(t, query.Validate())
	assert.Equal(t, sessionID, query.SessionID())
}

func TestNewGetOrderSnapshotQuery_EmptySessionID(t *testing.T) {
	_, err := queries.NewGetOrderSnapshotQuery(kernel.UUID{})
	require.Error(t, err)
}

func TestGetOrderSnapshotQuery_NotConstructedViaConstructor(t *testing.T) {
	query := queries.GetOrderSnapshotQuery{}
	err := query.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, queries.ErrGetOrderSnapshotQueryIsNotConstructed)
}
