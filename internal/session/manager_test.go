package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"invoiceflow/internal/domain"
	"invoiceflow/internal/port"
	"invoiceflow/internal/session"
	"invoiceflow/mocks"
)

func TestManager_AdoptFirstWins(t *testing.T) {
	m := session.NewManager(new(mocks.MockSessionAPI))

	_, active := m.Current()
	assert.False(t, active)

	assert.True(t, m.Adopt("sess-1"))
	assert.False(t, m.Adopt("sess-2"))
	assert.False(t, m.Adopt("sess-1"))

	id, active := m.Current()
	assert.True(t, active)
	assert.Equal(t, "sess-1", id)
}

func TestManager_AdoptRejectsEmptyID(t *testing.T) {
	m := session.NewManager(new(mocks.MockSessionAPI))

	assert.False(t, m.Adopt(""))
	_, active := m.Current()
	assert.False(t, active)
}

func TestManager_CreateFromResults(t *testing.T) {
	api := new(mocks.MockSessionAPI)
	m := session.NewManager(api)

	results := []domain.ExtractionResult{
		*domain.NewSuccessResult("id-1", "a.pdf", &domain.InvoiceData{VendorName: "Acme Corp"}),
	}
	api.On("CreateSession", mock.Anything, results).Return("sess-new", nil).Once()

	require.NoError(t, m.CreateFromResults(context.Background(), results))

	id, active := m.Current()
	assert.True(t, active)
	assert.Equal(t, "sess-new", id)

	// No-op while a session is active.
	require.NoError(t, m.CreateFromResults(context.Background(), results))
	api.AssertNumberOfCalls(t, "CreateSession", 1)
}

func TestManager_CreateFromResultsFailureStaysAbsent(t *testing.T) {
	api := new(mocks.MockSessionAPI)
	m := session.NewManager(api)

	api.On("CreateSession", mock.Anything, mock.Anything).
		Return("", errors.New("backend unavailable")).Once()

	err := m.CreateFromResults(context.Background(), nil)
	require.Error(t, err)

	_, active := m.Current()
	assert.False(t, active)
	// The caller decides whether to retry; the manager does not.
	api.AssertNumberOfCalls(t, "CreateSession", 1)
}

func TestManager_DestroyClearsLocalStateEvenOnRemoteFailure(t *testing.T) {
	api := new(mocks.MockSessionAPI)
	m := session.NewManager(api)
	m.Adopt("sess-1")

	api.On("DeleteSession", mock.Anything, "sess-1").
		Return(errors.New("connection refused")).Once()

	m.Destroy(context.Background())

	_, active := m.Current()
	assert.False(t, active)
	// A fresh id can be adopted afterwards.
	assert.True(t, m.Adopt("sess-2"))
}

func TestManager_DestroyWithoutSessionIsNoop(t *testing.T) {
	api := new(mocks.MockSessionAPI)
	m := session.NewManager(api)

	m.Destroy(context.Background())

	api.AssertNotCalled(t, "DeleteSession", mock.Anything, mock.Anything)
}

func TestManager_StatusRequiresActiveSession(t *testing.T) {
	api := new(mocks.MockSessionAPI)
	m := session.NewManager(api)

	_, err := m.Status(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoSession)

	m.Adopt("sess-1")
	api.On("GetSessionStatus", mock.Anything, "sess-1").
		Return(&port.SessionStatus{SessionID: "sess-1", InvoiceCount: 3, Active: true}, nil).Once()

	st, err := m.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sess-1", st.SessionID)
	assert.True(t, st.Active)
}
