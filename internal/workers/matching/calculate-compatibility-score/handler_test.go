package calculatecompatibilityscore

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "mealmatch-workers/internal/common/errors"
	"mealmatch-workers/internal/common/logger"
	"mealmatch-workers/internal/compatibility"
	"mealmatch-workers/internal/models"
	"mealmatch-workers/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	args := m.Called(ctx, userID)
	if p, ok := args.Get(0).(*models.UserProfile); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

type noLookup struct{}

func (noLookup) Lookup(ctx context.Context, query string) ([]models.NutritionItem, error) {
	return nil, errors.New("unexpected lookup")
}

func createTestConfig() *Config {
	return &Config{Timeout: 5 * time.Second}
}

func createTestHandler(t *testing.T, store ProfileStore) *Handler {
	log := logger.NewTestLogger(t)
	scorer := compatibility.NewScorer(noLookup{}, time.Second, log)
	return NewHandler(createTestConfig(), store, scorer, log)
}

func profile(id string, cuisines ...string) *models.UserProfile {
	return &models.UserProfile{
		ID:          id,
		Name:        "User " + id,
		Preferences: models.Preferences{Cuisines: cuisines},
	}
}

func requireCode(t *testing.T, err error, code apperrors.ErrorCode) {
	t.Helper()
	stdErr, ok := apperrors.AsStandardError(err)
	require.True(t, ok, "expected StandardError, got %v", err)
	assert.Equal(t, code, stdErr.Code)
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_LoadsProfiles(t *testing.T) {
	store := &mockStore{}
	store.On("GetProfile", mock.Anything, "u1").Return(profile("u1", "Italian"), nil)
	store.On("GetProfile", mock.Anything, "u2").Return(profile("u2", "Italian", "Thai"), nil)

	h := createTestHandler(t, store)
	out, err := h.Execute(context.Background(), &Input{CurrentUserID: "u1", OtherUserID: "u2"})

	require.NoError(t, err)
	// no ingredients: 0 + 30 restrictions + 30 cuisines
	assert.Equal(t, 60, out.CompatibilityScore)
	assert.Equal(t, compatibility.GoalCompletion{}, out.GoalCompletion)
	store.AssertExpectations(t)
}

func TestHandler_Execute_SuppliedProfilesSkipLookup(t *testing.T) {
	store := &mockStore{}
	h := createTestHandler(t, store)

	out, err := h.Execute(context.Background(), &Input{
		CurrentUser: profile("u1"),
		OtherUser:   profile("u2", "Korean"),
	})

	require.NoError(t, err)
	assert.Equal(t, 30, out.CompatibilityScore)
	store.AssertNotCalled(t, "GetProfile", mock.Anything, mock.Anything)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    *Input
		setup    func(*mockStore)
		wantCode apperrors.ErrorCode
	}{
		{
			name:     "missing current user id",
			input:    &Input{OtherUserID: "u2"},
			setup:    func(*mockStore) {},
			wantCode: apperrors.ErrCodeInputValidationFailed,
		},
		{
			name:  "unknown other user",
			input: &Input{CurrentUserID: "u1", OtherUserID: "ghost"},
			setup: func(m *mockStore) {
				m.On("GetProfile", mock.Anything, "u1").Return(profile("u1"), nil)
				m.On("GetProfile", mock.Anything, "ghost").Return(nil, repository.ErrUserNotFound)
			},
			wantCode: apperrors.ErrCodeUserNotFound,
		},
		{
			name:  "database failure",
			input: &Input{CurrentUserID: "u1", OtherUserID: "u2"},
			setup: func(m *mockStore) {
				m.On("GetProfile", mock.Anything, "u1").Return(nil, errors.New("connection reset"))
			},
			wantCode: apperrors.ErrCodeQueryExecutionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockStore{}
			tt.setup(store)
			h := createTestHandler(t, store)

			out, err := h.Execute(context.Background(), tt.input)
			assert.Nil(t, out)
			requireCode(t, err, tt.wantCode)
		})
	}
}
