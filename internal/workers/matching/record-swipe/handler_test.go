package recordswipe

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "mealmatch-workers/internal/common/errors"
	"mealmatch-workers/internal/common/logger"
	"mealmatch-workers/internal/common/realtime"
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

func (m *mockStore) RecordLike(ctx context.Context, userID, likedUserID string) (bool, error) {
	args := m.Called(ctx, userID, likedUserID)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) HasLiked(ctx context.Context, userID, otherUserID string) (bool, error) {
	args := m.Called(ctx, userID, otherUserID)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) CreateMatch(ctx context.Context, userA, userB string) error {
	return m.Called(ctx, userA, userB).Error(0)
}

func (m *mockStore) RecordDislike(ctx context.Context, userID, dislikedUserID string) (bool, error) {
	args := m.Called(ctx, userID, dislikedUserID)
	return args.Bool(0), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, userID string, event realtime.Event) (int64, error) {
	args := m.Called(ctx, userID, event)
	return int64(args.Int(0)), args.Error(1)
}

func createTestHandler(t *testing.T, store SwipeStore, pub EventPublisher) *Handler {
	h, err := NewHandler(&Config{Timeout: 5 * time.Second}, store, pub, nil, logger.NewTestLogger(t))
	require.NoError(t, err)
	return h
}

func alice() *models.UserProfile {
	return &models.UserProfile{ID: "alice", Name: "Alice", Image: "a.png"}
}

func bob() *models.UserProfile {
	return &models.UserProfile{ID: "bob", Name: "Bob", Image: "b.png"}
}

func assertCode(t *testing.T, err error, code apperrors.ErrorCode) {
	t.Helper()
	stdErr, ok := apperrors.AsStandardError(err)
	require.True(t, ok, "expected StandardError, got %v", err)
	assert.Equal(t, code, stdErr.Code)
}

// ==========================
// Right Swipe Tests
// ==========================

func TestHandler_Execute_LikeWithoutMatch(t *testing.T) {
	store := &mockStore{}
	pub := &mockPublisher{}
	store.On("GetProfile", mock.Anything, "bob").Return(bob(), nil)
	store.On("RecordLike", mock.Anything, "alice", "bob").Return(true, nil)
	store.On("HasLiked", mock.Anything, "bob", "alice").Return(false, nil)

	out, err := createTestHandler(t, store, pub).Execute(context.Background(), &Input{
		UserID: "alice", TargetUserID: "bob", Direction: models.SwipeRight,
	})

	require.NoError(t, err)
	assert.Equal(t, &Output{Liked: true}, out)
	store.AssertNotCalled(t, "CreateMatch", mock.Anything, mock.Anything, mock.Anything)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_Execute_MutualLikeCreatesMatch(t *testing.T) {
	store := &mockStore{}
	pub := &mockPublisher{}
	store.On("GetProfile", mock.Anything, "bob").Return(bob(), nil)
	store.On("GetProfile", mock.Anything, "alice").Return(alice(), nil)
	store.On("RecordLike", mock.Anything, "alice", "bob").Return(true, nil)
	store.On("HasLiked", mock.Anything, "bob", "alice").Return(true, nil)
	store.On("CreateMatch", mock.Anything, "alice", "bob").Return(nil)

	pub.On("Publish", mock.Anything, "bob", realtime.Event{
		Type:    realtime.EventNewMatch,
		Payload: models.UserSummary{ID: "alice", Name: "Alice", Image: "a.png"},
	}).Return(1, nil)
	pub.On("Publish", mock.Anything, "alice", realtime.Event{
		Type:    realtime.EventNewMatch,
		Payload: models.UserSummary{ID: "bob", Name: "Bob", Image: "b.png"},
	}).Return(0, nil)

	out, err := createTestHandler(t, store, pub).Execute(context.Background(), &Input{
		UserID: "alice", TargetUserID: "bob", Direction: models.SwipeRight,
	})

	require.NoError(t, err)
	assert.True(t, out.Liked)
	assert.True(t, out.Matched)
	require.NotNil(t, out.MatchedUser)
	assert.Equal(t, "bob", out.MatchedUser.ID)
	store.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestHandler_Execute_RepeatLikeIsIdempotent(t *testing.T) {
	store := &mockStore{}
	store.On("GetProfile", mock.Anything, "bob").Return(bob(), nil)
	store.On("RecordLike", mock.Anything, "alice", "bob").Return(false, nil)
	store.On("HasLiked", mock.Anything, "bob", "alice").Return(false, nil)

	out, err := createTestHandler(t, store, &mockPublisher{}).Execute(context.Background(), &Input{
		UserID: "alice", TargetUserID: "bob", Direction: models.SwipeRight,
	})

	require.NoError(t, err)
	assert.Equal(t, &Output{Liked: true}, out)
	store.AssertNotCalled(t, "CreateMatch", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_Execute_RetryAfterFailedMatchCreatesMatch(t *testing.T) {
	store := &mockStore{}
	pub := &mockPublisher{}
	store.On("GetProfile", mock.Anything, "bob").Return(bob(), nil)
	store.On("GetProfile", mock.Anything, "alice").Return(alice(), nil)
	store.On("HasLiked", mock.Anything, "bob", "alice").Return(true, nil)
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(1, nil)

	// first attempt stores the like, then the match insert fails
	store.On("RecordLike", mock.Anything, "alice", "bob").Return(true, nil).Once()
	store.On("CreateMatch", mock.Anything, "alice", "bob").Return(errors.New("tx aborted")).Once()
	// the job retry finds the like already stored
	store.On("RecordLike", mock.Anything, "alice", "bob").Return(false, nil).Once()
	store.On("CreateMatch", mock.Anything, "alice", "bob").Return(nil).Once()

	handler := createTestHandler(t, store, pub)
	input := &Input{UserID: "alice", TargetUserID: "bob", Direction: models.SwipeRight}

	_, err := handler.Execute(context.Background(), input)
	assertCode(t, err, apperrors.ErrCodeSwipeRecordFailed)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)

	out, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, out.Matched)
	require.NotNil(t, out.MatchedUser)
	assert.Equal(t, "bob", out.MatchedUser.ID)

	store.AssertNumberOfCalls(t, "CreateMatch", 2)
	pub.AssertNumberOfCalls(t, "Publish", 2)
}

func TestHandler_Execute_PublishFailureDoesNotFailJob(t *testing.T) {
	store := &mockStore{}
	pub := &mockPublisher{}
	store.On("GetProfile", mock.Anything, "bob").Return(bob(), nil)
	store.On("GetProfile", mock.Anything, "alice").Return(alice(), nil)
	store.On("RecordLike", mock.Anything, "alice", "bob").Return(true, nil)
	store.On("HasLiked", mock.Anything, "bob", "alice").Return(true, nil)
	store.On("CreateMatch", mock.Anything, "alice", "bob").Return(nil)
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(0, errors.New("redis down"))

	out, err := createTestHandler(t, store, pub).Execute(context.Background(), &Input{
		UserID: "alice", TargetUserID: "bob", Direction: models.SwipeRight,
	})

	require.NoError(t, err)
	assert.True(t, out.Matched)
}

// ==========================
// Left Swipe Tests
// ==========================

func TestHandler_Execute_Dislike(t *testing.T) {
	store := &mockStore{}
	store.On("RecordDislike", mock.Anything, "alice", "bob").Return(false, nil)

	out, err := createTestHandler(t, store, nil).Execute(context.Background(), &Input{
		UserID: "alice", TargetUserID: "bob", Direction: models.SwipeLeft,
	})

	require.NoError(t, err)
	assert.Equal(t, &Output{Disliked: true}, out)
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
			"unknown target",
			&Input{UserID: "alice", TargetUserID: "ghost", Direction: models.SwipeRight},
			func(m *mockStore) {
				m.On("GetProfile", mock.Anything, "ghost").Return(nil, repository.ErrUserNotFound)
			},
			apperrors.ErrCodeUserNotFound,
		},
		{
			"self swipe",
			&Input{UserID: "alice", TargetUserID: "alice", Direction: models.SwipeRight},
			func(*mockStore) {},
			apperrors.ErrCodeInputValidationFailed,
		},
		{
			"like insert fails",
			&Input{UserID: "alice", TargetUserID: "bob", Direction: models.SwipeRight},
			func(m *mockStore) {
				m.On("GetProfile", mock.Anything, "bob").Return(bob(), nil)
				m.On("RecordLike", mock.Anything, "alice", "bob").Return(false, errors.New("deadlock"))
			},
			apperrors.ErrCodeSwipeRecordFailed,
		},
		{
			"dislike insert fails",
			&Input{UserID: "alice", TargetUserID: "bob", Direction: models.SwipeLeft},
			func(m *mockStore) {
				m.On("RecordDislike", mock.Anything, "alice", "bob").Return(false, errors.New("deadlock"))
			},
			apperrors.ErrCodeSwipeRecordFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockStore{}
			tt.setup(store)

			_, err := createTestHandler(t, store, nil).Execute(context.Background(), tt.input)
			assertCode(t, err, tt.wantCode)
		})
	}
}

func TestHandler_ParseInput(t *testing.T) {
	h := createTestHandler(t, &mockStore{}, nil)

	tests := []struct {
		name    string
		vars    string
		wantErr bool
	}{
		{"valid right swipe", `{"userId":"alice","targetUserId":"bob","direction":"right"}`, false},
		{"unknown direction", `{"userId":"alice","targetUserId":"bob","direction":"up"}`, true},
		{"missing target", `{"userId":"alice","direction":"left"}`, true},
		{"not json", `{`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := h.parseInput(tt.vars)
			if tt.wantErr {
				assertCode(t, err, apperrors.ErrCodeInputValidationFailed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, models.SwipeRight, input.Direction)
		})
	}
}
