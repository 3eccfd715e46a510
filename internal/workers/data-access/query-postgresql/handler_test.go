package querypostgresql

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	apperrors "mealmatch-workers/internal/common/errors"
	"mealmatch-workers/internal/common/logger"
	"mealmatch-workers/internal/models"
	"mealmatch-workers/internal/repository"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
	}
}

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

func createBenchmarkLogger(b *testing.B) logger.Logger {
	zapLogger, _ := zap.NewProduction()
	return logger.NewZapAdapter(zapLogger)
}

func setupHandler(t *testing.T, cfg *Config) (*Handler, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	log := createTestLogger(t)
	repo := repository.New(db, nil, time.Minute, log)
	return NewHandler(cfg, repo, log), mock
}

var profileColumns = []string{
	"id", "name", "email", "phone", "image", "location", "created_at",
	"cuisines",
	"vegetarian", "vegan", "kosher", "gluten_free", "dairy_free", "allergies",
	"air_fryer", "microwave", "oven", "stove_top", "sous_vide", "deep_fryer", "blender", "instant_pot",
	"protein", "carbs", "fats",
}

func expectProfile(mock sqlmock.Sqlmock, id, name string) {
	mock.ExpectQuery(regexp.QuoteMeta("FROM users u")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(profileColumns).AddRow(
			id, name, "", "", "", "Austin", time.Now(),
			"{Mexican}",
			false, true, false, false, false, "{}",
			false, false, true, false, false, false, false, false,
			100.0, 150.0, 50.0,
		))
	mock.ExpectQuery(regexp.QuoteMeta("FROM ingredients")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "ingredient", "quantity"}).
			AddRow(id, "black beans", "1 can"))
}

func codeOf(t *testing.T, err error) apperrors.ErrorCode {
	t.Helper()
	stdErr, ok := apperrors.AsStandardError(err)
	require.True(t, ok, "expected StandardError, got %v", err)
	return stdErr.Code
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	tests := []struct {
		name           string
		input          *Input
		mockQuery      func(mock sqlmock.Sqlmock)
		validateOutput func(t *testing.T, output *Output)
	}{
		{
			name:  "user profile",
			input: &Input{QueryType: string(QueryTypeUserProfile), UserID: "user-123"},
			mockQuery: func(mock sqlmock.Sqlmock) {
				expectProfile(mock, "user-123", "Nathan")
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 1, output.RowCount)
				profile := output.Data.(*models.UserProfile)
				assert.Equal(t, "Nathan", profile.Name)
				assert.True(t, profile.DietaryRestrictions.Vegan)
				assert.Equal(t, []string{"Mexican"}, profile.Preferences.Cuisines)
				assert.Len(t, profile.IngredientsList, 1)
			},
		},
		{
			name:  "user matches",
			input: &Input{QueryType: string(QueryTypeUserMatches), UserID: "user-123"},
			mockQuery: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("FROM matches m")).
					WithArgs("user-123").
					WillReturnRows(sqlmock.NewRows([]string{"id", "name", "image"}).
						AddRow("user-456", "Bea", "bea.png").
						AddRow("user-789", "Cal", ""))
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 2, output.RowCount)
				matches := output.Data.([]models.UserSummary)
				assert.Equal(t, "Bea", matches[0].Name)
			},
		},
		{
			name:  "conversation",
			input: &Input{QueryType: string(QueryTypeConversation), UserID: "user-123", OtherUserID: "user-456"},
			mockQuery: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)")).
					WithArgs("user-456").
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
				mock.ExpectQuery(regexp.QuoteMeta("FROM messages")).
					WithArgs("user-123", "user-456").
					WillReturnRows(sqlmock.NewRows([]string{"id", "sender_id", "receiver_id", "content", "created_at"}).
						AddRow("m1", "user-123", "user-456", "hi", time.Now()))
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 1, output.RowCount)
				msgs := output.Data.([]models.Message)
				assert.Equal(t, "hi", msgs[0].Content)
			},
		},
		{
			name:  "candidate pool",
			input: &Input{QueryType: string(QueryTypeCandidatePool), UserID: "user-123"},
			mockQuery: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("SELECT u.id FROM users u")).
					WithArgs("user-123").
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("user-456"))
				expectProfile(mock, "user-456", "Bea")
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 1, output.RowCount)
				pool := output.Data.([]models.UserProfile)
				assert.Equal(t, "user-456", pool[0].ID)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, mock := setupHandler(t, createTestConfig())
			tt.mockQuery(mock)

			output, err := handler.execute(context.Background(), tt.input)

			require.NoError(t, err)
			require.NotNil(t, output)
			assert.GreaterOrEqual(t, output.QueryExecutionTime, int64(0))
			assert.NoError(t, mock.ExpectationsWereMet())
			tt.validateOutput(t, output)
		})
	}
}

func TestHandler_Execute_Timeout(t *testing.T) {
	config := createTestConfig()
	config.Timeout = 50 * time.Millisecond
	handler, mock := setupHandler(t, config)

	mock.ExpectQuery(regexp.QuoteMeta("FROM matches m")).
		WithArgs("user-123").
		WillDelayFor(200 * time.Millisecond).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "image"}))

	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
	defer cancel()

	output, err := handler.execute(ctx, &Input{QueryType: string(QueryTypeUserMatches), UserID: "user-123"})

	assert.Nil(t, output)
	assert.Equal(t, apperrors.ErrCodeQueryTimeout, codeOf(t, err))
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_QueryErrors(t *testing.T) {
	tests := []struct {
		name      string
		input     *Input
		mockQuery func(mock sqlmock.Sqlmock)
		wantCode  apperrors.ErrorCode
	}{
		{
			name:      "unknown query type",
			input:     &Input{QueryType: "user_payments"},
			mockQuery: func(sqlmock.Sqlmock) {},
			wantCode:  apperrors.ErrCodeInvalidQueryType,
		},
		{
			name:      "missing user id",
			input:     &Input{QueryType: string(QueryTypeUserMatches)},
			mockQuery: func(sqlmock.Sqlmock) {},
			wantCode:  apperrors.ErrCodeInputValidationFailed,
		},
		{
			name:      "conversation without other user",
			input:     &Input{QueryType: string(QueryTypeConversation), UserID: "user-123"},
			mockQuery: func(sqlmock.Sqlmock) {},
			wantCode:  apperrors.ErrCodeInputValidationFailed,
		},
		{
			name:  "conversation with unknown user",
			input: &Input{QueryType: string(QueryTypeConversation), UserID: "user-123", OtherUserID: "ghost"},
			mockQuery: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
					WithArgs("ghost").
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
			},
			wantCode: apperrors.ErrCodeUserNotFound,
		},
		{
			name:  "profile not found",
			input: &Input{QueryType: string(QueryTypeUserProfile), UserID: "ghost"},
			mockQuery: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("FROM users u")).
					WithArgs(sqlmock.AnyArg()).
					WillReturnRows(sqlmock.NewRows(profileColumns))
			},
			wantCode: apperrors.ErrCodeUserNotFound,
		},
		{
			name:  "database error",
			input: &Input{QueryType: string(QueryTypeUserMatches), UserID: "user-123"},
			mockQuery: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("FROM matches m")).
					WithArgs("user-123").
					WillReturnError(errors.New("database connection failed"))
			},
			wantCode: apperrors.ErrCodeQueryExecutionFailed,
		},
		{
			name:  "connection closed",
			input: &Input{QueryType: string(QueryTypeUserMatches), UserID: "user-123"},
			mockQuery: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("FROM matches m")).
					WithArgs("user-123").
					WillReturnError(sql.ErrConnDone)
			},
			wantCode: apperrors.ErrCodeDatabaseConnectionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, mock := setupHandler(t, createTestConfig())
			tt.mockQuery(mock)

			output, err := handler.execute(context.Background(), tt.input)

			assert.Nil(t, output)
			assert.Equal(t, tt.wantCode, codeOf(t, err))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

// ==========================
// Benchmarks
// ==========================

func BenchmarkHandler_Execute_UserMatches(b *testing.B) {
	db, mock, err := sqlmock.New()
	if err != nil {
		b.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	log := createBenchmarkLogger(b)
	handler := NewHandler(createTestConfig(), repository.New(db, nil, time.Minute, log), log)
	input := &Input{QueryType: string(QueryTypeUserMatches), UserID: "user-123"}

	for i := 0; i < b.N; i++ {
		mock.ExpectQuery(regexp.QuoteMeta("FROM matches m")).
			WithArgs("user-123").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "image"}).AddRow("user-456", "Bea", ""))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = handler.execute(context.Background(), input)
	}
}
