// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mealmatch-workers/internal/common/logger"
	"mealmatch-workers/internal/common/realtime"
	"mealmatch-workers/internal/models"
	"mealmatch-workers/internal/repository"

	sendmessage "mealmatch-workers/internal/workers/chat/send-message"
	querypostgresql "mealmatch-workers/internal/workers/data-access/query-postgresql"
	recordswipe "mealmatch-workers/internal/workers/matching/record-swipe"
)

// The flow runs against a migrated database and a live redis:
//
//	E2E_POSTGRES_DSN=postgres://... E2E_REDIS_ADDR=localhost:6379 go test ./test/e2e/...
type env struct {
	db        *sql.DB
	repo      *repository.Repository
	publisher *realtime.Publisher
	rdb       *redis.Client
}

func setup(t *testing.T) *env {
	t.Helper()
	dsn, addr := os.Getenv("E2E_POSTGRES_DSN"), os.Getenv("E2E_REDIS_ADDR")
	if dsn == "" || addr == "" {
		t.Skip("E2E_POSTGRES_DSN and E2E_REDIS_ADDR not set")
	}

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	require.NoError(t, db.Ping())
	t.Cleanup(func() { db.Close() })

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	require.NoError(t, rdb.Ping(context.Background()).Err())
	t.Cleanup(func() { rdb.Close() })

	log := logger.NewTestLogger(t)
	return &env{
		db:        db,
		repo:      repository.New(db, rdb, time.Minute, log),
		publisher: realtime.NewPublisher(rdb, "e2e-"+uuid.NewString()[:8], log),
		rdb:       rdb,
	}
}

func (e *env) createUser(t *testing.T, name string) string {
	t.Helper()
	id := uuid.NewString()
	_, err := e.db.Exec(`INSERT INTO users (id, name, email, created_at) VALUES ($1, $2, $3, NOW())`,
		id, name, name+"@e2e.test")
	require.NoError(t, err)
	t.Cleanup(func() {
		for _, q := range []string{
			`DELETE FROM messages WHERE sender_id = $1 OR receiver_id = $1`,
			`DELETE FROM matches WHERE user_id = $1 OR matched_user_id = $1`,
			`DELETE FROM likes WHERE user_id = $1 OR liked_user_id = $1`,
			`DELETE FROM users WHERE id = $1`,
		} {
			_, _ = e.db.Exec(q, id)
		}
	})
	return id
}

func TestMatchThenChat(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	log := logger.NewTestLogger(t)

	nathan := e.createUser(t, "nathan")
	sarah := e.createUser(t, "sarah")

	swipes, err := recordswipe.NewHandler(recordswipe.LoadConfig(), e.repo, e.publisher, nil, log)
	require.NoError(t, err)

	sub := e.rdb.Subscribe(ctx, e.publisher.Channel(nathan))
	defer sub.Close()
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	first, err := swipes.Execute(ctx, &recordswipe.Input{UserID: nathan, TargetUserID: sarah, Direction: models.SwipeRight})
	require.NoError(t, err)
	assert.False(t, first.Matched)

	second, err := swipes.Execute(ctx, &recordswipe.Input{UserID: sarah, TargetUserID: nathan, Direction: models.SwipeRight})
	require.NoError(t, err)
	require.True(t, second.Matched)
	assert.Equal(t, nathan, second.MatchedUser.ID)

	recvCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	msg, err := sub.ReceiveMessage(recvCtx)
	require.NoError(t, err)
	assert.Contains(t, msg.Payload, realtime.EventNewMatch)

	chat, err := sendmessage.NewHandler(sendmessage.LoadConfig(), e.repo, e.publisher, nil, log)
	require.NoError(t, err)
	sent, err := chat.Execute(ctx, &sendmessage.Input{SenderID: sarah, ReceiverID: nathan, Content: "dinner?"})
	require.NoError(t, err)
	assert.True(t, sent.Delivered)

	reads := querypostgresql.NewHandler(querypostgresql.LoadConfig(), e.repo, log)
	out, err := reads.Execute(ctx, &querypostgresql.Input{
		QueryType:   string(querypostgresql.QueryTypeConversation),
		UserID:      nathan,
		OtherUserID: sarah,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, out.RowCount)

	matches, err := e.repo.GetMatches(ctx, nathan)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, sarah, matches[0].ID)
}
