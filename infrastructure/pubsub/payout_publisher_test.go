package pubsub_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"social-reward-engine/domain/dto"
	"social-reward-engine/domain/model"
	sre "social-reward-engine/infrastructure/pubsub"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func TestPayoutPublisher_PublishesToFakeServer(t *testing.T) {
	ctx := context.Background()
	srv := pstest.NewServer()
	defer srv.Close()

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	client, err := pubsub.NewClient(ctx, "test-project", option.WithGRPCConn(conn))
	require.NoError(t, err)
	defer client.Close()

	publisher := sre.NewPayoutPublisher(client, "payout-events")
	tx := "0xabc"
	rec := &model.PayoutRecord{
		ID: "p-1", TweetID: "t-1", AuthorID: "a-1", Amount: 0.96, Token: "USDC", Network: "base",
		Status: model.PayoutCompleted, TxHash: &tx, UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, publisher.PublishPayoutEvent(ctx, rec))
	publisher.Stop()

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "payout.completed", msgs[0].Attributes["type"])

	var ev dto.PayoutEvent
	require.NoError(t, json.Unmarshal(msgs[0].Data, &ev))
	assert.Equal(t, "p-1", ev.PayoutID)
	assert.Equal(t, "0xabc", ev.TxHash)
}

func TestNewPubSub_RequiresProject(t *testing.T) {
	_, err := sre.NewPubSub(context.Background(), "")
	assert.Error(t, err)
}
