package pubsub

import (
	"context"
	"encoding/json"
	"sync"

	"social-reward-engine/domain/dto"
	"social-reward-engine/domain/model"
	"social-reward-engine/infrastructure/logger"

	"cloud.google.com/go/pubsub"
)

// PayoutPublisher publishes payout events to one topic, creating it on
// first use.
type PayoutPublisher struct {
	client    *pubsub.Client
	topicName string

	mu    sync.Mutex
	topic *pubsub.Topic
}

func NewPayoutPublisher(client *pubsub.Client, topicName string) *PayoutPublisher {
	return &PayoutPublisher{client: client, topicName: topicName}
}

func (p *PayoutPublisher) PublishPayoutEvent(ctx context.Context, rec *model.PayoutRecord) error {
	payload, err := json.Marshal(dto.NewPayoutEvent(rec))
	if err != nil {
		return err
	}
	topic, err := p.ensureTopic(ctx)
	if err != nil {
		return err
	}
	msg := &pubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"type":    "payout." + rec.Status,
			"tweetId": rec.TweetID,
		},
	}
	serverID, err := topic.Publish(ctx, msg).Get(ctx)
	if err != nil {
		return err
	}
	logger.GetLogger().WithField("server_id", serverID).WithField("payout_id", rec.ID).Debug("payout event published")
	return nil
}

func (p *PayoutPublisher) ensureTopic(ctx context.Context) (*pubsub.Topic, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.topic != nil {
		return p.topic, nil
	}
	topic := p.client.Topic(p.topicName)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		logger.GetLogger().WithField("topic", p.topicName).Info("Topic doesn't exist - creating it")
		if topic, err = p.client.CreateTopic(ctx, p.topicName); err != nil {
			return nil, err
		}
	}
	p.topic = topic
	return topic, nil
}

// Stop flushes buffered messages.
func (p *PayoutPublisher) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.topic != nil {
		p.topic.Stop()
	}
}
