package servicebus

import (
	"context"
	"encoding/json"
	"sync"

	"social-reward-engine/domain/dto"
	"social-reward-engine/domain/model"
	"social-reward-engine/infrastructure/logger"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
)

// PayoutPublisher sends payout events to a Service Bus queue.
type PayoutPublisher struct {
	client *azservicebus.Client
	queue  string

	mu     sync.Mutex
	sender *azservicebus.Sender
}

func NewPayoutPublisher(client *azservicebus.Client, queue string) *PayoutPublisher {
	return &PayoutPublisher{client: client, queue: queue}
}

func (p *PayoutPublisher) PublishPayoutEvent(ctx context.Context, rec *model.PayoutRecord) error {
	msg, err := newMessage(rec)
	if err != nil {
		return err
	}
	sender, err := p.getSender()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while making new sender service bus.")
		return err
	}
	if err := sender.SendMessage(ctx, msg, nil); err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while sending message.")
		return err
	}
	return nil
}

func (p *PayoutPublisher) getSender() (*azservicebus.Sender, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sender != nil {
		return p.sender, nil
	}
	sender, err := p.client.NewSender(p.queue, nil)
	if err != nil {
		return nil, err
	}
	p.sender = sender
	return sender, nil
}

func (p *PayoutPublisher) Close(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sender == nil {
		return
	}
	if err := p.sender.Close(ctx); err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while closing sender.")
	}
	p.sender = nil
}

func newMessage(rec *model.PayoutRecord) (*azservicebus.Message, error) {
	ev := dto.NewPayoutEvent(rec)
	body, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	contentType := "application/json"
	subject := ev.Type
	messageID := rec.ID + ":" + rec.Status
	return &azservicebus.Message{
		Body:        body,
		ContentType: &contentType,
		Subject:     &subject,
		MessageID:   &messageID,
		ApplicationProperties: map[string]any{
			"tweetId": rec.TweetID,
		},
	}, nil
}
