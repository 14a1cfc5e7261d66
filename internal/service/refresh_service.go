package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"freightchat/internal/pkg/logger"
	"freightchat/pkg/shipping"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Refresher runs one refresh task. *shipping.Controller implements it.
type Refresher interface {
	Refresh(ctx context.Context, task shipping.RefreshTask) error
}

type IRefreshService interface {
	shipping.Scheduler
	Consume(ctx context.Context, r Refresher) error
	Wait()
}

type refreshMessage struct {
	Task        shipping.RefreshTask `json:"task"`
	RequestedAt time.Time            `json:"requested_at"`
}

// refreshService queues refresh tasks on a watermill topic. Each task is
// published as its own message and run on its own goroutine, so one slow or
// failing fetch never holds up the others.
type refreshService struct {
	pubSub  *gochannel.GoChannel
	topic   string
	timeout time.Duration
	logger  logger.ILogger

	running sync.WaitGroup
}

func NewRefreshService(pubSub *gochannel.GoChannel, topic string, timeout time.Duration, log logger.ILogger) IRefreshService {
	return &refreshService{
		pubSub:  pubSub,
		topic:   topic,
		timeout: timeout,
		logger:  log,
	}
}

func (s *refreshService) Schedule(delay time.Duration, tasks ...shipping.RefreshTask) {
	if delay <= 0 {
		s.publish(tasks)
		return
	}
	time.AfterFunc(delay, func() { s.publish(tasks) })
}

func (s *refreshService) publish(tasks []shipping.RefreshTask) {
	for _, task := range tasks {
		payload, err := json.Marshal(refreshMessage{Task: task, RequestedAt: time.Now().UTC()})
		if err != nil {
			continue
		}
		msg := message.NewMessage(watermill.NewUUID(), payload)
		if err := s.pubSub.Publish(s.topic, msg); err != nil {
			s.logger.Warn("RefreshService", "Failed to queue refresh", map[string]interface{}{"task": string(task), "error": err.Error()})
		}
	}
}

func (s *refreshService) Consume(ctx context.Context, r Refresher) error {
	messages, err := s.pubSub.Subscribe(ctx, s.topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			s.processMessage(ctx, r, msg)
		}
	}()
	return nil
}

func (s *refreshService) processMessage(ctx context.Context, r Refresher, msg *message.Message) {
	var payload refreshMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		s.logger.Error("RefreshService", "Failed to unmarshal refresh message", map[string]interface{}{"message_id": msg.UUID, "error": err.Error()})
		msg.Ack()
		return
	}
	// Failed refreshes are not redelivered; the next trigger fetches again.
	msg.Ack()

	s.running.Add(1)
	go func() {
		defer s.running.Done()
		taskCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		started := time.Now()
		if err := r.Refresh(taskCtx, payload.Task); err != nil {
			return
		}
		s.logger.Debug("RefreshService", "Refresh completed", map[string]interface{}{
			"task":     string(payload.Task),
			"duration": time.Since(started).String(),
		})
	}()
}

// Wait blocks until every started refresh has finished.
func (s *refreshService) Wait() {
	s.running.Wait()
}
