package notify

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/suPer8Hu/dating-platform/internal/logger"
)

// Outcome tells the transport what to do with a delivery.
type Outcome int

const (
	Ack     Outcome = iota
	Dead            // nack without requeue, the broker routes it to the DLQ
	Requeue         // nack with requeue
)

func (o Outcome) String() string {
	switch o {
	case Ack:
		return "ack"
	case Dead:
		return "dead"
	case Requeue:
		return "requeue"
	}
	return "unknown"
}

// maxBackoffShift caps the exponential retry delay at backoff * 2^16.
const maxBackoffShift = 16

type Retrier interface {
	PublishRetry(ctx context.Context, v any, delay time.Duration) error
}

type Consumer struct {
	h          *Handler
	retry      Retrier
	maxRetries int
	backoff    time.Duration
	log        *logger.Logger
}

func NewConsumer(h *Handler, retry Retrier, maxRetries int, backoff time.Duration, log *logger.Logger) *Consumer {
	if backoff <= 0 {
		backoff = time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Consumer{h: h, retry: retry, maxRetries: maxRetries, backoff: backoff, log: log.With("component", "NotifyConsumer")}
}

// Process handles one raw message body.
func (c *Consumer) Process(ctx context.Context, body []byte) Outcome {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		c.log.Warn("undecodable message", "error", err)
		return Dead
	}

	start := time.Now()
	err := c.h.Handle(ctx, ev)
	if err == nil {
		return Ack
	}
	if errors.Is(err, ErrBadEvent) {
		c.log.Warn("bad event", "event_id", ev.ID, "error", err)
		return Dead
	}
	if ev.Attempt >= c.maxRetries {
		c.log.Error("event failed, giving up", "event_id", ev.ID, "attempt", ev.Attempt, "cost", time.Since(start), "error", err)
		return Dead
	}

	shift := ev.Attempt
	if shift > maxBackoffShift {
		shift = maxBackoffShift
	}
	delay := c.backoff << shift
	ev.Attempt++
	if perr := c.retry.PublishRetry(ctx, ev, delay); perr != nil {
		c.log.Error("schedule retry failed", "event_id", ev.ID, "error", perr)
		return Requeue
	}
	c.log.Warn("event failed, retry scheduled", "event_id", ev.ID, "attempt", ev.Attempt, "delay", delay, "error", err)
	return Ack
}
