package kafka

import (
	"context"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"hash/fnv"
	"sync"
	"time"
)

// Handler returns nil only when the message is done and its offset may be
// committed.
type Handler func(ctx context.Context, m kafka.Message) error

// MessageReader is the part of *kafka.Reader the consumer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

const (
	retryBackoff    = 200 * time.Millisecond
	maxRetryBackoff = 10 * time.Second
)

// Consumer hands each partition to exactly one worker, so offsets are
// handled and committed in order. A failing message is retried in place;
// nothing after it on the same partition is committed until it succeeds.
type Consumer struct {
	r          MessageReader
	workers    int
	backoff    time.Duration
	maxBackoff time.Duration
	log        zerolog.Logger
}

func NewConsumer(brokers []string, group string, topics []string, workers int, log zerolog.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		GroupTopics:    topics,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // commit synchronously per message
	})
	return NewConsumerWithReader(r, workers, log)
}

func NewConsumerWithReader(r MessageReader, workers int, log zerolog.Logger) *Consumer {
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{r: r, workers: workers, backoff: retryBackoff, maxBackoff: maxRetryBackoff, log: log}
}

// Start fetches until ctx is done and hands messages to the worker owning
// their partition.
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	lanes := make([]chan kafka.Message, c.workers)
	var wg sync.WaitGroup
	for i := range lanes {
		lanes[i] = make(chan kafka.Message, 64)
		wg.Add(1)
		go func(id int, in <-chan kafka.Message) {
			defer wg.Done()
			for m := range in {
				if !c.handle(ctx, id, h, m) {
					return
				}
			}
		}(i, lanes[i])
	}
	defer wg.Wait()
	defer func() {
		for _, l := range lanes {
			close(l)
		}
	}()

	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		select {
		case lanes[c.lane(m)] <- m:
		case <-ctx.Done():
			return nil
		}
	}
}

func (c *Consumer) lane(m kafka.Message) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(m.Topic))
	return int((h.Sum32() + uint32(m.Partition)) % uint32(c.workers))
}

// handle runs h until it succeeds, then commits. It reports false when ctx
// ended first; the message stays uncommitted and is redelivered.
func (c *Consumer) handle(ctx context.Context, worker int, h Handler, m kafka.Message) bool {
	wait := c.backoff
	for attempt := 1; ; attempt++ {
		err := h(ctx, m)
		if err == nil {
			break
		}
		c.log.Error().Err(err).
			Int("worker", worker).
			Str("topic", m.Topic).
			Int("partition", m.Partition).
			Int64("offset", m.Offset).
			Int("attempt", attempt).
			Msg("handle message")
		select {
		case <-ctx.Done():
			return false
		case <-time.After(wait):
		}
		if wait *= 2; wait > c.maxBackoff {
			wait = c.maxBackoff
		}
	}
	if err := c.r.CommitMessages(ctx, m); err != nil {
		if ctx.Err() != nil {
			return false
		}
		c.log.Error().Err(err).Int("worker", worker).Int64("offset", m.Offset).Msg("commit offset")
	}
	return true
}
