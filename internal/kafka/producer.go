package kafka

import (
	"context"
	"errors"
	"fmt"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"time"
)

// MessageWriter is the part of *kafka.Writer the producer needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer queues messages on an inbox and writes them from one goroutine.
// Each message names its own topic.
type Producer struct {
	w       MessageWriter
	inbox   chan kafka.Message
	closeCh chan struct{}
	log     zerolog.Logger
}

func NewProducer(brokers []string, buf int, log zerolog.Logger) *Producer {
	return NewProducerWithWriter(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}, buf, log)
}

func NewProducerWithWriter(w MessageWriter, buf int, log zerolog.Logger) *Producer {
	return &Producer{
		w:       w,
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
		log:     log,
	}
}

func (p *Producer) Start(ctx context.Context) {
	go func() {
		defer close(p.closeCh)
		defer func() {
			if err := p.w.Close(); err != nil {
				p.log.Error().Err(err).Msg("close kafka writer")
			}
		}()
		for {
			select {
			case <-ctx.Done():
				p.drain()
				return
			case m, ok := <-p.inbox:
				if !ok {
					return
				}
				p.write(m)
			}
		}
	}()
}

func (p *Producer) drain() {
	for {
		select {
		case m, ok := <-p.inbox:
			if !ok {
				return
			}
			p.write(m)
		default:
			return
		}
	}
}

func (p *Producer) write(m kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.w.WriteMessages(ctx, m); err != nil {
		p.log.Error().Err(err).Str("topic", m.Topic).Str("key", string(m.Key)).Msg("kafka write")
	}
}

// ErrQueueFull is returned by Publish when the inbox has no room. The
// message is dropped; callers treat events as best effort.
var ErrQueueFull = errors.New("kafka producer queue full")

// Publish queues a message without blocking.
func (p *Producer) Publish(topic string, key, value []byte, headers ...kafka.Header) error {
	m := kafka.Message{
		Topic:   topic,
		Key:     key,
		Value:   value,
		Time:    time.Now(),
		Headers: headers,
	}
	select {
	case p.inbox <- m:
		return nil
	default:
		return fmt.Errorf("%w: topic %s", ErrQueueFull, topic)
	}
}

// Close stops accepting messages; the loop flushes what is queued and exits.
func (p *Producer) Close() { close(p.inbox) }

func (p *Producer) WaitClosed() { <-p.closeCh }
