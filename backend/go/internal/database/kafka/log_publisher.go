package kafka

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"LOTR_RAG/backend/go/internal/config"
	"LOTR_RAG/backend/go/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// LogHook is a logrus hook that publishes every entry to a Kafka topic.
// Entries are queued and written by a background goroutine; when the queue is
// full new entries are dropped so logging never blocks a request.
type LogHook struct {
	writer  MessageWriter
	service string
	queue   chan kafka.Message
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
}

var _ logrus.Hook = (*LogHook)(nil)

// NewWriter builds the producer for cfg.Topic.
func NewWriter(cfg config.KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
		Async:        false,
	}
}

// NewLogHook starts the publishing goroutine.
func NewLogHook(writer MessageWriter, serviceName string, bufferSize int) *LogHook {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	h := &LogHook{
		writer:  writer,
		service: serviceName,
		queue:   make(chan kafka.Message, bufferSize),
	}
	h.wg.Add(1)
	go h.run()
	return h
}

func (h *LogHook) run() {
	defer h.wg.Done()
	for msg := range h.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		// Publishing errors cannot be logged through the hooked logger.
		_ = h.writer.WriteMessages(ctx, msg)
		cancel()
	}
}

func (h *LogHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *LogHook) Fire(entry *logrus.Entry) error {
	value, err := json.Marshal(toLogEntry(h.service, entry))
	if err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return nil
	}
	select {
	case h.queue <- kafka.Message{Key: []byte(h.service), Value: value}:
	default:
	}
	return nil
}

// Close flushes the queued entries and closes the writer.
func (h *LogHook) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	close(h.queue)
	h.mu.Unlock()

	h.wg.Wait()
	return h.writer.Close()
}

func toLogEntry(service string, entry *logrus.Entry) models.LogEntry {
	le := models.LogEntry{
		ServiceName: service,
		Level:       entry.Level.String(),
		Message:     entry.Message,
		Timestamp:   entry.Time.UTC().Format(time.RFC3339Nano),
	}
	payload := map[string]interface{}{}
	for k, v := range entry.Data {
		switch k {
		case "service_name":
		case logrus.ErrorKey:
			if err, ok := v.(error); ok {
				le.Error = err.Error()
			}
		case "request_info":
			if ri, ok := v.(models.RequestInfo); ok {
				le.RequestInfo = &ri
			}
		default:
			payload[k] = v
		}
	}
	if len(payload) > 0 {
		le.Payload = payload
	}
	return le
}
