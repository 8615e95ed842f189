package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrNotStarted is returned when emitting before Start or after Stop
	ErrNotStarted = errors.New("event dispatcher not started")
	// ErrBufferFull is returned when the event could not be queued
	ErrBufferFull = errors.New("event buffer full")
)

// Dispatcher hands events to a Publisher from a pool of background workers
// so request handlers never wait on the broker.
type Dispatcher struct {
	publisher      Publisher
	logger         *zap.Logger
	events         chan *Event
	workerCount    int
	bufferSize     int
	publishTimeout time.Duration
	wg             sync.WaitGroup
	ctx            context.Context
	cancel         context.CancelFunc
	started        bool
	stopped        bool
	mu             sync.Mutex
}

// Config holds configuration for the Dispatcher
type Config struct {
	BufferSize     int
	WorkerCount    int
	PublishTimeout time.Duration
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BufferSize:     1000,
		WorkerCount:    2,
		PublishTimeout: 5 * time.Second,
	}
}

// NewDispatcher creates a dispatcher. Zero config values take their defaults.
func NewDispatcher(publisher Publisher, logger *zap.Logger, cfg Config) *Dispatcher {
	def := DefaultConfig()
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = def.BufferSize
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = def.WorkerCount
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = def.PublishTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		publisher:      publisher,
		logger:         logger,
		events:         make(chan *Event, cfg.BufferSize),
		workerCount:    cfg.WorkerCount,
		bufferSize:     cfg.BufferSize,
		publishTimeout: cfg.PublishTimeout,
		ctx:            ctx,
		cancel:         cancel,
	}
}

// Start starts the background workers
func (d *Dispatcher) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return fmt.Errorf("event dispatcher already started")
	}

	for i := 0; i < d.workerCount; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}

	d.started = true
	d.logger.Info("started event dispatcher",
		zap.Int("worker_count", d.workerCount),
		zap.Int("buffer_size", d.bufferSize))

	return nil
}

// Stop drains queued events and waits for the workers up to timeout
func (d *Dispatcher) Stop(timeout time.Duration) error {
	d.mu.Lock()
	if !d.started || d.stopped {
		d.mu.Unlock()
		return ErrNotStarted
	}
	d.stopped = true
	close(d.events)
	d.mu.Unlock()

	d.logger.Info("stopping event dispatcher", zap.Int("pending_events", len(d.events)))

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("event dispatcher stopped gracefully")
		d.cancel()
		return nil
	case <-time.After(timeout):
		d.cancel()
		return fmt.Errorf("event dispatcher stop timeout after %v", timeout)
	}
}

// Emit queues an event without blocking. A full buffer drops the event.
func (d *Dispatcher) Emit(event *Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.started || d.stopped {
		return ErrNotStarted
	}

	select {
	case d.events <- event:
		return nil
	default:
		d.logger.Warn("event buffer full, dropping event",
			zap.String("type", string(event.Type)),
			zap.Int64("user_id", event.UserID))
		return ErrBufferFull
	}
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()

	d.logger.Debug("event worker started", zap.Int("worker_id", id))

	for event := range d.events {
		if err := d.publish(event); err != nil {
			d.logger.Error("failed to publish event",
				zap.Int("worker_id", id),
				zap.Error(err),
				zap.String("event_id", event.ID),
				zap.String("type", string(event.Type)))
		}
	}

	d.logger.Debug("event worker stopped", zap.Int("worker_id", id))
}

func (d *Dispatcher) publish(event *Event) error {
	ctx, cancel := context.WithTimeout(d.ctx, d.publishTimeout)
	defer cancel()
	return d.publisher.Publish(ctx, event)
}

// Stats returns a snapshot of the dispatcher state
func (d *Dispatcher) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()

	return Stats{
		BufferSize:    d.bufferSize,
		PendingEvents: len(d.events),
		WorkerCount:   d.workerCount,
		Started:       d.started && !d.stopped,
	}
}

// Stats represents dispatcher statistics
type Stats struct {
	BufferSize    int
	PendingEvents int
	WorkerCount   int
	Started       bool
}
