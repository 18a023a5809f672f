// Package audit records auth events (logins, logouts, redirects, guard
// rejections) asynchronously so the request path never blocks on the
// database.
package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/travelhub/travel-hub/models"
	"github.com/travelhub/travel-hub/repositories"
	"go.uber.org/zap"
)

// Service handles asynchronous auth-event logging through a buffered
// channel and a pool of workers. Enqueue is fire-and-forget: when the
// buffer is full the event is dropped with a warning rather than stalling
// a login.
type Service struct {
	repo        repositories.AuditRepository // optional, may be nil (log-only mode)
	logger      *zap.Logger
	eventChan   chan *models.AuthEvent
	workerCount int
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	started     bool
	mu          sync.Mutex
}

// Config holds configuration for the audit Service.
type Config struct {
	BufferSize  int
	WorkerCount int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		BufferSize:  1024,
		WorkerCount: 2,
	}
}

// NewService creates a new audit Service. repo may be nil, in which case
// events are only logged.
func NewService(repo repositories.AuditRepository, logger *zap.Logger, cfg Config) *Service {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = DefaultConfig().WorkerCount
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		repo:        repo,
		logger:      logger,
		eventChan:   make(chan *models.AuthEvent, cfg.BufferSize),
		workerCount: cfg.WorkerCount,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start starts the background workers.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("audit service already started")
	}

	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.started = true
	s.logger.Info("audit service started",
		zap.Int("worker_count", s.workerCount),
		zap.Int("buffer_size", cap(s.eventChan)))
	return nil
}

// Record enqueues an event. Never blocks: a full buffer drops the event.
// Events recorded before Start or after Stop are logged directly.
func (s *Service) Record(event *models.AuthEvent) {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		s.persist(event)
		return
	}

	select {
	case s.eventChan <- event:
	default:
		s.logger.Warn("audit buffer full, dropping event",
			zap.String("type", string(event.Type)))
	}
}

// Stop drains pending events and stops the workers. Waits up to timeout.
func (s *Service) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	s.mu.Unlock()

	close(s.eventChan)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		s.cancel()
		return fmt.Errorf("audit service stop timed out after %s", timeout)
	}

	s.cancel()
	s.logger.Info("audit service stopped")
	return nil
}

func (s *Service) worker(id int) {
	defer s.wg.Done()
	s.logger.Debug("audit worker started", zap.Int("worker", id))

	for event := range s.eventChan {
		s.persist(event)
	}
}

func (s *Service) persist(event *models.AuthEvent) {
	fields := []zap.Field{
		zap.String("type", string(event.Type)),
		zap.String("source", event.Source),
		zap.String("email", event.Email),
	}

	if s.repo == nil {
		s.logger.Info("auth event", fields...)
		return
	}

	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()

	if err := s.repo.Create(ctx, event); err != nil {
		s.logger.Error("persist auth event failed", append(fields, zap.Error(err))...)
		return
	}
	s.logger.Debug("auth event recorded", fields...)
}
