package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/meghashyamc/findlines/db/kvdb"
	"github.com/meghashyamc/findlines/logger"
)

// Service runs searches asynchronously, one at a time, from a bounded queue.
// Progress and results are persisted in the store under the request id.
type Service struct {
	logger   logger.Logger
	searcher *Searcher
	store    Store
	jobs     chan searchJob
	done     chan struct{}
}

type searchJob struct {
	requestID string
	request   Request
}

// NewService starts the search worker, which runs until ctx is done.
func NewService(ctx context.Context, logger logger.Logger, searcher *Searcher, store Store, queueSize int) *Service {
	service := &Service{
		logger:   logger,
		searcher: searcher,
		store:    store,
		jobs:     make(chan searchJob, max(1, queueSize)),
		done:     make(chan struct{}),
	}

	go service.run(ctx)
	return service
}

func (s *Service) Searcher() *Searcher {
	return s.searcher
}

// Done is closed once the search worker has stopped.
func (s *Service) Done() <-chan struct{} {
	return s.done
}

// Start queues request and returns its id.
func (s *Service) Start(request Request) (string, error) {
	requestID := uuid.New().String()
	s.setRequestStatus(requestID, ProgressStatusQueued)

	select {
	case s.jobs <- searchJob{requestID: requestID, request: request}:
		return requestID, nil
	default:
		if err := s.store.Delete(kvdb.RequestsBucket, requestID); err != nil {
			s.logger.Error("failed to delete request status", "request_id", requestID, "err", err.Error())
		}
		s.logger.Warn("search queue is full", "request_id", requestID)
		return "", ErrSearchQueueFull
	}
}

// Status returns the progress of a request.
func (s *Service) Status(requestID string) (int, error) {
	value, err := s.store.Get(kvdb.RequestsBucket, requestID)
	if err != nil {
		return 0, fmt.Errorf("request not found: %w", err)
	}

	status, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid status value: %w", err)
	}

	return status, nil
}

// Results returns the request and results of a completed search.
func (s *Service) Results(requestID string) (*Outcome, error) {
	status, err := s.Status(requestID)
	if err != nil {
		return nil, err
	}
	if status != ProgressStatusComplete {
		return nil, ErrSearchNotComplete
	}

	value, err := s.store.Get(kvdb.ResultsBucket, requestID)
	if err != nil {
		return nil, fmt.Errorf("results not found: %w", err)
	}

	var outcome Outcome
	if err := json.Unmarshal([]byte(value), &outcome); err != nil {
		s.logger.Error("failed to unmarshal results", "request_id", requestID, "err", err.Error())
		return nil, fmt.Errorf("failed to unmarshal results: %w", err)
	}

	return &outcome, nil
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	for {
		select {
		case job := <-s.jobs:
			s.process(ctx, job)
		case <-ctx.Done():
			s.logger.Info("search service stopped", "reason", ctx.Err())
			return
		}
	}
}

func (s *Service) process(ctx context.Context, job searchJob) {
	s.setRequestStatus(job.requestID, ProgressStatusRunning)

	results, err := s.searcher.Run(ctx, job.request)
	if err != nil {
		s.logger.Error("search failed", "request_id", job.requestID, "err", err.Error())
		s.setRequestStatus(job.requestID, ProgressStatusFailed)
		return
	}

	data, err := json.Marshal(Outcome{Request: job.request, Results: results})
	if err != nil {
		s.logger.Error("failed to marshal results", "request_id", job.requestID, "err", err.Error())
		s.setRequestStatus(job.requestID, ProgressStatusFailed)
		return
	}

	if err := s.store.Set(kvdb.ResultsBucket, job.requestID, string(data)); err != nil {
		s.logger.Error("failed to store results", "request_id", job.requestID, "err", err.Error())
		s.setRequestStatus(job.requestID, ProgressStatusFailed)
		return
	}

	s.setRequestStatus(job.requestID, ProgressStatusComplete)
}

func (s *Service) setRequestStatus(requestID string, status int) {
	if err := s.store.Set(kvdb.RequestsBucket, requestID, strconv.Itoa(status)); err != nil {
		s.logger.Error("failed to update request status", "request_id", requestID, "progress", status, "err", err.Error())
	}
}
