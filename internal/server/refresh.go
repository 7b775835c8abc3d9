package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/blackwell-systems/stashctl/internal/operations"
)

// ErrRefreshRunning is returned when a batch refresh is already in progress.
var ErrRefreshRunning = errors.New("batch refresh is already running")

// Refresh runs one batch refresh unless another is in progress.
func (s *Server) Refresh(ctx context.Context, progress func(operations.Event)) (operations.RefreshSummary, error) {
	s.mu.Lock()
	if s.refreshing {
		s.mu.Unlock()
		return operations.RefreshSummary{}, ErrRefreshRunning
	}
	s.refreshing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.refreshing = false
		s.mu.Unlock()
	}()
	return s.svc.BatchRefresh(ctx, progress)
}

// handleBatchUpdate streams refresh progress as server-sent events. Each
// event is one "data: {json}" line followed by a blank line.
func (s *Server) handleBatchUpdate(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	send := func(e operations.Event) {
		data, err := json.Marshal(e)
		if err != nil {
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}

	_, err := s.Refresh(r.Context(), send)
	if err != nil {
		s.log.WithError(err).Warn("batch refresh failed")
		send(operations.Event{Type: operations.EventError, Message: err.Error()})
	}
}

// StartSchedule runs a batch refresh on the cron schedule spec. A run that
// would overlap one still in progress is skipped.
func (s *Server) StartSchedule(spec string) error {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		sum, err := s.Refresh(context.Background(), nil)
		switch {
		case errors.Is(err, ErrRefreshRunning):
			s.log.Info("scheduled refresh skipped, one is already running")
		case err != nil:
			s.log.WithError(err).Error("scheduled refresh failed")
		default:
			s.log.WithFields(logrus.Fields{
				"total":   sum.Total,
				"updated": sum.Updated,
				"failed":  sum.Failed,
			}).Info("scheduled refresh finished")
		}
	})
	if err != nil {
		return fmt.Errorf("refresh schedule %q: %w", spec, err)
	}

	s.mu.Lock()
	if s.cron != nil {
		s.cron.Stop()
	}
	s.cron = c
	s.mu.Unlock()

	c.Start()
	s.log.WithField("schedule", spec).Info("scheduled batch refresh")
	return nil
}

// StopSchedule stops the refresh schedule, if any. A running refresh is
// not interrupted.
func (s *Server) StopSchedule() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c != nil {
		c.Stop()
	}
}
