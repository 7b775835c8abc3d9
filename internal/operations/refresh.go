package operations

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/blackwell-systems/stashctl/internal/catalog"
	"github.com/blackwell-systems/stashctl/internal/errs"
	"github.com/blackwell-systems/stashctl/internal/metadata"
)

// Event kinds reported during a batch refresh.
const (
	EventStart    = "start"
	EventProgress = "progress"
	EventDone     = "done"
	EventError    = "error"
)

// Event is one batch refresh progress report. The admin API streams these
// as server-sent events.
type Event struct {
	Type    string `json:"type"`
	Total   int    `json:"total,omitempty"`
	Current int    `json:"current,omitempty"`
	ID      string `json:"id,omitempty"`
	Name    string `json:"name,omitempty"`
	Success *bool  `json:"success,omitempty"`
	Stars   int    `json:"stars,omitempty"`
	Forks   int    `json:"forks,omitempty"`
	Message string `json:"message,omitempty"`
	Updated int    `json:"updated,omitempty"`
	Failed  int    `json:"failed,omitempty"`
}

// RefreshSummary counts the outcome of a batch refresh.
type RefreshSummary struct {
	Total   int
	Updated int
	Failed  int
}

// CheckQuota fails with a rate-limit error when fewer than the configured
// minimum API requests remain.
func (s *Service) CheckQuota(ctx context.Context) error {
	if s.minRemaining <= 0 {
		return nil
	}
	rl, err := s.meta.RateLimit(ctx)
	if err != nil {
		return errs.RateLimited("check quota", err)
	}
	s.log.WithFields(logrus.Fields{
		"remaining": rl.Remaining,
		"limit":     rl.Limit,
		"reset":     rl.Reset.Format(time.RFC3339),
	}).Info("GitHub API quota")
	if rl.Remaining < s.minRemaining {
		return errs.RateLimited("check quota", fmt.Errorf(
			"%d of %d requests left until %s, set GITHUB_TOKEN to raise the limit",
			rl.Remaining, rl.Limit, rl.Reset.Format(time.RFC3339)))
	}
	return nil
}

// BatchRefresh re-reads the statistics of every indexed GitHub repository
// and merges them into the records. Failures are reported per repository
// and do not stop the run. progress may be nil.
func (s *Service) BatchRefresh(ctx context.Context, progress func(Event)) (RefreshSummary, error) {
	emit := func(e Event) {
		if progress != nil {
			progress(e)
		}
	}

	var sum RefreshSummary
	if err := s.CheckQuota(ctx); err != nil {
		return sum, err
	}

	items, err := s.Items()
	if err != nil {
		return sum, err
	}
	var repos []catalog.Item
	for _, it := range items {
		if it.Type != catalog.KindRepo {
			continue
		}
		if _, ok := metadata.ParseGitHubURL(it.URL); ok {
			repos = append(repos, it)
		}
	}
	sum.Total = len(repos)
	emit(Event{Type: EventStart, Total: sum.Total})

	for i, it := range repos {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		ev := Event{Type: EventProgress, Current: i + 1, Total: sum.Total, ID: it.ID, Name: it.Name}
		stats, err := s.refreshOne(ctx, it)
		success := err == nil
		ev.Success = &success
		if err != nil {
			sum.Failed++
			ev.Message = err.Error()
			s.log.WithField("item", it.ID).WithError(err).Warn("refresh failed")
		} else {
			sum.Updated++
			ev.Stars, ev.Forks = stats.Stars, stats.Forks
		}
		emit(ev)

		if i < len(repos)-1 && s.refreshDelay > 0 {
			select {
			case <-ctx.Done():
				return sum, ctx.Err()
			case <-time.After(s.refreshDelay):
			}
		}
	}

	emit(Event{Type: EventDone, Total: sum.Total, Updated: sum.Updated, Failed: sum.Failed})
	s.log.WithFields(logrus.Fields{"updated": sum.Updated, "failed": sum.Failed}).Info("batch refresh finished")
	return sum, nil
}

func (s *Service) refreshOne(ctx context.Context, it catalog.Item) (*metadata.Stats, error) {
	stats, err := s.meta.RepoStats(ctx, it.URL)
	if err != nil {
		return nil, err
	}
	_, err = s.store.Update(it.ID, func(rec *catalog.Item) error {
		if rec.GitHub == nil {
			rec.GitHub = &catalog.GitHubMeta{Topics: []string{}}
		}
		stats.Apply(rec.GitHub)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}
