// Package operations implements the catalog workflows shared by the CLI and
// the admin API: adding, updating, deleting and refreshing items.
package operations

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/blackwell-systems/stashctl/internal/catalog"
	"github.com/blackwell-systems/stashctl/internal/errs"
	"github.com/blackwell-systems/stashctl/internal/github"
	"github.com/blackwell-systems/stashctl/internal/ingest"
	"github.com/blackwell-systems/stashctl/internal/layout"
	"github.com/blackwell-systems/stashctl/internal/logging"
	"github.com/blackwell-systems/stashctl/internal/metadata"
	stashutil "github.com/blackwell-systems/stashctl/internal/util"
)

// Metadata resolves URLs into draft items and refreshable statistics.
type Metadata interface {
	Parse(ctx context.Context, url string) (*catalog.Item, error)
	RepoStats(ctx context.Context, url string) (*metadata.Stats, error)
	Content(ctx context.Context, url string, kind catalog.Kind) (string, error)
	RateLimit(ctx context.Context) (*github.RateLimit, error)
}

// Service owns one site: its records, index, tag registry and images.
type Service struct {
	layout   *layout.Layout
	store    *catalog.Store
	index    *catalog.Index
	registry *catalog.Registry
	images   *ingest.Ingestor
	meta     Metadata
	log      logrus.FieldLogger
	now      func() time.Time

	refreshDelay time.Duration
	minRemaining int
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger; the default discards.
func WithLogger(l logrus.FieldLogger) Option { return func(s *Service) { s.log = l } }

// WithClock overrides the time source for createdAt/updatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
		s.store.SetClock(now)
	}
}

// WithRefresh sets the pause between repositories during batch refresh and
// the API quota below which a refresh refuses to start. A zero minimum
// disables the quota check.
func WithRefresh(delay time.Duration, minRemaining int) Option {
	return func(s *Service) {
		s.refreshDelay = delay
		s.minRemaining = minRemaining
	}
}

// Default refresh pacing.
const (
	DefaultRefreshDelay = 100 * time.Millisecond
	DefaultMinRemaining = 10
)

// New creates a Service for the site at l.
func New(l *layout.Layout, images *ingest.Ingestor, meta Metadata, opts ...Option) *Service {
	s := &Service{
		layout:       l,
		store:        catalog.NewStore(l),
		index:        catalog.NewIndex(l),
		registry:     catalog.NewRegistry(l),
		images:       images,
		meta:         meta,
		log:          logging.Discard(),
		now:          time.Now,
		refreshDelay: DefaultRefreshDelay,
		minRemaining: DefaultMinRemaining,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Layout() *layout.Layout { return s.layout }
func (s *Service) Store() *catalog.Store { return s.store }
func (s *Service) Index() *catalog.Index { return s.index }
func (s *Service) Registry() *catalog.Registry { return s.registry }
func (s *Service) Metadata() Metadata { return s.meta }
func (s *Service) Logger() logrus.FieldLogger { return s.log }
func (s *Service) timestamp() string { return catalog.Timestamp(s.now()) }

// Init creates the data directories, an empty index and the default
// category registry. Existing files are left untouched.
func (s *Service) Init() error {
	for _, dir := range []string{s.layout.ItemsDir(), s.layout.ImagesDir()} {
		if err := stashutil.EnsureDir(s.layout.FS(), dir); err != nil {
			return errs.IO("create dir", dir, err)
		}
	}
	if err := s.index.Ensure(); err != nil {
		return err
	}
	return s.registry.Ensure()
}
