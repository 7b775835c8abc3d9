// Package ingest turns image sources (URLs, local paths, GitHub files) into
// the processed assets stored under an item's image directory.
package ingest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/blackwell-systems/stashctl/internal/errs"
	"github.com/blackwell-systems/stashctl/internal/layout"
	"github.com/blackwell-systems/stashctl/internal/logging"
	"github.com/blackwell-systems/stashctl/internal/media"
	stashutil "github.com/blackwell-systems/stashctl/internal/util"
)

const (
	// DefaultUserAgent mimics a desktop browser; several image hosts refuse
	// obvious bots.
	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)"
	DefaultTimeout   = 30 * time.Second
	defaultMaxBytes  = 50 << 20
)

// Result lists the public paths of the stored assets. Thumbnail is empty
// when no thumbnail was produced.
type Result struct {
	Images    []string
	Thumbnail string
}

// Ingestor owns the per-item image directories of a site.
type Ingestor struct {
	layout    *layout.Layout
	detector  *media.Detector
	client    *http.Client
	userAgent string
	github    RawContentGetter
	maxBytes  int64
	log       logrus.FieldLogger
}

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithHTTPClient replaces the client used for remote sources.
func WithHTTPClient(c *http.Client) Option { return func(in *Ingestor) { in.client = c } }

// WithUserAgent overrides DefaultUserAgent.
func WithUserAgent(ua string) Option {
	return func(in *Ingestor) {
		if ua != "" {
			in.userAgent = ua
		}
	}
}

// WithGitHub enables github: sources.
func WithGitHub(g RawContentGetter) Option { return func(in *Ingestor) { in.github = g } }

// WithLogger sets the logger; the default discards.
func WithLogger(l logrus.FieldLogger) Option { return func(in *Ingestor) { in.log = l } }

// WithDetector replaces the default format detector.
func WithDetector(d *media.Detector) Option { return func(in *Ingestor) { in.detector = d } }

// WithMaxBytes caps the size of a single source.
func WithMaxBytes(n int64) Option { return func(in *Ingestor) { in.maxBytes = n } }

// New creates an Ingestor writing under l.
func New(l *layout.Layout, opts ...Option) *Ingestor {
	in := &Ingestor{
		layout:    l,
		detector:  media.NewDetector(),
		client:    &http.Client{Timeout: DefaultTimeout},
		userAgent: DefaultUserAgent,
		maxBytes:  defaultMaxBytes,
		log:       logging.Discard(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Ingest stores sources as 1.ext … N.ext plus a thumbnail of the first one.
// It either stores everything or nothing: on any error the assets written
// by this call are removed and the error is returned.
func (in *Ingestor) Ingest(ctx context.Context, sources []string, itemID string) (Result, error) {
	return in.IngestFrom(ctx, sources, itemID, 1)
}

// IngestFrom is Ingest with ordinals starting at start, for appending to an
// item that already has images. A thumbnail is produced only for ordinal 1.
func (in *Ingestor) IngestFrom(ctx context.Context, sources []string, itemID string, start int) (Result, error) {
	res := Result{Images: []string{}}
	if len(sources) == 0 {
		return res, nil
	}
	if err := layout.ValidateID(itemID); err != nil {
		return res, err
	}
	if start < 1 {
		start = 1
	}

	ws, err := openWorkspace(in.layout, itemID)
	if err != nil {
		return res, err
	}
	defer ws.rollback()

	for i, input := range sources {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		ordinal := start + i
		asset, thumb, err := in.process(ctx, ws, itemID, ordinal, input)
		if err != nil {
			in.log.WithFields(logrus.Fields{
				"item":    itemID,
				"ordinal": ordinal,
				"source":  input,
			}).WithError(err).Warn("ingestion aborted")
			return Result{}, err
		}
		res.Images = append(res.Images, asset)
		if thumb != "" {
			res.Thumbnail = thumb
		}
	}

	if err := ws.commit(); err != nil {
		return Result{}, err
	}
	return res, nil
}

func (in *Ingestor) process(ctx context.Context, ws *workspace, itemID string, ordinal int, input string) (string, string, error) {
	src, err := in.acquire(ctx, input)
	if err != nil {
		return "", "", err
	}

	format := in.detector.Detect(src.Data, input)
	animated := media.IsAnimated(src.Data, format)
	log := in.log.WithFields(logrus.Fields{
		"item":     itemID,
		"ordinal":  ordinal,
		"source":   src.Name,
		"format":   format.Ext(),
		"animated": animated,
		"sha256":   stashutil.ShortSHA256(src.Data),
	})

	var (
		full, thumb       []byte
		fullExt, thumbExt string
		wantThumb         = ordinal == 1
	)

	switch {
	case format.IsVector():
		full, fullExt = src.Data, format.Ext()
		if wantThumb {
			if thumb, err = rasterizeSVG(src.Data, ThumbWidth, ThumbHeight); err != nil {
				return "", "", err
			}
			thumbExt = media.PNG.Ext()
		}

	case animated:
		fullExt = format.Ext()
		full, err = resizeAnimation(src.Data, format, MaxWidth, MaxHeight, false)
		if err != nil {
			log.WithError(err).Info("keeping original animation bytes")
			full = src.Data
		}
		if wantThumb {
			thumbExt = format.Ext()
			thumb, err = resizeAnimation(src.Data, format, ThumbWidth, ThumbHeight, true)
			if err != nil {
				log.WithError(err).Info("keeping original animation bytes for thumbnail")
				thumb = src.Data
			}
		}

	default:
		img, err := decodeRaster(src.Data, input)
		if err != nil {
			return "", "", err
		}
		if full, err = fitJPEG(img); err != nil {
			return "", "", err
		}
		fullExt = media.JPEG.Ext()
		if wantThumb {
			if thumb, err = coverJPEG(img); err != nil {
				return "", "", err
			}
			thumbExt = media.JPEG.Ext()
		}
	}

	name := fmt.Sprintf("%d.%s", ordinal, fullExt)
	if err := ws.write(name, full); err != nil {
		return "", "", err
	}
	asset := in.layout.PublicImagePath(itemID, name)
	log.WithField("asset", asset).Debug("stored image")

	if !wantThumb {
		return asset, "", nil
	}
	thumbName := "thumb." + thumbExt
	if err := ws.write(thumbName, thumb); err != nil {
		return "", "", err
	}
	return asset, in.layout.PublicImagePath(itemID, thumbName), nil
}

// Remove deletes an item's image directory. A missing directory is fine.
func (in *Ingestor) Remove(itemID string) error {
	if err := layout.ValidateID(itemID); err != nil {
		return err
	}
	dir := in.layout.ImageDir(itemID)
	if err := stashutil.RemoveAll(in.layout.FS(), dir); err != nil {
		return errs.IO("remove image dir", dir, err)
	}
	return nil
}
