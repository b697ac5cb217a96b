package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Strum355/log"
	"golang.org/x/sync/semaphore"

	"github.com/sv4u/audiodl/download/audio"
	"github.com/sv4u/audiodl/download/credentials"
	"github.com/sv4u/audiodl/download/logging"
	"github.com/sv4u/audiodl/download/metadata"
	"github.com/sv4u/audiodl/download/workspace"
)

// outputStem is the file stem every extraction writes inside its workspace.
const outputStem = "audio"

// ErrMissingURL is returned when a request carries no URL.
var ErrMissingURL = errors.New("missing URL")

// MetadataLookup finds enrichment data for a title. Implementations must not fail.
type MetadataLookup interface {
	Lookup(ctx context.Context, title string) metadata.TrackMetadata
}

// TagEmbedder writes metadata into a produced audio file.
type TagEmbedder interface {
	Embed(ctx context.Context, filePath string, md metadata.TrackMetadata, title *string) error
}

// Config holds pipeline limits.
type Config struct {
	// Timeout bounds one Fetch, including the wait for an extraction slot.
	Timeout time.Duration
	// MaxConcurrent caps simultaneous yt-dlp runs.
	MaxConcurrent int64
}

// Service turns a media URL into a tagged audio file.
type Service struct {
	workspaces  *workspace.Manager
	credentials *credentials.Provisioner
	extractor   audio.Extractor
	lookup      MetadataLookup
	embedder    TagEmbedder
	slots       *semaphore.Weighted
	timeout     time.Duration
}

// NewService creates a new download service. lookup may be nil to disable enrichment.
func NewService(cfg *Config, workspaces *workspace.Manager, creds *credentials.Provisioner, extractor audio.Extractor, lookup MetadataLookup, embedder TagEmbedder) (*Service, error) {
	if workspaces == nil || creds == nil || extractor == nil || embedder == nil {
		return nil, fmt.Errorf("download service: workspaces, credentials, extractor and embedder are required")
	}
	if cfg.MaxConcurrent < 1 {
		return nil, fmt.Errorf("download service: max concurrent must be at least 1, got %d", cfg.MaxConcurrent)
	}

	return &Service{
		workspaces:  workspaces,
		credentials: creds,
		extractor:   extractor,
		lookup:      lookup,
		embedder:    embedder,
		slots:       semaphore.NewWeighted(cfg.MaxConcurrent),
		timeout:     cfg.Timeout,
	}, nil
}

// Download is a produced audio file. The caller must Close it once the
// file has been delivered; Close removes the whole workspace.
type Download struct {
	FilePath       string
	Title          *string
	AttachmentName string
	Metadata       metadata.TrackMetadata
	// TagError is the swallowed embedding failure, if any.
	TagError error

	ws *workspace.Workspace
}

// Close releases the workspace holding the file.
func (d *Download) Close() error {
	if d.ws == nil {
		return nil
	}
	return d.ws.Release()
}

// Fetch runs the pipeline: workspace, credentials, extraction, metadata
// lookup, tag embedding. Lookup and embedding never fail the call. On error
// the workspace has already been released.
func (s *Service) Fetch(ctx context.Context, url string) (_ *Download, err error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, ErrMissingURL
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	ctx = logging.WithFields(ctx, log.Fields{"url": url})

	ws, err := s.workspaces.Acquire(ctx)
	if err != nil {
		return nil, asTimeout(ctx, fmt.Errorf("failed to acquire workspace: %w", err))
	}
	defer func() {
		r := recover()
		if err != nil || r != nil {
			if releaseErr := ws.Release(); releaseErr != nil {
				log.WithContext(ctx).WithError(releaseErr).Error("workspace_release_failed")
			}
		}
		if r != nil {
			panic(r)
		}
	}()

	cookieFile, err := s.credentials.Provision(ws)
	if err != nil {
		return nil, err
	}

	result, err := s.extract(ctx, url, ws.Join(outputStem+".%(ext)s"), cookieFile)
	if cookieFile != "" {
		_ = os.Remove(cookieFile)
	}
	if err != nil {
		log.WithContext(ctx).WithError(err).Error("extraction_failed")
		return nil, err
	}
	log.WithContext(ctx).Info("extraction_complete")

	md := metadata.TrackMetadata{}
	if s.lookup != nil && result.Title != nil {
		md = s.lookup.Lookup(ctx, *result.Title)
	}

	tagErr := s.embedder.Embed(ctx, result.FilePath, md, result.Title)
	if tagErr != nil {
		log.WithContext(ctx).WithError(tagErr).Error("metadata_embed_failed")
	}

	return &Download{
		FilePath:       result.FilePath,
		Title:          result.Title,
		AttachmentName: audio.AttachmentName(result.Title),
		Metadata:       md,
		TagError:       tagErr,
		ws:             ws,
	}, nil
}

// extract runs the extractor inside a concurrency slot.
func (s *Service) extract(ctx context.Context, url, outputTemplate, cookieFile string) (*audio.ExtractionResult, error) {
	if err := s.slots.Acquire(ctx, 1); err != nil {
		return nil, &audio.TimeoutError{
			Message:  "no extraction slot became free before the deadline",
			Original: err,
		}
	}
	defer s.slots.Release(1)

	log.WithContext(ctx).Info("extraction_start")
	result, err := s.extractor.Extract(ctx, url, outputTemplate, cookieFile)
	if err != nil {
		var extErr *audio.ExtractionError
		var timeoutErr *audio.TimeoutError
		if errors.As(err, &extErr) || errors.As(err, &timeoutErr) {
			return nil, err
		}
		return nil, asTimeout(ctx, &audio.ExtractionError{Message: "extraction failed", Original: err})
	}
	return result, nil
}

// asTimeout converts err into a TimeoutError when ctx has expired.
func asTimeout(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &audio.TimeoutError{Message: "request deadline exceeded", Original: ctxErr}
	}
	return err
}
