package metadata

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Strum355/log"
)

// Embedder embeds metadata into audio files.
type Embedder struct {
	client *http.Client
}

// EmbedderOption configures an Embedder.
type EmbedderOption func(*Embedder)

// WithHTTPClient sets the client used to fetch cover art.
func WithHTTPClient(client *http.Client) EmbedderOption {
	return func(e *Embedder) {
		e.client = client
	}
}

// NewEmbedder creates a new metadata embedder.
func NewEmbedder(opts ...EmbedderOption) *Embedder {
	e := &Embedder{
		client: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Embed writes artist, album and title tags into filePath and, when
// md.CoverURL is set, a front cover picture. Absent values are written as
// empty strings. A cover download failure is returned after the text tags
// have been saved, so the file may be partially tagged.
func (e *Embedder) Embed(ctx context.Context, filePath string, md TrackMetadata, title *string) error {
	if err := ctx.Err(); err != nil {
		return &MetadataError{
			Message:  "Context cancelled",
			Original: err,
		}
	}

	if _, err := os.Stat(filePath); err != nil {
		return &MetadataError{
			Message:  fmt.Sprintf("File not found: %s", filePath),
			Original: err,
		}
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filePath), "."))
	if ext != "mp3" {
		return &MetadataError{
			Message: fmt.Sprintf("Unsupported format %q: %s", ext, filePath),
		}
	}

	if err := e.embedMP3(ctx, filePath, md, title); err != nil {
		return err
	}

	log.WithContext(ctx).Info("metadata_embed_complete")
	return nil
}

// ReadTags reads the tags Embed writes.
func ReadTags(filePath string) (*Tags, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filePath), "."))
	if ext != "mp3" {
		return nil, &MetadataError{
			Message: fmt.Sprintf("Unsupported format %q: %s", ext, filePath),
		}
	}
	return readMP3(filePath)
}
