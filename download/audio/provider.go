package audio

import (
	"context"
	"fmt"
	"os/exec"
)

const (
	// OutputFormat is the container every extraction is transcoded to.
	OutputFormat = "mp3"
	// MIMEType is the content type of OutputFormat.
	MIMEType = "audio/mpeg"

	defaultFormatSelector = "bestaudio/best"
	defaultAudioQuality   = "192K"
	defaultBinary         = "yt-dlp"
)

// ExtractionResult is the outcome of a successful extraction.
type ExtractionResult struct {
	// FilePath is the produced audio file. It may differ from the output
	// template because the post-processor rewrites the extension.
	FilePath string
	// Title is the source-reported title, nil when the source has none.
	Title *string
}

// Extractor downloads the best available audio stream for a URL and
// transcodes it into OutputFormat.
type Extractor interface {
	Extract(ctx context.Context, url, outputTemplate, cookieFile string) (*ExtractionResult, error)
}

// Config holds configuration for the yt-dlp backed extractor.
type Config struct {
	// Binary is the yt-dlp executable name or path.
	Binary string
	// FormatSelector is passed to --format.
	FormatSelector string
	// AudioQuality is passed to --audio-quality, e.g. "192K".
	AudioQuality string
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Binary == "" {
		c.Binary = defaultBinary
	}
	if c.FormatSelector == "" {
		c.FormatSelector = defaultFormatSelector
	}
	if c.AudioQuality == "" {
		c.AudioQuality = defaultAudioQuality
	}
}

// Provider is an Extractor that drives yt-dlp and its ffmpeg post-processor.
type Provider struct {
	config *Config
}

// NewProvider creates a new yt-dlp provider.
func NewProvider(config *Config) *Provider {
	cfg := *config
	cfg.SetDefaults()
	return &Provider{config: &cfg}
}

// CheckBinary verifies that yt-dlp can be found.
func (p *Provider) CheckBinary() error {
	if _, err := exec.LookPath(p.config.Binary); err != nil {
		return fmt.Errorf("yt-dlp executable %q not found: %w", p.config.Binary, err)
	}
	return nil
}
