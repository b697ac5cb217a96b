package audio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
}

func TestResolveOutput(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		want  string
	}{
		{name: "transcoded mp3", files: []string{"audio.mp3"}, want: "audio.mp3"},
		{name: "mp3 preferred over source", files: []string{"audio.webm", "audio.mp3"}, want: "audio.mp3"},
		{name: "post-processor skipped", files: []string{"audio.m4a"}, want: "audio.m4a"},
		{name: "unknown extension", files: []string{"audio.mka"}, want: "audio.mka"},
		{name: "fragments ignored", files: []string{"audio.webm.part", "audio.f251.webm.frag1", "audio.mka"}, want: "audio.mka"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, f := range tt.files {
				touch(t, filepath.Join(dir, f))
			}

			got, err := ResolveOutput(filepath.Join(dir, "audio.%(ext)s"))
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, tt.want), got)
		})
	}
}

func TestResolveOutputNothingProduced(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "audio.webm.part"))
	touch(t, filepath.Join(dir, "cookies.txt"))

	_, err := ResolveOutput(filepath.Join(dir, "audio.%(ext)s"))

	var extErr *ExtractionError
	require.True(t, errors.As(err, &extErr))
	assert.Contains(t, extErr.Error(), "Downloaded file not found")
}

func TestResolveOutputMissingDirectory(t *testing.T) {
	_, err := ResolveOutput(filepath.Join(t.TempDir(), "gone", "audio.%(ext)s"))

	var extErr *ExtractionError
	assert.True(t, errors.As(err, &extErr))
}

func TestExtractMissingBinary(t *testing.T) {
	p := NewProvider(&Config{Binary: filepath.Join(t.TempDir(), "no-such-yt-dlp")})

	_, err := p.Extract(context.Background(), "https://example.com/watch?v=1", filepath.Join(t.TempDir(), "audio.%(ext)s"), "")

	var extErr *ExtractionError
	require.True(t, errors.As(err, &extErr))
	assert.Error(t, p.CheckBinary())
}

func TestExtractCancelledContextIsTimeout(t *testing.T) {
	p := NewProvider(&Config{Binary: filepath.Join(t.TempDir(), "no-such-yt-dlp")})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Extract(ctx, "https://example.com/watch?v=1", filepath.Join(t.TempDir(), "audio.%(ext)s"), "")

	var timeoutErr *TimeoutError
	require.True(t, errors.As(err, &timeoutErr))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConfigDefaults(t *testing.T) {
	p := NewProvider(&Config{})
	assert.Equal(t, "yt-dlp", p.config.Binary)
	assert.Equal(t, "bestaudio/best", p.config.FormatSelector)
	assert.Equal(t, "192K", p.config.AudioQuality)
}

func TestErrorMessages(t *testing.T) {
	orig := errors.New("HTTP Error 403: Forbidden")

	err := &ExtractionError{Message: "yt-dlp download failed", Original: orig}
	assert.Equal(t, "yt-dlp download failed: HTTP Error 403: Forbidden", err.Error())
	assert.Same(t, orig, errors.Unwrap(err))

	assert.Equal(t, "plain", (&ExtractionError{Message: "plain"}).Error())
	assert.Equal(t, "deadline", (&TimeoutError{Message: "deadline"}).Error())
}
