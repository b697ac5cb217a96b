package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lrstanley/go-ytdlp"
)

// fragmentSuffixes mark partial downloads yt-dlp leaves behind.
var fragmentSuffixes = []string{".part", ".ytdl", ".temp"}

// candidateExtensions are tried, in order, after OutputFormat when the
// post-processor did not produce the expected file.
var candidateExtensions = []string{"m4a", "webm", "opus", "ogg", "aac", "flac"}

// Extract downloads and transcodes url into outputTemplate. The template uses
// yt-dlp syntax and should end in ".%(ext)s".
func (p *Provider) Extract(ctx context.Context, url, outputTemplate, cookieFile string) (*ExtractionResult, error) {
	dl := p.command(outputTemplate, cookieFile)

	// "--" ends option parsing so url is always positional, even when it starts with a dash.
	result, err := dl.Run(ctx, "--", url)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, &TimeoutError{
				Message:  "yt-dlp did not finish before the deadline",
				Original: ctxErr,
			}
		}
		return nil, &ExtractionError{
			Message:  "yt-dlp download failed",
			Original: errors.New(failureDetail(result, err)),
		}
	}

	var title *string
	if infos, infoErr := result.GetExtractedInfo(); infoErr == nil {
		for _, info := range infos {
			if info != nil && info.Title != nil && *info.Title != "" {
				t := *info.Title
				title = &t
				break
			}
		}
	}

	path, err := ResolveOutput(outputTemplate)
	if err != nil {
		return nil, err
	}

	return &ExtractionResult{
		FilePath: path,
		Title:    title,
	}, nil
}

// command builds the yt-dlp invocation for a single audio-only download.
func (p *Provider) command(outputTemplate, cookieFile string) *ytdlp.Command {
	dl := ytdlp.New().
		SetExecutable(p.config.Binary).
		Format(p.config.FormatSelector).
		NoPlaylist().
		ExtractAudio().
		AudioFormat(OutputFormat).
		AudioQuality(p.config.AudioQuality).
		Output(outputTemplate).
		PrintJSON().
		Quiet().
		NoWarnings().
		NoProgress()

	if cookieFile != "" {
		dl = dl.Cookies(cookieFile)
	}
	return dl
}

// failureDetail picks the most useful message for a failed run.
func failureDetail(result *ytdlp.Result, err error) string {
	if result != nil {
		if stderr := strings.TrimSpace(result.Stderr); stderr != "" {
			lines := strings.Split(stderr, "\n")
			return strings.TrimSpace(lines[len(lines)-1])
		}
	}
	return err.Error()
}

// ResolveOutput finds the file yt-dlp produced for outputTemplate. The
// post-processor replaces the source extension, so the template path is
// never assumed to be final.
func ResolveOutput(outputTemplate string) (string, error) {
	base := strings.TrimSuffix(outputTemplate, ".%(ext)s")
	base = strings.TrimSuffix(base, filepath.Ext(base))

	for _, ext := range append([]string{OutputFormat}, candidateExtensions...) {
		candidate := base + "." + ext
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	dir := filepath.Dir(base)
	prefix := filepath.Base(base) + "."
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", &ExtractionError{
			Message:  fmt.Sprintf("Failed to read output directory %s", dir),
			Original: err,
		}
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || isFragment(name) {
			continue
		}
		return filepath.Join(dir, name), nil
	}

	return "", &ExtractionError{
		Message: fmt.Sprintf("Downloaded file not found for %s", outputTemplate),
	}
}

func isFragment(name string) bool {
	for _, suffix := range fragmentSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return strings.Contains(name, ".frag") || strings.HasSuffix(name, ".info.json")
}
