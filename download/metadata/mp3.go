package metadata

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/Strum355/log"
	"github.com/bogem/id3v2/v2"
)

// maxCoverBytes caps how much of a cover response is read.
const maxCoverBytes = 10 << 20

// embedMP3 embeds metadata in MP3 file.
func (e *Embedder) embedMP3(ctx context.Context, filePath string, md TrackMetadata, title *string) error {
	// Open or create ID3 tag
	tag, err := id3v2.Open(filePath, id3v2.Options{Parse: true})
	if err != nil {
		// Unparseable tag: start a fresh one in front of the audio
		tag, err = id3v2.Open(filePath, id3v2.Options{Parse: false})
		if err != nil {
			return &MetadataError{
				Message:  fmt.Sprintf("Failed to open MP3 file: %s", filePath),
				Original: err,
			}
		}
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)

	tag.SetArtist(StringOrEmpty(md.Artist))
	tag.SetAlbum(StringOrEmpty(md.Album))
	tag.SetTitle(StringOrEmpty(title))

	var coverErr error
	if md.CoverURL != nil && *md.CoverURL != "" {
		coverErr = e.embedCoverMP3(ctx, tag, *md.CoverURL)
		if coverErr != nil {
			log.WithContext(ctx).WithError(coverErr).Warn("cover_art_download_failed")
		}
	}

	if err := tag.Save(); err != nil {
		return &MetadataError{
			Message:  "Failed to save MP3 metadata",
			Original: err,
		}
	}

	if coverErr != nil {
		return &MetadataError{
			Message:  "Saved text tags without cover art",
			Original: coverErr,
		}
	}
	return nil
}

// embedCoverMP3 embeds cover art in MP3 file.
func (e *Embedder) embedCoverMP3(ctx context.Context, tag *id3v2.Tag, coverURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, coverURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download cover art: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download cover art: status %d", resp.StatusCode)
	}

	coverData, err := io.ReadAll(io.LimitReader(resp.Body, maxCoverBytes))
	if err != nil {
		return fmt.Errorf("failed to read cover art: %w", err)
	}
	if len(coverData) == 0 {
		return fmt.Errorf("failed to download cover art: empty body")
	}

	mimeType := http.DetectContentType(coverData)
	if mimeType != "image/png" {
		mimeType = "image/jpeg"
	}

	// Replace any existing cover art
	tag.DeleteFrames(tag.CommonID("Attached picture"))
	tag.AddAttachedPicture(id3v2.PictureFrame{
		Encoding:    id3v2.EncodingUTF8,
		MimeType:    mimeType,
		PictureType: id3v2.PTFrontCover,
		Description: "Cover",
		Picture:     coverData,
	})

	return nil
}

// readMP3 reads the ID3v2 frames written by embedMP3.
func readMP3(filePath string) (*Tags, error) {
	tag, err := id3v2.Open(filePath, id3v2.Options{Parse: true})
	if err != nil {
		return nil, &MetadataError{
			Message:  fmt.Sprintf("Failed to read MP3 tags: %s", filePath),
			Original: err,
		}
	}
	defer tag.Close()

	tags := &Tags{
		Title:  tag.Title(),
		Artist: tag.Artist(),
		Album:  tag.Album(),
	}
	for _, frame := range tag.GetFrames(tag.CommonID("Attached picture")) {
		pic, ok := frame.(id3v2.PictureFrame)
		if !ok || pic.PictureType != id3v2.PTFrontCover {
			continue
		}
		tags.HasCover = true
		tags.CoverMIME = pic.MimeType
		break
	}
	return tags, nil
}
