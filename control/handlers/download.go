package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"os"
	"strconv"

	"github.com/Strum355/log"

	"github.com/sv4u/audiodl/download"
	"github.com/sv4u/audiodl/download/audio"
	"github.com/sv4u/audiodl/download/credentials"
	"github.com/sv4u/audiodl/download/logging"
)

// maxRequestBody caps the JSON body of POST /download.
const maxRequestBody = 64 << 10

type downloadRequest struct {
	URL string `json:"url"`
}

// Download handles POST /download - extract audio for a URL and return it
// as an mp3 attachment.
func (h *Handlers) Download(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req downloadRequest
	// A body that does not decode carries no usable URL.
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req); err != nil {
		req.URL = ""
	}

	dl, err := h.fetcher.Fetch(ctx, req.URL)
	if err != nil {
		status, message := classify(err)
		if status >= http.StatusInternalServerError {
			log.WithContext(ctx).WithError(err).Error("download_failed")
		}
		writeError(w, status, message)
		return
	}
	defer func() {
		if err := dl.Close(); err != nil {
			log.WithContext(ctx).WithError(err).Error("workspace_release_failed")
		}
	}()

	h.sendAttachment(w, r, dl)
}

// sendAttachment streams the produced file to the client.
func (h *Handlers) sendAttachment(w http.ResponseWriter, r *http.Request, dl *download.Download) {
	ctx := r.Context()

	f, err := os.Open(dl.FilePath)
	if err != nil {
		log.WithContext(ctx).WithError(err).Error("attachment_open_failed")
		writeError(w, http.StatusInternalServerError, "Failed to download audio: produced file is unreadable")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		log.WithContext(ctx).WithError(err).Error("attachment_open_failed")
		writeError(w, http.StatusInternalServerError, "Failed to download audio: produced file is unreadable")
		return
	}

	w.Header().Set("Content-Type", audio.MIMEType)
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": dl.AttachmentName,
	}))
	w.WriteHeader(http.StatusOK)

	n, err := io.Copy(w, f)
	if err != nil {
		log.WithContext(ctx).WithError(err).Error("attachment_write_failed")
		return
	}

	ctx = logging.WithFields(ctx, log.Fields{"bytes": n, "filename": dl.AttachmentName, "tagged": dl.TagError == nil})
	log.WithContext(ctx).Info("download_complete")
}

// classify maps a pipeline error to an HTTP status and client message.
func classify(err error) (int, string) {
	var cfgErr *credentials.ConfigurationError
	var timeoutErr *audio.TimeoutError
	var extErr *audio.ExtractionError

	switch {
	case errors.Is(err, download.ErrMissingURL):
		return http.StatusBadRequest, "Missing URL"
	case errors.As(err, &cfgErr):
		return http.StatusInternalServerError, "Server misconfigured: " + cfgErr.Message
	case errors.As(err, &timeoutErr):
		return http.StatusGatewayTimeout, "Timed out downloading audio: " + detail(timeoutErr.Message, timeoutErr.Original)
	case errors.As(err, &extErr):
		return http.StatusInternalServerError, "Failed to download audio: " + detail(extErr.Message, extErr.Original)
	default:
		return http.StatusInternalServerError, "Failed to download audio: " + err.Error()
	}
}

// detail prefers the underlying cause, which carries the extractor's own message.
func detail(message string, original error) string {
	if original != nil {
		return original.Error()
	}
	return message
}
