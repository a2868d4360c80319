package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/yegors/vidscribe/internal/config"
	"github.com/yegors/vidscribe/internal/export"
	"github.com/yegors/vidscribe/internal/processing"
	"github.com/yegors/vidscribe/internal/session"
	"github.com/yegors/vidscribe/internal/settings"
	"github.com/yegors/vidscribe/internal/upload"
	"github.com/yegors/vidscribe/pkg/logger"
)

// multipartOverhead is headroom for form boundaries and headers on top of the file ceiling
const multipartOverhead = 1 << 20

// maxTranscriptBytes bounds user edits of the transcript
const maxTranscriptBytes = 10 << 20

// Handler contains the API handlers
type Handler struct {
	session  *session.Session
	config   *config.Config
	upgrader websocket.Upgrader
	now      func() time.Time
	logger   *logger.Logger
}

// NewHandler creates a new API handler
func NewHandler(sess *session.Session, config *config.Config, logger *logger.Logger) *Handler {
	h := &Handler{
		session: sess,
		config:  config,
		now:     time.Now,
		logger:  logger.Named("api-handler"),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// ErrorResponse is the body of every non-2xx JSON response
type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// handleError maps domain errors to HTTP responses
func (h *Handler) handleError(w http.ResponseWriter, err error) {
	var verr *upload.ValidationError
	switch {
	case errors.As(err, &verr):
		status := http.StatusUnprocessableEntity
		if errors.Is(err, upload.ErrUnsupportedType) {
			status = http.StatusUnsupportedMediaType
		} else if errors.Is(err, upload.ErrFileTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, status, ErrorResponse{Error: verr.Err.Error(), Reason: verr.Reason})
	case errors.Is(err, session.ErrBusy),
		errors.Is(err, processing.ErrAlreadyRunning),
		errors.Is(err, processing.ErrRunning):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrNoFile):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, session.ErrNoResult), errors.Is(err, settings.ErrUnknownKey):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error("Unhandled API error", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// GetHealth reports liveness
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": h.now().UTC(),
	})
}

// ConfigResponse exposes the limits the browser enforces before upload
type ConfigResponse struct {
	AllowedTypes []string `json:"allowedTypes"`
	MaxSizeBytes int64    `json:"maxSizeBytes"`
	Provider     string   `json:"provider"`
	Model        string   `json:"model"`
}

// GetConfig returns the public configuration
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	v := h.session.Validator()
	writeJSON(w, http.StatusOK, ConfigResponse{
		AllowedTypes: v.AllowedTypes(),
		MaxSizeBytes: v.MaxSize(),
		Provider:     h.config.Transcription.Provider,
		Model:        h.config.Transcription.Model,
	})
}

// GetSession returns the whole session view
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session.View())
}

// GetSettings returns the current settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session.Settings().Get())
}

// PutSettings replaces all four toggles
func (h *Handler) PutSettings(w http.ResponseWriter, r *http.Request) {
	var s settings.Settings
	dec := json.NewDecoder(io.LimitReader(r.Body, 4096))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid settings: %v", err))
		return
	}
	h.session.Settings().Set(s)
	writeJSON(w, http.StatusOK, s)
}

// ToggleSetting flips one toggle
func (h *Handler) ToggleSetting(w http.ResponseWriter, r *http.Request) {
	key := settings.Key(chi.URLParam(r, "key"))
	s, err := h.session.Settings().Toggle(key)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// UploadFile accepts a multipart "file" field and makes it the selected file.
// The part's declared Content-Type is trusted.
func (h *Handler) UploadFile(w http.ResponseWriter, r *http.Request) {
	maxSize := h.session.Validator().MaxSize()
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	reader, err := r.MultipartReader()
	if err != nil {
		writeError(w, http.StatusBadRequest, "expected multipart/form-data")
		return
	}

	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			writeError(w, http.StatusBadRequest, "missing file field")
			return
		}
		if err != nil {
			h.handleReadError(w, err)
			return
		}
		if part.FormName() != "file" {
			part.Close()
			continue
		}

		// Read one byte past the ceiling so oversize files are detected without buffering them
		data, err := io.ReadAll(io.LimitReader(part, maxSize+1))
		part.Close()
		if err != nil {
			h.handleReadError(w, err)
			return
		}

		file := &upload.File{
			FileInfo: upload.FileInfo{
				Name:     part.FileName(),
				MIMEType: part.Header.Get("Content-Type"),
				Size:     int64(len(data)),
			},
			Data: data,
		}

		if err := h.session.Select(file); err != nil {
			h.handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, file.FileInfo)
		return
	}
}

func (h *Handler) handleReadError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		h.handleError(w, h.session.Validator().TooLarge())
		return
	}
	writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to read upload: %v", err))
}

// ClearFile drops the selected file
func (h *Handler) ClearFile(w http.ResponseWriter, r *http.Request) {
	h.session.ClearSelection()
	w.WriteHeader(http.StatusNoContent)
}

// StartTranscription triggers processing of the selected file
func (h *Handler) StartTranscription(w http.ResponseWriter, r *http.Request) {
	jobID, err := h.session.Start()
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"jobId": jobID})
}

// GetStatus returns the processing snapshot
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session.Machine().Snapshot())
}

// EventsResponse carries events after the requested sequence
type EventsResponse struct {
	Events  []processing.Event `json:"events"`
	LastSeq int64              `json:"lastSeq"`
}

// parseSince reads the ?since= cursor, writing a 400 when it is malformed
func parseSince(w http.ResponseWriter, r *http.Request) (int64, bool) {
	v := r.URL.Query().Get("since")
	if v == "" {
		return 0, true
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, "invalid since parameter")
		return 0, false
	}
	return n, true
}

// GetEvents returns status events newer than ?since=
func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request) {
	since, ok := parseSince(w, r)
	if !ok {
		return
	}

	bus := h.session.Machine().Events()
	writeJSON(w, http.StatusOK, EventsResponse{
		Events:  bus.Since(since),
		LastSeq: bus.LastSeq(),
	})
}

// Reset is the "Try Again" action
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Reset(); err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.session.Machine().Snapshot())
}

// GetResult returns the structured transcript
func (h *Handler) GetResult(w http.ResponseWriter, r *http.Request) {
	result := h.session.Machine().Result()
	if result == nil {
		h.handleError(w, session.ErrNoResult)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func writeText(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, text)
}

// GetTranscript returns the editable transcript, also used for copy-to-clipboard
func (h *Handler) GetTranscript(w http.ResponseWriter, r *http.Request) {
	text, err := h.session.Transcript()
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeText(w, text)
}

// PutTranscript replaces the editable transcript with the request body
func (h *Handler) PutTranscript(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxTranscriptBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "transcript too large")
		return
	}
	if err := h.session.SetTranscript(string(body)); err != nil {
		h.handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RenderTranscript re-renders the transcript with the current settings
func (h *Handler) RenderTranscript(w http.ResponseWriter, r *http.Request) {
	text, err := h.session.RenderTranscript()
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeText(w, text)
}

func writeAttachment(w http.ResponseWriter, a export.Artifact) {
	w.Header().Set("Content-Type", a.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", a.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, a.Content)
}

// ExportText downloads the editable transcript as .txt
func (h *Handler) ExportText(w http.ResponseWriter, r *http.Request) {
	a, err := h.session.ExportText(h.now())
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeAttachment(w, a)
}

// ExportSubtitles downloads the unedited segments as .srt
func (h *Handler) ExportSubtitles(w http.ResponseWriter, r *http.Request) {
	a, err := h.session.ExportSubtitles(h.now())
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeAttachment(w, a)
}
