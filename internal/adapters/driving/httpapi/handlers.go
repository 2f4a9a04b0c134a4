package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

const maxAskBodyBytes = 64 << 10

var errUnreadable = errors.New("upload part unreadable")

// AskRequest is the body of POST /v1/ask.
type AskRequest struct {
	Question string `json:"question" validate:"required,max=4000"`
}

// Source is a passage an answer was grounded in.
type Source struct {
	SourceID string  `json:"source_id"`
	ChunkID  string  `json:"chunk_id"`
	Score    float64 `json:"score"`
	Text     string  `json:"text"`
}

// AskResponse is the body returned by POST /v1/ask.
type AskResponse struct {
	Answer   string   `json:"answer"`
	Fallback bool     `json:"fallback"`
	Sources  []Source `json:"sources"`
}

// Turn is one exchange in GET /v1/history.
type Turn struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
}

// IndexResponse is the body returned by POST /v1/documents.
type IndexResponse struct {
	Policy        string            `json:"policy"`
	Documents     int               `json:"documents"`
	Chunks        int               `json:"chunks"`
	MemoryCleared bool              `json:"memory_cleared"`
	Failures      map[string]string `json:"failures,omitempty"`
}

// StatusResponse is the body returned by GET /v1/status.
type StatusResponse struct {
	State  string `json:"state"`
	Chunks int    `json:"chunks"`
	Turns  int    `json:"turns"`
}

// ErrorResponse carries a user-facing error message.
type ErrorResponse struct {
	Error    string            `json:"error"`
	Failures map[string]string `json:"failures,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		writeError(w, "The upload could not be read. Send files as multipart form field \"files\".", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck // Temp file cleanup

	opts := domain.IndexOptions{}
	if p := r.URL.Query().Get("policy"); p != "" {
		opts.Policy = domain.IndexPolicy(strings.ToLower(p))
		if !opts.Policy.IsValid() {
			writeError(w, "policy must be replace or append", http.StatusBadRequest)
			return
		}
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, "No files were uploaded.", http.StatusBadRequest)
		return
	}

	// An unreadable part is reported like a document that failed to extract.
	docs := make([]domain.RawDocument, 0, len(headers))
	var unread []domain.DocumentFailure
	for _, h := range headers {
		name := filepath.Base(h.Filename)
		content, err := s.readPart(h)
		if err != nil {
			httpLog.Warn("read upload %s: %v", name, err)
			unread = append(unread, domain.DocumentFailure{SourceID: name, Err: fmt.Errorf("%w: %w", errUnreadable, err)})
			continue
		}
		docs = append(docs, domain.RawDocument{
			SourceID: name,
			URI:      name,
			MIMEType: h.Header.Get("Content-Type"),
			Content:  content,
		})
	}

	report, err := s.session.Process(r.Context(), docs, opts)
	if err != nil {
		resp := ErrorResponse{Error: s.session.UserMessage(err)}
		failures := unread
		if report != nil {
			failures = append(failures, report.Failures...)
		}
		resp.Failures = failureMessages(failures)
		httpLog.Error("index upload: %v", err)
		writeJSON(w, statusFor(err), resp)
		return
	}

	writeJSON(w, http.StatusOK, IndexResponse{
		Policy:        report.Policy.String(),
		Documents:     report.Documents,
		Chunks:        report.Chunks,
		MemoryCleared: report.MemoryCleared,
		Failures:      failureMessages(append(unread, report.Failures...)),
	})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxAskBodyBytes)).Decode(&req); err != nil {
		writeError(w, "Request body must be JSON with a \"question\" field.", http.StatusBadRequest)
		return
	}
	req.Question = strings.TrimSpace(req.Question)
	if err := s.validate.Struct(req); err != nil {
		writeError(w, s.session.UserMessage(fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)), http.StatusBadRequest)
		return
	}

	answer, err := s.session.Ask(r.Context(), req.Question)
	if err != nil {
		s.fail(w, "ask", err)
		return
	}

	resp := AskResponse{
		Answer:   answer.Text,
		Fallback: answer.Fallback,
		Sources:  make([]Source, 0, len(answer.UsedChunks)),
	}
	for _, c := range answer.UsedChunks {
		resp.Sources = append(resp.Sources, Source{
			SourceID: c.Chunk.SourceID,
			ChunkID:  c.Chunk.ID,
			Score:    c.Score,
			Text:     c.Chunk.Content,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	turns, err := s.session.History(r.Context())
	if err != nil {
		s.fail(w, "history", err)
		return
	}
	out := make([]Turn, 0, len(turns))
	for _, t := range turns {
		out = append(out, Turn(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Reset(r.Context()); err != nil {
		s.fail(w, "reset", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.session.ClearIndex(r.Context()); err != nil {
		s.fail(w, "clear index", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := s.session.Stats(r.Context())
	if err != nil {
		s.fail(w, "status", err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{
		State:  stats.State.String(),
		Chunks: stats.Chunks,
		Turns:  stats.Turns,
	})
}

// fail logs err and writes its user-facing form.
func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	httpLog.Error("%s: %v", op, err)
	writeError(w, s.session.UserMessage(err), statusFor(err))
}

// statusFor maps an error kind to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidParameter):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrEmptyInput), errors.Is(err, domain.ErrUnsupportedType):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrEmbeddingService), errors.Is(err, domain.ErrEmbeddingUnavailable),
		errors.Is(err, domain.ErrGeneration), errors.Is(err, domain.ErrLLMUnavailable),
		errors.Is(err, domain.ErrVectorIndex):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func failureMessages(failures []domain.DocumentFailure) map[string]string {
	if len(failures) == 0 {
		return nil
	}
	out := make(map[string]string, len(failures))
	for _, f := range failures {
		key := f.SourceID
		for n := 2; ; n++ {
			if _, taken := out[key]; !taken {
				break
			}
			key = fmt.Sprintf("%s (%d)", f.SourceID, n)
		}
		msg := domain.UserMessage(f.Err, "This document could not be processed.")
		if errors.Is(f.Err, errUnreadable) {
			msg = "This file could not be read from the upload."
		}
		out[key] = msg
	}
	return out
}

func readUpload(h *multipart.FileHeader) ([]byte, error) {
	f, err := h.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		httpLog.Warn("write response: %v", err)
	}
}
