package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"relight/internal/enhance"
	"relight/internal/imaging"
	"relight/internal/workerpool"
	"relight/pkg/api"
)

// MultipartField is the form field carrying the uploaded image.
const MultipartField = "input"

// errBadInput marks client-caused pipeline failures (missing field,
// undecodable image). Everything else in the pipeline is a server fault.
var errBadInput = errors.New("bad input")

// ProcessHandler serves POST /api/run: it reads the uploaded image, hands
// the decode/transform/encode pipeline to the offload pool and writes the
// enhanced PNG back. The authentication gate has already run by the time
// this handler sees the request.
type ProcessHandler struct {
	logger *slog.Logger
	engine enhance.Engine
	pool   *workerpool.Pool
	// maxUploadBytes bounds the request body read into memory
	maxUploadBytes int64
}

// NewProcessHandler creates the image processing handler. The engine is
// constructed once at startup and reused for every request.
func NewProcessHandler(logger *slog.Logger, engine enhance.Engine, pool *workerpool.Pool, maxUploadBytes int64) *ProcessHandler {
	return &ProcessHandler{
		logger:         logger,
		engine:         engine,
		pool:           pool,
		maxUploadBytes: maxUploadBytes,
	}
}

// Process handles POST /api/run (protected)
func (h *ProcessHandler) Process(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	input, err := h.readInput(r)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to read upload", slog.Any("error", err))
		h.sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.DebugContext(ctx, "received input", slog.Int("bytes", len(input)))

	output, err := workerpool.Run(ctx, h.pool, func() ([]byte, error) {
		return h.processBlocking(input)
	})
	if err != nil {
		if errors.Is(err, errBadInput) {
			h.logger.WarnContext(ctx, "rejected input image", slog.Any("error", err))
			h.sendError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.ErrorContext(ctx, "image processing failed", slog.Any("error", err))
		h.sendError(w, http.StatusInternalServerError, "image processing failed")
		return
	}

	w.Header().Set("Content-Type", imaging.ContentTypePNG)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(output); err != nil {
		h.logger.WarnContext(ctx, "failed to write response body", slog.Any("error", err))
	}
}

// readInput extracts the image bytes from the multipart "input" field.
func (h *ProcessHandler) readInput(r *http.Request) ([]byte, error) {
	reader, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("invalid multipart request: %w", err)
	}

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read multipart field: %w", err)
		}

		if part.FormName() != MultipartField {
			continue
		}

		data, err := io.ReadAll(part)
		if err != nil {
			return nil, fmt.Errorf("failed to read %q field: %w", MultipartField, err)
		}

		return data, nil
	}

	return nil, fmt.Errorf("field %q not found", MultipartField)
}

// processBlocking is the CPU-bound pipeline body: decode, transform,
// encode. It runs on a pool worker, never on the request goroutine. The
// BadRequest/InternalError split is preserved through the error chain.
func (h *ProcessHandler) processBlocking(input []byte) ([]byte, error) {
	img, err := imaging.Decode(input)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadInput, err)
	}

	enhanced, err := h.engine.Run(img)
	if err != nil {
		return nil, fmt.Errorf("failed to run engine: %w", err)
	}

	output, err := imaging.EncodePNG(enhanced)
	if err != nil {
		return nil, fmt.Errorf("failed to encode output: %w", err)
	}

	return output, nil
}

// sendError writes a JSON error body. Internal paths and storage details
// never reach the message.
func (h *ProcessHandler) sendError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	resp := api.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode error response", slog.Any("error", err))
	}
}
