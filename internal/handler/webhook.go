package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/roadcall/dispatch/internal/contracts"
	"github.com/roadcall/dispatch/internal/models"
)

// Dispatcher is the slice of the dispatch service the webhook needs.
type Dispatcher interface {
	DispatchAll(ctx context.Context, request models.ServiceRequest) ([]models.DispatchSummary, error)
}

// Webhook handles database insert events for new service requests.
type Webhook struct {
	log        *slog.Logger
	dispatcher Dispatcher
}

// NewWebhook creates the webhook handler.
func NewWebhook(log *slog.Logger, dispatcher Dispatcher) *Webhook {
	return &Webhook{log: log, dispatcher: dispatcher}
}

// ServeHTTP processes one insert event. Non-insert events and other tables
// are acknowledged with a skip rather than an error so the webhook
// infrastructure does not retry them.
func (h *Webhook) ServeHTTP(writer http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	if req.Method != http.MethodPost {
		h.writeJSON(ctx, writer, http.StatusMethodNotAllowed,
			map[string]any{"error": "method not allowed"})
		return
	}

	payload, err := io.ReadAll(req.Body)
	if err != nil {
		h.writeJSON(ctx, writer, http.StatusBadRequest,
			map[string]any{"error": "failed to read event payload"})
		return
	}

	request, err := contracts.ParseInsertEvent(payload)
	switch {
	case errors.Is(err, contracts.ErrIgnoredEvent):
		h.log.DebugContext(ctx, "Ignoring event")
		h.writeJSON(ctx, writer, http.StatusOK,
			map[string]any{"skipped": true, "reason": "not a service request insert"})
		return
	case errors.Is(err, contracts.ErrBadCoordinates):
		h.log.ErrorContext(ctx, "Request has no usable coordinates")
		h.writeJSON(ctx, writer, http.StatusBadRequest,
			map[string]any{"error": "request coordinates are missing or malformed"})
		return
	case err != nil:
		h.writeJSON(ctx, writer, http.StatusBadRequest,
			map[string]any{"error": "invalid event payload"})
		return
	}

	summaries, err := h.dispatcher.DispatchAll(ctx, *request)
	if err != nil {
		h.log.ErrorContext(ctx, "Dispatch failed", "request", request.ID, "error", err)
		h.writeJSON(ctx, writer, http.StatusInternalServerError,
			map[string]any{"error": "failed to dispatch notifications"})
		return
	}

	h.writeJSON(ctx, writer, http.StatusOK, map[string]any{
		"request_id": request.ID,
		"summaries":  summaries,
	})
}

func (h *Webhook) writeJSON(ctx context.Context, writer http.ResponseWriter, status int, body any) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	if err := json.NewEncoder(writer).Encode(body); err != nil {
		h.log.ErrorContext(ctx, "failed to write reply", "error", err)
	}
}
