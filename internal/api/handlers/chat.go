package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dvloznov/financas-pro/internal/api/middleware"
	"github.com/dvloznov/financas-pro/internal/chat"
	"github.com/dvloznov/financas-pro/internal/jobs"
	"github.com/dvloznov/financas-pro/internal/logger"
	"github.com/rs/zerolog"
)

// ChatHandler handles the conversation endpoints.
type ChatHandler struct {
	svc   Service
	turns jobs.JobStore
	log   zerolog.Logger
}

// NewChatHandler creates a new chat handler. turns records the state of
// every queued chat turn.
func NewChatHandler(svc Service, turns jobs.JobStore, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{svc: svc, turns: turns, log: log}
}

type chatRequest struct {
	Message string `json:"message"`
}

func (h *ChatHandler) readMessage(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return "", false
	}
	return req.Message, true
}

// PostMessage handles POST /api/chat. It waits for the assistant's reply.
func (h *ChatHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	text, ok := h.readMessage(w, r)
	if !ok {
		return
	}

	reply, err := h.svc.Chat(r.Context(), text)
	if err != nil {
		h.writeSubmitError(w, r, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"turn_id":  reply.TurnID,
		"reply":    reply.Message,
		"mutated":  reply.Result.Mutated(),
		"exported": reply.Result.Exported,
	})
}

// SubmitMessage handles POST /api/chat/async. The reply can be polled at
// /api/chat/turns/{id}.
func (h *ChatHandler) SubmitMessage(w http.ResponseWriter, r *http.Request) {
	text, ok := h.readMessage(w, r)
	if !ok {
		return
	}

	p, err := h.svc.SubmitChat(r.Context(), text)
	if err != nil {
		h.writeSubmitError(w, r, err)
		return
	}

	middleware.WriteJSON(w, http.StatusAccepted, map[string]interface{}{
		"turn_id":    p.TurnID,
		"message_id": p.UserMessage.ID,
		"status":     jobs.JobStatusPending,
	})
}

func (h *ChatHandler) writeSubmitError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		middleware.WriteError(w, http.StatusBadRequest, "Message is required")
	case errors.Is(err, jobs.ErrQueueClosed):
		middleware.WriteError(w, http.StatusServiceUnavailable, "Assistant is shutting down")
	default:
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("Chat turn failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to process message")
	}
}

// ListMessages handles GET /api/chat/messages
func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	msgs := h.svc.Messages()
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"messages": msgs,
		"count":    len(msgs),
		"busy":     h.svc.Busy(),
	})
}

// ListTurns handles GET /api/chat/turns
func (h *ChatHandler) ListTurns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Parse query parameters
	query := r.URL.Query()
	filter := jobs.JobFilter{
		Status: jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	turns, err := h.turns.ListJobs(ctx, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list turns")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list turns")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"turns": turns,
		"count": len(turns),
	})
}

// GetTurn handles GET /api/chat/turns/{id}
func (h *ChatHandler) GetTurn(w http.ResponseWriter, r *http.Request, turnID string) {
	turn, err := h.turns.GetJob(r.Context(), turnID)
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Turn not found")
			return
		}
		h.log.Error().Err(err).Str("turn_id", turnID).Msg("Failed to get turn")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get turn")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, turn)
}
