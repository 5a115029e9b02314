package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	chatmodel "github.com/drivelink/voicebot/internal/model/chat"
	assistantService "github.com/drivelink/voicebot/internal/service/assistant"
	"github.com/drivelink/voicebot/pkg/utils"
)

// Assistant is the slice of the assistant service the chat endpoints use.
type Assistant interface {
	StreamingEnabled() bool
	RunTurn(ctx context.Context, conversationID, input string) (*chatmodel.Turn, error)
	RunTurnStream(ctx context.Context, conversationID, input string) (*schema.StreamReader[string], error)
	Transcript(ctx context.Context, conversationID string) ([]chatmodel.HistoryEntry, error)
}

// SessionStore maps session ids to upstream conversations.
type SessionStore interface {
	GetOrCreate(ctx context.Context, sessionID string) (string, error)
	Get(sessionID string) (chatmodel.Session, bool)
	Delete(sessionID string) bool
}

// Handler serves the text conversation endpoints.
type Handler struct {
	assistantSvc Assistant
	sessions     SessionStore
}

// New creates the chat handler.
func New(assistantSvc Assistant, sessions SessionStore) *Handler {
	return &Handler{
		assistantSvc: assistantSvc,
		sessions:     sessions,
	}
}

// RegisterRoutes registers the chat and session routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
	r.Post("/chat/stream", h.handleChatStream)
	r.Get("/chat/stream", h.handleChatStream)
	r.Delete("/session/{sessionID}", h.handleDeleteSession)
	r.Get("/session/{sessionID}/history", h.handleHistory)
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type chatResponse struct {
	Response  string   `json:"response"`
	SessionID string   `json:"session_id"`
	Sources   []string `json:"sources,omitempty"`
}

type streamChunk struct {
	Text      string `json:"text"`
	SessionID string `json:"session_id"`
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload chatRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(payload.Message) == "" {
		utils.RespondError(w, http.StatusBadRequest, "message is required")
		return
	}

	sessionID := payload.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	conversationID, err := h.sessions.GetOrCreate(r.Context(), sessionID)
	if err != nil {
		log.Printf("[chat] session create failed session=%s: %v", sessionID, err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	turn, err := h.assistantSvc.RunTurn(r.Context(), conversationID, payload.Message)
	if err != nil {
		var failed *assistantService.TurnFailedError
		if errors.As(err, &failed) {
			utils.RespondError(w, http.StatusBadGateway, failed.Error())
			return
		}
		log.Printf("[chat] turn failed session=%s: %v", sessionID, err)
		utils.RespondError(w, http.StatusInternalServerError, "assistant request failed")
		return
	}

	utils.RespondJSON(w, http.StatusOK, chatResponse{
		Response:  turn.Output,
		SessionID: sessionID,
		Sources:   turn.Citations,
	})
}

// handleChatStream serves answer deltas over SSE. POST carries a JSON body;
// GET takes query parameters so EventSource clients can connect directly.
func (h *Handler) handleChatStream(w http.ResponseWriter, r *http.Request) {
	var payload chatRequest
	if r.Method == http.MethodGet {
		payload.Message = r.URL.Query().Get("message")
		payload.SessionID = r.URL.Query().Get("session_id")
	} else {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	if strings.TrimSpace(payload.Message) == "" {
		utils.RespondError(w, http.StatusBadRequest, "message is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	sessionID := payload.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	conversationID, err := h.sessions.GetOrCreate(r.Context(), sessionID)
	if err != nil {
		log.Printf("[chat] session create failed session=%s: %v", sessionID, err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	if !h.assistantSvc.StreamingEnabled() {
		h.streamSingleTurn(w, r, flusher, sessionID, conversationID, payload.Message)
		return
	}

	stream, err := h.assistantSvc.RunTurnStream(r.Context(), conversationID, payload.Message)
	if err != nil {
		log.Printf("[chat] stream start failed session=%s: %v", sessionID, err)
		utils.RespondError(w, http.StatusInternalServerError, "assistant request failed")
		return
	}
	defer stream.Close()

	utils.SetupSSEHeaders(w)

	for {
		delta, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			log.Printf("[chat] stream recv failed session=%s: %v", sessionID, recvErr)
			utils.SendSSEChunk(w, flusher, map[string]string{
				"error":      assistantService.ApologyText(),
				"session_id": sessionID,
			})
			break
		}
		if delta == "" {
			continue
		}
		utils.SendSSEChunk(w, flusher, streamChunk{Text: delta, SessionID: sessionID})
	}

	utils.SendSSEDone(w, flusher)
}

// streamSingleTurn degrades the SSE endpoint to one buffered event when
// streamed output is disabled by configuration.
func (h *Handler) streamSingleTurn(w http.ResponseWriter, r *http.Request, flusher http.Flusher, sessionID, conversationID, message string) {
	turn, err := h.assistantSvc.RunTurn(r.Context(), conversationID, message)

	utils.SetupSSEHeaders(w)

	if err != nil {
		log.Printf("[chat] buffered turn failed session=%s: %v", sessionID, err)
		utils.SendSSEChunk(w, flusher, map[string]string{
			"error":      assistantService.ApologyText(),
			"session_id": sessionID,
		})
		utils.SendSSEDone(w, flusher)
		return
	}

	utils.SendSSEChunk(w, flusher, streamChunk{Text: turn.Output, SessionID: sessionID})
	utils.SendSSEDone(w, flusher)
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if !h.sessions.Delete(sessionID) {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	sess, ok := h.sessions.Get(sessionID)
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}

	entries, err := h.assistantSvc.Transcript(r.Context(), sess.ConversationID)
	if err != nil {
		log.Printf("[chat] history load failed session=%s: %v", sessionID, err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"history":    entries,
	})
}
