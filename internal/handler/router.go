package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	callHandler "github.com/drivelink/voicebot/internal/handler/call"
	chatHandler "github.com/drivelink/voicebot/internal/handler/chat"
	speechHandler "github.com/drivelink/voicebot/internal/handler/speech"
	voiceHandler "github.com/drivelink/voicebot/internal/handler/voice"
	middlewarePkg "github.com/drivelink/voicebot/internal/middleware"
	assistantService "github.com/drivelink/voicebot/internal/service/assistant"
	sessionService "github.com/drivelink/voicebot/internal/service/session"
	speechService "github.com/drivelink/voicebot/internal/service/speech"
	"github.com/drivelink/voicebot/internal/service/telephony"
	"github.com/drivelink/voicebot/pkg/utils"
)

// NewRouter wires HTTP routes to core services. Any service may be nil when
// its collaborator is not configured; the affected routes then answer 503
// instead of disappearing.
func NewRouter(assistantSvc *assistantService.Service, sessions *sessionService.Registry, speechSvc *speechService.Service, telephonySvc *telephony.Service) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status":    "ok",
			"assistant": assistantSvc != nil,
			"speech":    speechSvc != nil,
			"telephony": telephonySvc != nil,
		})
	})

	if assistantSvc != nil {
		chatHandler.New(assistantSvc, sessions).RegisterRoutes(r)
	} else {
		unavailable := unavailableHandler("assistant not configured")
		r.Post("/chat", unavailable)
		r.Post("/chat/stream", unavailable)
		r.Get("/chat/stream", unavailable)
		r.Delete("/session/{sessionID}", unavailable)
		r.Get("/session/{sessionID}/history", unavailable)
	}

	if speechSvc != nil {
		speechHandler.New(speechSvc).RegisterRoutes(r)
	} else {
		unavailable := unavailableHandler("speech services not configured")
		r.Post("/voice/transcribe", unavailable)
		r.Post("/voice/synthesize", unavailable)
		r.Post("/voice/synthesize/stream", unavailable)
	}

	if assistantSvc != nil && speechSvc != nil {
		voiceHandler.New(sessions, speechSvc, assistantSvc, speechSvc).RegisterRoutes(r)
	}

	if telephonySvc != nil {
		callHandler.New(telephonySvc).RegisterRoutes(r)
	} else {
		r.Post("/call", unavailableHandler("telephony not configured"))
	}

	return r
}

func unavailableHandler(message string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondError(w, http.StatusServiceUnavailable, message)
	}
}
