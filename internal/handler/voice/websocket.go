package voice

import (
	"context"
	"encoding/base64"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	voicemodel "github.com/drivelink/voicebot/internal/model/voice"
	voiceService "github.com/drivelink/voicebot/internal/service/voice"
)

const readDeadline = 60 * time.Second

// SessionStore maps session ids to upstream conversations.
type SessionStore interface {
	GetOrCreate(ctx context.Context, sessionID string) (string, error)
	Delete(sessionID string) bool
}

// Handler upgrades voice connections and pumps frames between the socket and
// the per-connection session machine.
type Handler struct {
	sessions    SessionStore
	transcriber voiceService.Transcriber
	turns       voiceService.TurnRunner
	synth       voiceService.Synthesizer
	upgrader    websocket.Upgrader
}

// New creates the voice channel handler.
func New(sessions SessionStore, transcriber voiceService.Transcriber, turns voiceService.TurnRunner, synth voiceService.Synthesizer) *Handler {
	return &Handler{
		sessions:    sessions,
		transcriber: transcriber,
		turns:       turns,
		synth:       synth,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes registers the duplex voice channel route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/voice", h.handleVoice)
}

func (h *Handler) handleVoice(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[voice] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sessionID := uuid.NewString()
	conversationID, err := h.sessions.GetOrCreate(ctx, sessionID)
	if err != nil {
		log.Printf("[voice] session create failed session=%s: %v", sessionID, err)
		h.write(conn, voicemodel.ErrorFrame("failed to start session"))
		return
	}

	log.Printf("[voice] connection open session=%s conversation=%s", sessionID, conversationID)

	sess := voiceService.NewSession(
		sessionID,
		conversationID,
		h.transcriber,
		h.turns,
		h.synth,
		func(frame voicemodel.Outbound) { h.write(conn, frame) },
		func() { h.sessions.Delete(sessionID) },
	)
	defer sess.Close()

	conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})
	go h.pingLoop(ctx, conn)

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, raw, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
					log.Printf("[voice] read error session=%s: %v", sessionID, err)
				}
				return
			}
			conn.SetReadDeadline(time.Now().Add(readDeadline))

			msg, ok := voicemodel.Decode(raw)
			if !ok {
				h.write(conn, voicemodel.ErrorFrame("unsupported message type"))
				continue
			}

			switch msg.Type {
			case voicemodel.TypeAudio:
				audio, err := base64.StdEncoding.DecodeString(msg.Audio)
				if err != nil || len(audio) == 0 {
					h.write(conn, voicemodel.ErrorFrame("invalid audio payload"))
					continue
				}
				sess.HandleAudio(ctx, audio)
			case voicemodel.TypeEnd:
				log.Printf("[voice] connection ending session=%s", sessionID)
				return
			}
		}
	}
}

func (h *Handler) write(conn *websocket.Conn, frame voicemodel.Outbound) {
	if err := conn.WriteJSON(frame); err != nil {
		log.Printf("[voice] write failed type=%s: %v", frame.Type, err)
	}
}

func (h *Handler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
