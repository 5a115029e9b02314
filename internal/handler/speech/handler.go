package speech

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	speechmodel "github.com/drivelink/voicebot/internal/model/speech"
	"github.com/drivelink/voicebot/pkg/utils"
)

// maxAudioUpload caps transcription uploads at 10 MB.
const maxAudioUpload = 10 << 20

// SpeechService is the slice of the speech service these endpoints use.
type SpeechService interface {
	TranscribeAudio(ctx context.Context, req *speechmodel.ASRRequest) (*speechmodel.ASRResponse, error)
	SynthesizeSpeech(ctx context.Context, req *speechmodel.TTSRequest) (*speechmodel.TTSResponse, error)
	SynthesizeStream(ctx context.Context, req *speechmodel.TTSRequest) (io.ReadCloser, error)
}

// Handler serves the standalone speech endpoints.
type Handler struct {
	svc SpeechService
}

// New creates the speech handler.
func New(svc SpeechService) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the transcription and synthesis routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/voice/transcribe", h.handleTranscribe)
	r.Post("/voice/synthesize", h.handleSynthesize)
	r.Post("/voice/synthesize/stream", h.handleSynthesizeStream)
}

func (h *Handler) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxAudioUpload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	req := &speechmodel.ASRRequest{
		SessionID:   uuid.NewString(),
		AudioData:   file,
		ContentType: header.Header.Get("Content-Type"),
	}

	resp, err := h.svc.TranscribeAudio(r.Context(), req)
	if err != nil {
		log.Printf("[speech] transcription failed: %v", err)
		utils.RespondError(w, http.StatusBadGateway, "transcription failed")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"transcript": resp.Transcript,
		"confidence": resp.Confidence,
	})
}

type synthesizeRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voice_id"`
}

func (h *Handler) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeSynthesize(w, r)
	if !ok {
		return
	}

	resp, err := h.svc.SynthesizeSpeech(r.Context(), req)
	if err != nil {
		log.Printf("[speech] synthesis failed: %v", err)
		utils.RespondError(w, http.StatusBadGateway, "synthesis failed")
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(resp.AudioData); err != nil {
		log.Printf("[speech] write audio failed: %v", err)
	}
}

func (h *Handler) handleSynthesizeStream(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeSynthesize(w, r)
	if !ok {
		return
	}

	body, err := h.svc.SynthesizeStream(r.Context(), req)
	if err != nil {
		log.Printf("[speech] stream synthesis failed: %v", err)
		utils.RespondError(w, http.StatusBadGateway, "synthesis failed")
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		log.Printf("[speech] stream copy failed: %v", err)
	}
}

func (h *Handler) decodeSynthesize(w http.ResponseWriter, r *http.Request) (*speechmodel.TTSRequest, bool) {
	var payload synthesizeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	if strings.TrimSpace(payload.Text) == "" {
		utils.RespondError(w, http.StatusBadRequest, "text is required")
		return nil, false
	}

	return &speechmodel.TTSRequest{
		SessionID: uuid.NewString(),
		Text:      payload.Text,
		VoiceID:   payload.VoiceID,
	}, true
}
