package call

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/drivelink/voicebot/pkg/utils"
)

// CallPlacer places outbound phone calls.
type CallPlacer interface {
	PlaceCall(ctx context.Context, phoneNumber string) (string, error)
}

// Handler serves the outbound phone call endpoint.
type Handler struct {
	svc CallPlacer
}

// New creates the call handler.
func New(svc CallPlacer) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the outbound call route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/call", h.handlePlaceCall)
}

type callRequest struct {
	PhoneNumber string `json:"phone_number"`
}

func (h *Handler) handlePlaceCall(w http.ResponseWriter, r *http.Request) {
	var payload callRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(payload.PhoneNumber) == "" {
		utils.RespondError(w, http.StatusBadRequest, "phone_number is required")
		return
	}

	callID, err := h.svc.PlaceCall(r.Context(), payload.PhoneNumber)
	if err != nil {
		log.Printf("[call] placement failed: %v", err)
		utils.RespondError(w, http.StatusBadGateway, "call placement failed")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"call_id": callID})
}
