package call

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

type fakePlacer struct {
	callID string
	err    error
	number string
}

func (f *fakePlacer) PlaceCall(_ context.Context, phoneNumber string) (string, error) {
	f.number = phoneNumber
	if f.err != nil {
		return "", f.err
	}
	return f.callID, nil
}

func setupRouter(placer CallPlacer) *chi.Mux {
	r := chi.NewRouter()
	New(placer).RegisterRoutes(r)
	return r
}

func TestPlaceCallReturnsCallID(t *testing.T) {
	placer := &fakePlacer{callID: "call-7"}
	r := setupRouter(placer)

	req := httptest.NewRequest(http.MethodPost, "/call", strings.NewReader(`{"phone_number":"+15550100"}`))
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "call-7") {
		t.Fatalf("expected call id in body, got %s", resp.Body.String())
	}
	if placer.number != "+15550100" {
		t.Fatalf("expected number forwarded, got %q", placer.number)
	}
}

func TestPlaceCallRequiresNumber(t *testing.T) {
	r := setupRouter(&fakePlacer{})

	req := httptest.NewRequest(http.MethodPost, "/call", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestPlaceCallUpstreamFailure(t *testing.T) {
	r := setupRouter(&fakePlacer{err: errors.New("provider rejected")})

	req := httptest.NewRequest(http.MethodPost, "/call", strings.NewReader(`{"phone_number":"+15550100"}`))
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}
}
