package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ritvik-6/Collaborative-Code-Editor/internal/registry"
	"github.com/ritvik-6/Collaborative-Code-Editor/internal/ws"
)

type discardOutbox struct{}

func (discardOutbox) TrySend([]byte) bool { return true }

func newTestRouter() (*registry.Registry, http.Handler) {
	reg := registry.New(zerolog.Nop())
	m := ws.NewManager(zerolog.Nop(), reg, nil)
	return reg, NewRouter(zerolog.Nop(), reg, m, nil)
}

func get(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthWithoutPersistence(t *testing.T) {
	_, router := newTestRouter()

	rec := get(t, router, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Status string                       `json:"status"`
		Checks map[string]map[string]string `json:"checks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "healthy" {
		t.Fatalf("expected healthy, got %q", resp.Status)
	}
	if resp.Checks["registry"]["status"] != "pass" {
		t.Fatalf("expected registry pass, got %+v", resp.Checks)
	}
	if _, ok := resp.Checks["snapshots"]; ok {
		t.Fatal("no snapshot check expected without a store")
	}
}

func TestRoomsReflectRegistry(t *testing.T) {
	reg, router := newTestRouter()

	reg.Join("r1", "ada", "#fff", discardOutbox{})
	reg.Join("r1", "bob", "#000", discardOutbox{})

	rec := get(t, router, "/rooms")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Rooms []struct {
			ID           string `json:"id"`
			Participants int    `json:"participants"`
		} `json:"rooms"`
		Total int `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 1 || len(resp.Rooms) != 1 {
		t.Fatalf("expected one room, got %+v", resp)
	}
	if resp.Rooms[0].ID != "r1" || resp.Rooms[0].Participants != 2 {
		t.Fatalf("unexpected room entry: %+v", resp.Rooms[0])
	}
}

func TestStats(t *testing.T) {
	reg, router := newTestRouter()
	reg.Join("r1", "ada", "#fff", discardOutbox{})

	rec := get(t, router, "/stats")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Rooms        int  `json:"rooms"`
		Participants int  `json:"participants"`
		Persistence  bool `json:"persistence"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Rooms != 1 || resp.Participants != 1 || resp.Persistence {
		t.Fatalf("unexpected stats: %+v", resp)
	}
}

func TestMetricsExposed(t *testing.T) {
	_, router := newTestRouter()
	rec := get(t, router, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
