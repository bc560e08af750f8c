package daemon

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"vigil/internal/api"
	"vigil/internal/engine"
	"vigil/internal/logging"
	"vigil/internal/testsupport"
)

func newTestAPIServer(t *testing.T, opts ...testsupport.ConfigOption) *apiServer {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	st := testsupport.MustOpenStore(t, cfg)
	eng, err := engine.New(cfg, st, logging.NewNop())
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	d, err := New(cfg, st, eng, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Close()
	})
	if d.api == nil {
		t.Fatal("expected api server to be configured")
	}
	return d.api
}

func doJSON(t *testing.T, srv *apiServer, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	w := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(w, req)
	return w
}

func TestAPIServerDetectionLifecycle(t *testing.T) {
	srv := newTestAPIServer(t)

	first := doJSON(t, srv, http.MethodPost, "/api/detections", engine.DetectionEvent{
		Category:  "blood",
		Timestamp: 0,
		Visual:    &engine.SignalPayload{Confidence: 90},
	})
	if first.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d: %s", first.Code, first.Body.String())
	}
	var firstResp api.DetectionResponse
	if err := json.Unmarshal(first.Body.Bytes(), &firstResp); err != nil {
		t.Fatalf("decode first response: %v", err)
	}
	if firstResp.Accepted {
		t.Fatal("lone event must not surface a warning")
	}

	second := doJSON(t, srv, http.MethodPost, "/api/detections", engine.DetectionEvent{
		Category:  "blood",
		Timestamp: 0.5,
		Visual:    &engine.SignalPayload{Confidence: 90},
	})
	var secondResp api.DetectionResponse
	if err := json.Unmarshal(second.Body.Bytes(), &secondResp); err != nil {
		t.Fatalf("decode second response: %v", err)
	}
	if !secondResp.Accepted {
		t.Fatalf("expected coherent run to surface, reasoning: %v", secondResp.Reasoning)
	}
	if secondResp.Confidence != 91.25 {
		t.Fatalf("unexpected confidence: %v", secondResp.Confidence)
	}
	if secondResp.Warning == nil || secondResp.Warning.Category != "blood" {
		t.Fatalf("unexpected warning payload: %+v", secondResp.Warning)
	}

	list := doJSON(t, srv, http.MethodGet, "/api/warnings?category=blood&limit=10", nil)
	if list.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", list.Code)
	}
	var listResp api.WarningListResponse
	if err := json.Unmarshal(list.Body.Bytes(), &listResp); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if len(listResp.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(listResp.Warnings))
	}

	cleared := doJSON(t, srv, http.MethodDelete, "/api/warnings", nil)
	var clearResp api.WarningClearResponse
	if err := json.Unmarshal(cleared.Body.Bytes(), &clearResp); err != nil {
		t.Fatalf("decode clear response: %v", err)
	}
	if clearResp.Removed != 1 {
		t.Fatalf("expected 1 removed, got %d", clearResp.Removed)
	}
}

func TestAPIServerRejectsMalformedJSON(t *testing.T) {
	srv := newTestAPIServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/detections", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestAPIServerRejectsEmptyCategory(t *testing.T) {
	srv := newTestAPIServer(t)
	w := doJSON(t, srv, http.MethodPost, "/api/detections", engine.DetectionEvent{Timestamp: 1})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAPIServerMethodNotAllowed(t *testing.T) {
	srv := newTestAPIServer(t)
	w := doJSON(t, srv, http.MethodGet, "/api/detections", nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}

func TestAPIServerScenes(t *testing.T) {
	srv := newTestAPIServer(t)

	ok := doJSON(t, srv, http.MethodPost, "/api/scenes", engine.SceneEvent{Type: "medical", Start: 10, End: 40})
	if ok.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d: %s", ok.Code, ok.Body.String())
	}
	var resp api.SceneResponse
	if err := json.Unmarshal(ok.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode scene response: %v", err)
	}
	if !resp.Accepted {
		t.Fatal("expected scene to be accepted")
	}

	bad := doJSON(t, srv, http.MethodPost, "/api/scenes", engine.SceneEvent{Type: "medical", Start: 40, End: 10})
	if bad.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for inverted span, got %d", bad.Code)
	}
}

func TestAPIServerFeedback(t *testing.T) {
	srv := newTestAPIServer(t)

	ok := doJSON(t, srv, http.MethodPost, "/api/feedback", engine.FeedbackRequest{
		Category: "blood",
		Type:     engine.FeedbackConfirm,
	})
	if ok.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d: %s", ok.Code, ok.Body.String())
	}

	bad := doJSON(t, srv, http.MethodPost, "/api/feedback", engine.FeedbackRequest{
		Category: "blood",
		Outcome:  "maybe",
	})
	if bad.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown outcome, got %d", bad.Code)
	}
}

func TestAPIServerStatus(t *testing.T) {
	srv := newTestAPIServer(t)
	w := doJSON(t, srv, http.MethodGet, "/api/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var status api.DaemonStatus
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.Engine.Categories == 0 {
		t.Fatal("expected category table to be loaded")
	}
	if !status.Database.Exists {
		t.Fatal("expected database to exist")
	}
	if status.DatabasePath == "" || status.LockFilePath == "" {
		t.Fatalf("expected populated paths: %+v", status)
	}
}

func TestAPIServerAuth(t *testing.T) {
	srv := newTestAPIServer(t, testsupport.WithAPIToken("secret"))

	unauthed := doJSON(t, srv, http.MethodGet, "/api/status", nil)
	if unauthed.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", unauthed.Code)
	}

	wrong := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	wrong.Header.Set("Authorization", "Bearer nope")
	w := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(w, wrong)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", w.Code)
	}

	good := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	good.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(w, good)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", w.Code)
	}
}
