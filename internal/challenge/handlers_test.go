package challenge

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func post(h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestChallengeEndpoints(t *testing.T) {
	f := newFixture(t)
	h := SetupRoutes(NewHandler(f.svc, zap.NewNop()), DefaultLimits())

	rec := post(h, "/", `{"channel":"email","destination":"a@rahal.app"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("start: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var started struct {
		ChallengeID string `json:"challengeId"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &started); err != nil || started.ChallengeID == "" {
		t.Fatalf("start response: %s", rec.Body.String())
	}
	code := f.sender.code("a@rahal.app")

	rec = post(h, "/confirm", `{"challengeId":"`+started.ChallengeID+`","code":"`+wrongCode(code)+`"}`)
	if rec.Code != http.StatusUnauthorized || !strings.Contains(rec.Body.String(), "invalid code, try again") {
		t.Errorf("wrong code: %d %s", rec.Code, rec.Body.String())
	}

	rec = post(h, "/confirm", `{"challengeId":"`+started.ChallengeID+`","code":"`+code+`"}`)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"idToken"`) {
		t.Errorf("confirm: %d %s", rec.Code, rec.Body.String())
	}
}

func TestStartEndpointValidationAndLimit(t *testing.T) {
	f := newFixture(t)
	h := SetupRoutes(NewHandler(f.svc, zap.NewNop()), DefaultLimits())

	if rec := post(h, "/", `{"channel":"fax","destination":"1"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid channel: expected 400, got %d", rec.Code)
	}
	for i := 0; i < 4; i++ {
		post(h, "/", `{"channel":"email","destination":"a@rahal.app"}`)
	}
	rec := post(h, "/", `{"channel":"email","destination":"a@rahal.app"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("sixth start: expected 429, got %d", rec.Code)
	}
}
