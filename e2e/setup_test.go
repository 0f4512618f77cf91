package e2e

import (
	"net/http"
	"testing"
)

func TestSetupMissingKey(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, "POST", "/api/setup", `{}`, nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusBadRequest)

	body := parseJSON(t, resp)
	if code := errorCode(t, body); code != "VALIDATION_ERROR" {
		t.Errorf("expected VALIDATION_ERROR, got %s", code)
	}
}

func TestSetupShortKey(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, "POST", "/api/setup", `{"api_key": "short"}`, nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusBadRequest)
}

func TestSetupValidKey(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, "POST", "/api/setup", `{"api_key": "a-plausible-api-key-123"}`, nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	body := parseJSON(t, resp)
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %v", body["status"])
	}
}

func TestSetupKeyFromHeader(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, "POST", "/api/setup", "", map[string]string{
		"X-API-Key": "a-plausible-api-key-123",
	})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)
}

func TestSetupGatewayRejectsKey(t *testing.T) {
	ta := setupApp(t)
	ta.gateway.setFail(true)

	resp, err := doRequest(ta.app, "POST", "/api/setup", `{"api_key": "a-plausible-api-key-123"}`, nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusBadRequest)
}
