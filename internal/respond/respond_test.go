package respond

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestJSONWritesStatusAndContentType(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusCreated, map[string]int{"n": 1})

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
		t.Fatalf("content type = %q", got)
	}
	if got := rec.Body.String(); got != "{\"n\":1}\n" {
		t.Fatalf("body = %q", got)
	}
}

func TestJSONNilBody(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusNoContent, nil)

	if rec.Body.Len() != 0 {
		t.Fatalf("expected empty body, got %q", rec.Body.String())
	}
}

func TestMessageAndError(t *testing.T) {
	rec := httptest.NewRecorder()
	Message(rec, http.StatusOK, "Logged out successfully")
	if got := rec.Body.String(); got != "{\"message\":\"Logged out successfully\"}\n" {
		t.Fatalf("message body = %q", got)
	}

	rec = httptest.NewRecorder()
	Error(rec, http.StatusForbidden, "Insufficient permissions")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Body.String(); got != "{\"error\":\"Insufficient permissions\"}\n" {
		t.Fatalf("error body = %q", got)
	}
}
