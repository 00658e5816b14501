package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tasktrack/apiserver/internal/services"
)

func TestRequireAuth(t *testing.T) {
	tokens := services.NewTokenService("test-secret", time.Hour)
	valid, err := tokens.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	foreign, err := services.NewTokenService("other-secret", time.Hour).Issue("user-1")
	if err != nil {
		t.Fatalf("issue foreign: %v", err)
	}

	var seen string
	protected := RequireAuth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{name: "missing header", header: "", status: http.StatusUnauthorized, message: errMissingCredential.Error()},
		{name: "wrong scheme", header: "Basic abc", status: http.StatusUnauthorized, message: errInvalidCredential.Error()},
		{name: "empty bearer", header: "Bearer   ", status: http.StatusUnauthorized, message: errMissingCredential.Error()},
		{name: "garbage token", header: "Bearer not-a-jwt", status: http.StatusUnauthorized, message: errInvalidCredential.Error()},
		{name: "foreign signature", header: "Bearer " + foreign, status: http.StatusUnauthorized, message: errInvalidCredential.Error()},
		{name: "valid token", header: "Bearer " + valid, status: http.StatusNoContent},
		{name: "case insensitive scheme", header: "bearer " + valid, status: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("status: got %d want %d", rec.Code, tt.status)
			}
			if tt.status == http.StatusNoContent {
				if seen != "user-1" {
					t.Fatalf("subject: got %q want user-1", seen)
				}
				return
			}
			var body ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Message != tt.message {
				t.Fatalf("message: got %q want %q", body.Message, tt.message)
			}
		})
	}
}

func TestUserIDFromContextMissing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := UserIDFromContext(req.Context()); err == nil {
		t.Fatalf("expected error for empty context")
	}
	if _, err := UserIDFromContext(withUserID(req.Context(), "  ")); err == nil {
		t.Fatalf("expected error for blank subject")
	}
}
