package chi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func authProtected(apiKeys []string) http.Handler {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return BearerAuthMiddleware(apiKeys)(next)
}

func TestBearerAuth_ReadsPassWithoutToken(t *testing.T) {
	h := authProtected([]string{"secret"})

	req := httptest.NewRequest(http.MethodGet, "/listings", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, reads must stay open", rec.Code)
	}
}

func TestBearerAuth_MutationsRequireToken(t *testing.T) {
	h := authProtected([]string{"secret"})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic secret", http.StatusUnauthorized},
		{"invalid key", "Bearer wrong", http.StatusUnauthorized},
		{"valid key", "Bearer secret", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/listings", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestBearerAuth_NoKeysDisablesAuth(t *testing.T) {
	h := authProtected(nil)

	req := httptest.NewRequest(http.MethodDelete, "/listings/x", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, empty key list must disable auth", rec.Code)
	}
}
