package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func sign(body, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestWebhookHMAC(t *testing.T) {
	const body = `{"eventType":"RUN_FINISH"}`

	tests := []struct {
		name   string
		secret string
		sig    string
		body   string
		want   int
	}{
		{"valid prefixed", "s", sign(body, "s"), body, http.StatusAccepted},
		{"valid raw hex", "s", strings.TrimPrefix(sign(body, "s"), "sha256="), body, http.StatusAccepted},
		{"missing", "s", "", body, http.StatusUnauthorized},
		{"wrong secret", "s", sign(body, "other"), body, http.StatusForbidden},
		{"not hex", "s", "sha256=zz", body, http.StatusForbidden},
		{"unconfigured", "", sign(body, ""), body, http.StatusServiceUnavailable},
		{"too large", "s", "sha256=00", strings.Repeat("a", MaxEventBody+1), http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			h := WebhookHMAC(tt.secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				b, _ := io.ReadAll(r.Body)
				seen = string(b)
				w.WriteHeader(http.StatusAccepted)
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/v1/events/run", strings.NewReader(tt.body))
			if tt.sig != "" {
				req.Header.Set(SignatureHeader, tt.sig)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
			if tt.want == http.StatusAccepted && seen != tt.body {
				t.Fatalf("body not restored: %q", seen)
			}
		})
	}
}

func TestWebhookHMACFuncRotation(t *testing.T) {
	const body = `{}`
	secret := "old"
	h := WebhookHMACFunc(func() string { return secret })(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	send := func(sig string) int {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set(SignatureHeader, sig)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send(sign(body, "old")); code != http.StatusAccepted {
		t.Fatalf("old secret status = %d", code)
	}
	secret = "new"
	if code := send(sign(body, "old")); code != http.StatusForbidden {
		t.Fatalf("rotated-out secret status = %d", code)
	}
	if code := send(sign(body, "new")); code != http.StatusAccepted {
		t.Fatalf("new secret status = %d", code)
	}
}
