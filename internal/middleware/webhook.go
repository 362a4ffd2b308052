package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strings"
)

// SignatureHeader carries "sha256=<hex>" of the request body.
const SignatureHeader = "X-Runhooks-Signature"

// MaxEventBody caps signed request bodies.
const MaxEventBody = 1 << 20

// WebhookHMAC rejects requests whose SignatureHeader does not match the
// HMAC-SHA256 of the body under secret. The body is restored for next.
func WebhookHMAC(secret string) func(http.Handler) http.Handler {
	return WebhookHMACFunc(func() string { return secret })
}

// WebhookHMACFunc is WebhookHMAC with the secret looked up per request, so a
// rotated secret applies without a restart.
func WebhookHMACFunc(secretFn func() string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			secret := secretFn()
			if secret == "" {
				writeError(w, http.StatusServiceUnavailable, "event secret not configured")
				return
			}

			sig := r.Header.Get(SignatureHeader)
			if sig == "" {
				writeError(w, http.StatusUnauthorized, "missing signature")
				return
			}

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxEventBody))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					writeError(w, http.StatusRequestEntityTooLarge, "body too large")
					return
				}
				writeError(w, http.StatusBadRequest, "failed to read body")
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			if !VerifySignature(body, sig, secret) {
				writeError(w, http.StatusForbidden, "invalid signature")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// VerifySignature checks signature, given as raw hex or "sha256=<hex>".
func VerifySignature(payload []byte, signature, secret string) bool {
	got, err := hex.DecodeString(strings.TrimPrefix(signature, "sha256="))
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(got, mac.Sum(nil))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
