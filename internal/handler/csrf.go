package handler

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"log/slog"
	"net/http"

	"github.com/pavelanni/grader/internal/handler/views"
	"github.com/pavelanni/grader/internal/model"
)

const csrfCookieName = "csrf_token"

func generateCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

func (h *Handler) cookiePath() string {
	return h.path("/")
}

// csrfMiddleware implements double-submit cookies. Safe methods reuse the
// cookie token or issue one; every other method must echo the cookie in the
// csrf_token form field. The token is not rotated so several forms on one
// page, and htmx fragments, stay valid.
func (h *Handler) csrfMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(csrfCookieName)
		hasCookie := err == nil && cookie.Value != ""

		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			token := ""
			if hasCookie {
				token = cookie.Value
			} else {
				token, err = generateCSRFToken()
				if err != nil {
					slog.Error("failed to generate CSRF token", "error", err)
					http.Error(w, "internal error", http.StatusInternalServerError)
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     csrfCookieName,
					Value:    token,
					Path:     h.cookiePath(),
					HttpOnly: false,
					Secure:   h.config.SecureCookies,
					SameSite: http.SameSiteLaxMode,
				})
			}
			ctx := model.ContextWithCSRFToken(r.Context(), token)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		if !hasCookie {
			slog.Warn("CSRF cookie missing")
			http.Error(w, "csrf token missing", http.StatusForbidden)
			return
		}

		if !parseForm(w, r) {
			return
		}
		formToken := r.PostFormValue(views.CSRFInput)
		if formToken == "" {
			slog.Warn("CSRF form token missing")
			http.Error(w, "csrf token missing", http.StatusForbidden)
			return
		}

		if len(formToken) != len(cookie.Value) || subtle.ConstantTimeCompare([]byte(formToken), []byte(cookie.Value)) != 1 {
			slog.Warn("CSRF token mismatch")
			http.Error(w, "invalid csrf token", http.StatusForbidden)
			return
		}

		ctx := model.ContextWithCSRFToken(r.Context(), cookie.Value)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
