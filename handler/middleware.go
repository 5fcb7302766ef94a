package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"storefront/session"
)

type ctxKey int

const (
	ctxCustomerID ctxKey = iota
	ctxSessionToken
)

const sessionCookie = "session_token"

// CustomerID returns the authenticated customer id injected by
// RequireSession.
func CustomerID(ctx context.Context) int64 {
	id, _ := ctx.Value(ctxCustomerID).(int64)
	return id
}

// SessionToken returns the session token injected by RequireSession.
func SessionToken(ctx context.Context) string {
	token, _ := ctx.Value(ctxSessionToken).(string)
	return token
}

// RequireSession resolves the request's session token into a customer id
// and rejects the request when no live session exists. The token is read
// from the session cookie or an Authorization bearer header.
func (h *Handler) RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := requestToken(r)
		if token == "" {
			writeErr(w, http.StatusUnauthorized, "login required")
			return
		}

		customerID, err := h.sessions.Customer(r.Context(), token)
		if errors.Is(err, session.ErrNoSession) {
			writeErr(w, http.StatusUnauthorized, "session expired")
			return
		}
		if err != nil {
			writeErr(w, http.StatusInternalServerError, "session lookup failed")
			return
		}

		ctx := context.WithValue(r.Context(), ctxCustomerID, customerID)
		ctx = context.WithValue(ctx, ctxSessionToken, token)
		next(w, r.WithContext(ctx))
	}
}

func requestToken(r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// Logger logs method, path and duration for every request.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %v", r.Method, r.URL.Path, time.Since(start))
	})
}
