// Package middleware holds the HTTP middleware shared by every API route
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

// PublicOwner is the owner of every request when auth is disabled
const PublicOwner = "public"

type ctxKey struct{}

// Claims are the JWT claims read by the auth middleware
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Auth resolves the owner of each request
type Auth struct {
	secret []byte
	log    logrus.FieldLogger
}

// NewAuth creates the auth middleware. An empty secret disables token checks
// and every caller becomes PublicOwner.
func NewAuth(secret string, log logrus.FieldLogger) *Auth {
	return &Auth{secret: []byte(secret), log: log}
}

// Enabled reports whether bearer tokens are required
func (a *Auth) Enabled() bool {
	return len(a.secret) > 0
}

// Handler returns the middleware handler
func (a *Auth) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), PublicOwner)))
			return
		}

		token, err := bearer(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}

		claims, err := a.validate(token)
		if err != nil {
			a.log.WithError(err).Warn("Token validation failed")
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), claims.UserID)))
	})
}

// bearer reads the token from the Authorization header, or from the
// access_token query parameter for websocket handshakes
func bearer(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		if q := r.URL.Query().Get("access_token"); q != "" {
			return q, nil
		}
		return "", errors.New("missing authorization header")
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || scheme != "Bearer" || token == "" {
		return "", errors.New("invalid authorization header format")
	}
	return token, nil
}

func (a *Auth) validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token is not valid")
	}
	if claims.UserID == "" {
		return nil, errors.New("token has no user_id")
	}
	return claims, nil
}

// WithOwner stores the request owner in ctx
func WithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ctxKey{}, owner)
}

// Owner returns the request owner set by the auth middleware
func Owner(ctx context.Context) string {
	owner, _ := ctx.Value(ctxKey{}).(string)
	return owner
}

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorBody{Error: message})
}
