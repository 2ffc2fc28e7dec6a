package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	tokenTTL = 24 * time.Hour

	// The login state travels in this cookie and must come back unchanged
	// in the callback query.
	stateCookie = "partybot_oauth_state"
	stateTTL    = 10 * time.Minute
)

type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type ctxKey int

const claimsKey ctxKey = iota

// IssueToken signs an API token for userID.
func IssueToken(secret []byte, userID, username string, now time.Time, ttl time.Duration) (string, error) {
	claims := &Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to create token: %w", err)
	}
	return token, nil
}

// Auth handlers
func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if a.oauthConfig.ClientID == "" {
		http.Error(w, "discord login is not configured", http.StatusServiceUnavailable)
		return
	}
	state, err := generateRandomString(32)
	if err != nil {
		http.Error(w, "failed to generate state", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/api/auth",
		MaxAge:   int(stateTTL.Seconds()),
		HttpOnly: true,
		Secure:   strings.HasPrefix(a.oauthConfig.RedirectURL, "https://"),
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{
		"auth_url": a.oauthConfig.AuthCodeURL(state),
		"state":    state,
	})
}

func (a *API) authenticateUser(ctx context.Context, code string) (string, *DiscordUser, error) {
	token, err := a.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return "", nil, fmt.Errorf("token exchange failed: %w", err)
	}

	user, err := a.getDiscordUser(ctx, a.oauthConfig.Client(ctx, token))
	if err != nil {
		return "", nil, fmt.Errorf("failed to get user: %w", err)
	}

	signed, err := IssueToken(a.jwtSecret, user.ID, getUsername(user), a.now(), tokenTTL)
	if err != nil {
		return "", nil, err
	}
	return signed, user, nil
}

func (a *API) handleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing code", http.StatusBadRequest)
		return
	}
	if !validState(r) {
		http.Error(w, "invalid state", http.StatusBadRequest)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: "/api/auth", MaxAge: -1})

	tokenString, user, err := a.authenticateUser(r.Context(), code)
	if err != nil {
		a.logger.Warn("discord login failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"token":    tokenString,
		"user_id":  user.ID,
		"username": getUsername(user),
		"web_ui":   a.config.WebUIBaseURL,
	})
}

func validState(r *http.Request) bool {
	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" {
		return false
	}
	got := r.URL.Query().Get("state")
	return subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(got)) == 1
}

// Middleware
func (a *API) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "missing authorization header", http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			http.Error(w, "invalid authorization header", http.StatusUnauthorized)
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return a.jwtSecret, nil
		}, jwt.WithTimeFunc(a.now))

		if err != nil || !token.Valid {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		if _, err := strconv.ParseInt(claims.UserID, 10, 64); err != nil {
			http.Error(w, "invalid token subject", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requesterID returns the numeric user ID of an authenticated request.
func requesterID(r *http.Request) int64 {
	claims, _ := r.Context().Value(claimsKey).(*Claims)
	if claims == nil {
		return 0
	}
	id, _ := strconv.ParseInt(claims.UserID, 10, 64)
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
