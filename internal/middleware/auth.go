package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey string

const userIDKey ctxKey = "user_id"

// AuthCookieName — cookie, в которой клиент хранит токен.
const AuthCookieName = "auth_token"

const tokenTTL = 24 * time.Hour

// Claims — полезная нагрузка токена сервиса авторизации.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"user_id"`
}

// WithAuth проверяет токен из заголовка Authorization (Bearer) или из cookie
// и кладёт user_id в контекст. Запросы без токена или с невалидным токеном
// проходят дальше анонимно, решение об отказе принимает хендлер.
func WithAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := tokenFromRequest(r)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			userID, err := ParseToken(raw, secret)
			if err != nil {
				sugar.Debugw("WithAuth: token rejected", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(AuthCookieName); err == nil {
		return c.Value
	}
	return ""
}

// GetUserIDFromContext возвращает id пользователя, если запрос авторизован.
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// BuildToken подписывает токен для пользователя (HS256).
func BuildToken(userID int64, secret string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
		UserID: userID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken проверяет подпись и срок действия токена.
func ParseToken(raw, secret string) (int64, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, err
	}
	if !token.Valid || claims.UserID <= 0 {
		return 0, errors.New("invalid token")
	}
	return claims.UserID, nil
}

// SetLoginCookie выставляет cookie с токеном. Используется в тестах и локальной отладке,
// в проде токен выдаёт сервис авторизации.
func SetLoginCookie(w http.ResponseWriter, userID int64, secret string) error {
	token, err := BuildToken(userID, secret)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(tokenTTL),
	})
	return nil
}
