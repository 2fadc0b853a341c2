package middleware

import (
	"ByteGuard/internal/repo"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type contextKey string

const (
	userIDKey contextKey = "user_id"
	tokenKey  contextKey = "token_info"
)

// Claims — полезная нагрузка токена доступа.
type Claims struct {
	jwt.RegisteredClaims
	UserID       int64  `json:"uid"`
	ResearcherID string `json:"rid"`
}

// TokenInfo — данные текущего токена для logout (отзыв по jti).
type TokenInfo struct {
	JTI       string
	ExpiresAt time.Time
}

// IssueToken выпускает подписанный HS256 bearer-токен с jti.
func IssueToken(userID int64, researcherID, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:       userID,
		ResearcherID: researcherID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// WithAuth разбирает заголовок Authorization: Bearer <jwt> и кладёт user_id
// в контекст. Невалидный, просроченный или отозванный токен оставляет запрос
// анонимным; решение отдать 401 принимает хендлер. Отзыв проверяется по
// общему реестру в БД, а не по памяти процесса.
func WithAuth(secret string, revoked repo.RevocationRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid || claims.UserID == 0 {
				next.ServeHTTP(w, r)
				return
			}

			if revoked != nil && claims.ID != "" {
				isRevoked, err := revoked.IsRevoked(r.Context(), claims.ID)
				if err != nil || isRevoked {
					next.ServeHTTP(w, r)
					return
				}
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
			var exp time.Time
			if claims.ExpiresAt != nil {
				exp = claims.ExpiresAt.Time
			}
			ctx = context.WithValue(ctx, tokenKey, TokenInfo{JTI: claims.ID, ExpiresAt: exp})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// GetUserIDFromContext — user_id аутентифицированного запроса.
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// GetTokenInfoFromContext — jti и срок текущего токена.
func GetTokenInfoFromContext(ctx context.Context) (TokenInfo, bool) {
	ti, ok := ctx.Value(tokenKey).(TokenInfo)
	return ti, ok
}
