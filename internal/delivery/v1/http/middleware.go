package http

import (
	"context"
	"net/http"

	"github.com/DRSN-tech/shop-backend/pkg/e"
)

type ctxKey string

const (
	userIDKey   ctxKey = "user_id"
	userRoleKey ctxKey = "user_role"

	headerUserID   = "X-User-Id"
	headerUserRole = "X-User-Role"

	roleAdmin = "admin"
)

// authMiddleware извлекает идентификацию пользователя из заголовков.
// Аутентификацию выполняет вышестоящий шлюз, сервис доверяет заголовкам.
func authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(headerUserID)
		if userID == "" {
			WriteError(w, e.ErrForbidden)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		ctx = context.WithValue(ctx, userRoleKey, r.Header.Get(headerUserRole))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// adminOnly пропускает только запросы с ролью администратора.
func adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if roleFromCtx(r.Context()) != roleAdmin {
			WriteError(w, e.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func userIDFromCtx(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}

func roleFromCtx(ctx context.Context) string {
	role, _ := ctx.Value(userRoleKey).(string)
	return role
}
