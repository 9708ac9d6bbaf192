package middleware

import (
	"context"
	"net/http"
	"strings"

	"doubtdesk/internal/service"
)

type contextKey string

const (
	StudentIDKey contextKey = "studentId"
	UsernameKey  contextKey = "username"
	ClassKey     contextKey = "class"
)

// AuthMiddleware resolves the bearer token into student claims.
type AuthMiddleware struct {
	authSvc *service.AuthService
}

// NewAuthMiddleware creates a new auth middleware.
func NewAuthMiddleware(authSvc *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{authSvc: authSvc}
}

// RequireStudent validates the student token from the Authorization header.
func (m *AuthMiddleware) RequireStudent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			http.Error(w, `{"error":"missing authorization header"}`, http.StatusUnauthorized)
			return
		}

		claims, err := m.authSvc.ValidateStudentToken(token)
		if err != nil {
			http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), StudentIDKey, claims.StudentID)
		ctx = context.WithValue(ctx, UsernameKey, claims.Username)
		ctx = context.WithValue(ctx, ClassKey, claims.Class)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// GetStudentID returns the authenticated student id from the context.
func GetStudentID(ctx context.Context) string {
	id, _ := ctx.Value(StudentIDKey).(string)
	return id
}

// GetClass returns the authenticated student's class from the context.
func GetClass(ctx context.Context) string {
	class, _ := ctx.Value(ClassKey).(string)
	return class
}
