package handlers

import (
	"database/sql"
	"net/http"

	"veshop-backend/pkg/apperror"
	"veshop-backend/pkg/logger"
	"veshop-backend/pkg/ratelimit"
	"veshop-backend/pkg/response"

	"go.uber.org/zap"
)

// CORS adds permissive CORS headers and answers preflight requests.
func CORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		logger.Debug("📥 Request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr),
		)

		next(w, r)
	}
}

// JWTMiddleware validates the session token and passes the user id to the
// next handler through the X-User-ID header.
func JWTMiddleware(jwtSecret string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString, err := bearerToken(r)
		if err != nil {
			response.Error(w, r, err)
			return
		}

		userID, err := parseJWT(jwtSecret, tokenString)
		if err != nil {
			response.Error(w, r, err)
			return
		}

		r.Header.Set("X-User-ID", userID)
		next(w, r)
	}
}

// RequireRole checks the user's role against the allowed list. The role is
// read from the database so role changes apply to live sessions.
func RequireRole(db *sql.DB, jwtSecret string, allowedRoles ...string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return JWTMiddleware(jwtSecret, func(w http.ResponseWriter, r *http.Request) {
			userID := requestUserID(r)

			var userRole string
			err := db.QueryRow("SELECT COALESCE(role, 'customer') FROM users WHERE id = $1", userID).Scan(&userRole)
			if err == sql.ErrNoRows {
				response.Error(w, r, apperror.NewUnauthorizedError("Người dùng không tồn tại"))
				return
			}
			if err != nil {
				response.Error(w, r, apperror.NewDatabaseError("role lookup", err))
				return
			}

			for _, allowed := range allowedRoles {
				if userRole == allowed {
					r.Header.Set("X-User-Role", userRole)
					next(w, r)
					return
				}
			}

			response.Error(w, r, apperror.NewForbiddenError("Bạn không có quyền truy cập"))
		})
	}
}

// RateLimit rejects requests once the client's key exceeds the limit.
// Keys are scoped per route so one endpoint cannot starve another.
func RateLimit(limiter ratelimit.Limiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Path + ":" + clientIP(r)
		allowed, err := limiter.Allow(key)
		if err != nil {
			logger.Warn("Rate limiter error", zap.Error(err))
			// Fail open: limiter outage must not take auth down with it.
			next(w, r)
			return
		}
		if !allowed {
			response.Error(w, r, apperror.NewRateLimitError("Quá nhiều yêu cầu, vui lòng thử lại sau"))
			return
		}
		next(w, r)
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	return r.RemoteAddr
}
