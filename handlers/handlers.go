package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"veshop-backend/pkg/apperror"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// decodeJSON parses the request body into dst.
func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.NewValidationError("Dữ liệu không hợp lệ")
	}
	return nil
}

// hashPassword hashes a plaintext password with bcrypt.
func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// checkPassword compares a plaintext password against a bcrypt hash.
func checkPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// generateJWT signs a session token carrying the user id.
func generateJWT(secret, userID string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"id":  userID,
		"exp": time.Now().Add(ttl).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// parseJWT validates a session token and returns the user id.
func parseJWT(secret, tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", apperror.NewUnauthorizedError("Token không hợp lệ hoặc đã hết hạn")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", apperror.NewUnauthorizedError("Token không hợp lệ")
	}
	userID, _ := claims["id"].(string)
	if userID == "" {
		return "", apperror.NewUnauthorizedError("Token không chứa thông tin người dùng")
	}
	return userID, nil
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", apperror.NewUnauthorizedError("Thiếu Authorization header")
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		return "", apperror.NewUnauthorizedError("Định dạng token không đúng, dùng 'Bearer {token}'")
	}
	return tokenString, nil
}

// requestUserID reads the user id set by JWTMiddleware.
func requestUserID(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}

// pathID extracts the trailing path segment after prefix.
// Returns an error when the segment is empty or contains further slashes.
func pathID(r *http.Request, prefix string) (string, error) {
	id := strings.TrimPrefix(r.URL.Path, prefix)
	if id == "" || strings.Contains(id, "/") {
		return "", apperror.NewValidationError("Thiếu hoặc sai định dạng id trên đường dẫn")
	}
	return id, nil
}
