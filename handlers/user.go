package handlers

import (
	"database/sql"
	"net/http"

	"veshop-backend/models"
	"veshop-backend/pkg/apperror"
	"veshop-backend/pkg/response"
	"veshop-backend/pkg/validator"
)

// UserMeHandler routes /api/user/me by method.
func UserMeHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			GetProfile(db)(w, r)
		case http.MethodPut:
			UpdateProfile(db)(w, r)
		default:
			response.Error(w, r, apperror.NewValidationError("Phương thức không được hỗ trợ"))
		}
	}
}

// GetProfile returns the authenticated user's record.
func GetProfile(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := requestUserID(r)

		var user models.User
		var avatar sql.NullString
		err := db.QueryRow(`
			SELECT id, name, email, COALESCE(role, 'customer'), verified, avatar, created_at, updated_at
			FROM users WHERE id = $1
		`, userID).Scan(&user.ID, &user.Name, &user.Email, &user.Role,
			&user.Verified, &avatar, &user.CreatedAt, &user.UpdatedAt)
		if err == sql.ErrNoRows {
			response.Error(w, r, apperror.NewNotFoundError("Không tìm thấy người dùng"))
			return
		}
		if err != nil {
			response.Error(w, r, apperror.NewDatabaseError("profile query", err))
			return
		}
		if avatar.Valid {
			user.Avatar = avatar.String
		}

		response.Success(w, user, "")
	}
}

// UpdateProfile mutates the caller's name and avatar. Empty fields keep
// their current values.
func UpdateProfile(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := requestUserID(r)

		var req models.UpdateProfileRequest
		if err := decodeJSON(r, &req); err != nil {
			response.Error(w, r, err)
			return
		}
		if err := validator.Validate(req); err != nil {
			response.Error(w, r, err)
			return
		}

		var user models.User
		var avatar sql.NullString
		err := db.QueryRow(`
			UPDATE users
			SET name = COALESCE(NULLIF($1, ''), name),
			    avatar = COALESCE(NULLIF($2, ''), avatar),
			    updated_at = NOW()
			WHERE id = $3
			RETURNING id, name, email, COALESCE(role, 'customer'), verified, avatar, created_at, updated_at
		`, req.Name, req.Avatar, userID).Scan(&user.ID, &user.Name, &user.Email, &user.Role,
			&user.Verified, &avatar, &user.CreatedAt, &user.UpdatedAt)
		if err == sql.ErrNoRows {
			response.Error(w, r, apperror.NewNotFoundError("Không tìm thấy người dùng"))
			return
		}
		if err != nil {
			response.Error(w, r, apperror.NewDatabaseError("profile update", err))
			return
		}
		if avatar.Valid {
			user.Avatar = avatar.String
		}

		response.Success(w, user, "Cập nhật thông tin thành công")
	}
}
