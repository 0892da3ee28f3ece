package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"veshop-backend/models"
	"veshop-backend/pkg/apperror"
	"veshop-backend/pkg/config"
	"veshop-backend/pkg/logger"
	"veshop-backend/pkg/mail"
	"veshop-backend/pkg/response"
	"veshop-backend/pkg/tokenstore"
	"veshop-backend/pkg/validator"

	"go.uber.org/zap"
)

// Register godoc
// @Summary      Đăng ký tài khoản
// @Description  Tạo tài khoản mới ở trạng thái chưa xác thực và gửi mã OTP qua email
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body models.RegisterRequest true "Thông tin đăng ký"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/register [post]
func Register(db *sql.DB, tokens tokenstore.Store, mailer mail.Mailer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			response.Error(w, r, apperror.NewValidationError("Chỉ hỗ trợ phương thức POST"))
			return
		}

		var req models.RegisterRequest
		if err := decodeJSON(r, &req); err != nil {
			response.Error(w, r, err)
			return
		}
		if err := validator.Validate(req); err != nil {
			response.Error(w, r, err)
			return
		}
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))

		var existingID string
		err := db.QueryRow("SELECT id FROM users WHERE email = $1", req.Email).Scan(&existingID)
		if err == nil {
			response.Error(w, r, apperror.NewConflictError("Email đã được đăng ký"))
			return
		}
		if err != sql.ErrNoRows {
			response.Error(w, r, apperror.NewDatabaseError("user lookup", err))
			return
		}

		passwordHash, err := hashPassword(req.Password)
		if err != nil {
			response.Error(w, r, apperror.NewInternalError("Không thể xử lý mật khẩu", err))
			return
		}

		var user models.User
		err = db.QueryRow(`
			INSERT INTO users (name, email, password, role, verified)
			VALUES ($1, $2, $3, 'customer', false)
			RETURNING id, name, email, role, verified, created_at, updated_at
		`, req.Name, req.Email, passwordHash).Scan(
			&user.ID, &user.Name, &user.Email, &user.Role, &user.Verified,
			&user.CreatedAt, &user.UpdatedAt,
		)
		if err != nil {
			response.Error(w, r, apperror.NewDatabaseError("user insert", err))
			return
		}

		otp, err := tokens.IssueOtp(r.Context(), req.Email)
		if err != nil {
			response.Error(w, r, apperror.NewInternalError("Không thể tạo mã xác thực", err))
			return
		}

		if err := mailer.SendOtp(req.Email, otp.Otp); err != nil {
			logger.Warn("OTP mail delivery failed",
				zap.String("email", req.Email),
				zap.Error(err),
			)
		}

		logger.Info("✅ User registered", zap.String("email", req.Email))
		response.Created(w, user, "Đăng ký thành công, vui lòng kiểm tra email để xác thực tài khoản")
	}
}

// VerifyOtp confirms the registration code and marks the account verified.
// The code is single-use: it is deleted once matched.
func VerifyOtp(db *sql.DB, tokens tokenstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			response.Error(w, r, apperror.NewValidationError("Chỉ hỗ trợ phương thức POST"))
			return
		}

		var req models.VerifyOtpRequest
		if err := decodeJSON(r, &req); err != nil {
			response.Error(w, r, err)
			return
		}
		if err := validator.Validate(req); err != nil {
			response.Error(w, r, err)
			return
		}
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))

		stored, err := tokens.GetOtp(r.Context(), req.Email)
		if errors.Is(err, tokenstore.ErrNotFound) {
			response.Error(w, r, apperror.NewNotFoundError("Không tìm thấy mã xác thực cho email này"))
			return
		}
		if err != nil {
			response.Error(w, r, apperror.NewInternalError("Không thể kiểm tra mã xác thực", err))
			return
		}

		if stored.Otp != req.Otp {
			response.Error(w, r, apperror.NewUnauthorizedError("Mã xác thực không đúng"))
			return
		}

		result, err := db.Exec(`
			UPDATE users SET verified = true, updated_at = NOW()
			WHERE email = $1
		`, req.Email)
		if err != nil {
			response.Error(w, r, apperror.NewDatabaseError("user verify", err))
			return
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			response.Error(w, r, apperror.NewNotFoundError("Tài khoản không tồn tại"))
			return
		}

		if err := tokens.DeleteOtp(r.Context(), req.Email); err != nil {
			logger.Warn("OTP cleanup failed", zap.String("email", req.Email), zap.Error(err))
		}

		logger.Info("✅ Account verified", zap.String("email", req.Email))
		response.Success(w, nil, "Xác thực tài khoản thành công")
	}
}

// ResendOtp reissues the registration code. Any previous code for the email
// is replaced, so only the latest one verifies.
func ResendOtp(db *sql.DB, tokens tokenstore.Store, mailer mail.Mailer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			response.Error(w, r, apperror.NewValidationError("Chỉ hỗ trợ phương thức POST"))
			return
		}

		var req models.ResendOtpRequest
		if err := decodeJSON(r, &req); err != nil {
			response.Error(w, r, err)
			return
		}
		if err := validator.Validate(req); err != nil {
			response.Error(w, r, err)
			return
		}
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))

		var verified bool
		err := db.QueryRow("SELECT verified FROM users WHERE email = $1", req.Email).Scan(&verified)
		if err == sql.ErrNoRows {
			response.Error(w, r, apperror.NewNotFoundError("Email chưa được đăng ký"))
			return
		}
		if err != nil {
			response.Error(w, r, apperror.NewDatabaseError("user lookup", err))
			return
		}
		if verified {
			response.Error(w, r, apperror.NewConflictError("Tài khoản đã được xác thực"))
			return
		}

		otp, err := tokens.IssueOtp(r.Context(), req.Email)
		if err != nil {
			response.Error(w, r, apperror.NewInternalError("Không thể tạo mã xác thực", err))
			return
		}

		if err := mailer.SendOtp(req.Email, otp.Otp); err != nil {
			logger.Warn("OTP mail delivery failed",
				zap.String("email", req.Email),
				zap.Error(err),
			)
		}

		response.Success(w, nil, "Đã gửi lại mã xác thực, vui lòng kiểm tra email")
	}
}

// Login godoc
// @Summary      Đăng nhập
// @Description  Đăng nhập bằng email và mật khẩu, trả về JWT token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body models.LoginRequest true "Thông tin đăng nhập"
// @Success      200  {object}  response.Response
// @Failure      401  {object}  response.Response
// @Router       /api/login [post]
func Login(db *sql.DB, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			response.Error(w, r, apperror.NewValidationError("Chỉ hỗ trợ phương thức POST"))
			return
		}

		var req models.LoginRequest
		if err := decodeJSON(r, &req); err != nil {
			response.Error(w, r, err)
			return
		}
		if err := validator.Validate(req); err != nil {
			response.Error(w, r, err)
			return
		}
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))

		var user models.User
		var passwordHash string
		var avatar sql.NullString
		err := db.QueryRow(`
			SELECT id, name, email, password, COALESCE(role, 'customer'), verified, avatar, created_at, updated_at
			FROM users WHERE email = $1
		`, req.Email).Scan(
			&user.ID, &user.Name, &user.Email, &passwordHash, &user.Role,
			&user.Verified, &avatar, &user.CreatedAt, &user.UpdatedAt,
		)
		if err == sql.ErrNoRows {
			response.Error(w, r, apperror.NewNotFoundError("Người dùng không tồn tại trong hệ thống").
				WithField("email", "Người dùng không tồn tại trong hệ thống"))
			return
		}
		if err != nil {
			response.Error(w, r, apperror.NewDatabaseError("login query", err))
			return
		}
		if avatar.Valid {
			user.Avatar = avatar.String
		}

		if !checkPassword(req.Password, passwordHash) {
			response.Error(w, r, apperror.NewUnauthorizedError("Mật khẩu không đúng").
				WithField("password", "Mật khẩu không đúng"))
			return
		}

		token, err := generateJWT(cfg.JWTSecret, user.ID, cfg.SessionTTL)
		if err != nil {
			response.Error(w, r, apperror.NewInternalError("Không thể tạo token", err))
			return
		}

		logger.Info("✅ User logged in", zap.String("email", user.Email))
		response.Success(w, models.LoginResponse{User: &user, Token: token}, "Đăng nhập thành công")
	}
}

// ForgotPassword issues a password reset code and mails it. While an
// unexpired reset record exists for the email, further requests conflict;
// the resend endpoint replaces it instead.
func ForgotPassword(db *sql.DB, tokens tokenstore.Store, mailer mail.Mailer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			response.Error(w, r, apperror.NewValidationError("Chỉ hỗ trợ phương thức POST"))
			return
		}

		var req models.ForgotPasswordRequest
		if err := decodeJSON(r, &req); err != nil {
			response.Error(w, r, err)
			return
		}
		if err := validator.Validate(req); err != nil {
			response.Error(w, r, err)
			return
		}
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))

		var existingID string
		err := db.QueryRow("SELECT id FROM users WHERE email = $1", req.Email).Scan(&existingID)
		if err == sql.ErrNoRows {
			response.Error(w, r, apperror.NewNotFoundError("Email chưa được đăng ký"))
			return
		}
		if err != nil {
			response.Error(w, r, apperror.NewDatabaseError("user lookup", err))
			return
		}

		reset, err := tokens.CreateForgotToken(r.Context(), req.Email)
		if errors.Is(err, tokenstore.ErrConflict) {
			response.Error(w, r, apperror.NewConflictError("Đã gửi mã khôi phục trước đó, vui lòng kiểm tra email hoặc yêu cầu gửi lại"))
			return
		}
		if err != nil {
			response.Error(w, r, apperror.NewInternalError("Không thể tạo mã khôi phục", err))
			return
		}

		if err := mailer.SendResetCode(req.Email, reset.Token); err != nil {
			logger.Warn("Reset code mail delivery failed",
				zap.String("email", req.Email),
				zap.Error(err),
			)
		}

		response.Success(w, nil, "Đã gửi mã khôi phục mật khẩu, vui lòng kiểm tra email")
	}
}

// ResendForgotToken replaces any existing reset record for the email with a
// fresh random token and mails a reset link.
func ResendForgotToken(db *sql.DB, cfg *config.Config, tokens tokenstore.Store, mailer mail.Mailer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			response.Error(w, r, apperror.NewValidationError("Chỉ hỗ trợ phương thức POST"))
			return
		}

		var req models.ForgotPasswordRequest
		if err := decodeJSON(r, &req); err != nil {
			response.Error(w, r, err)
			return
		}
		if err := validator.Validate(req); err != nil {
			response.Error(w, r, err)
			return
		}
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))

		var existingID string
		err := db.QueryRow("SELECT id FROM users WHERE email = $1", req.Email).Scan(&existingID)
		if err == sql.ErrNoRows {
			response.Error(w, r, apperror.NewNotFoundError("Email chưa được đăng ký"))
			return
		}
		if err != nil {
			response.Error(w, r, apperror.NewDatabaseError("user lookup", err))
			return
		}

		reset, err := tokens.ReplaceForgotToken(r.Context(), req.Email)
		if err != nil {
			response.Error(w, r, apperror.NewInternalError("Không thể tạo mã khôi phục", err))
			return
		}

		link := fmt.Sprintf("%s/reset-password?token=%s", cfg.ClientURL, reset.Token)
		if err := mailer.SendResetLink(req.Email, link); err != nil {
			logger.Warn("Reset link mail delivery failed",
				zap.String("email", req.Email),
				zap.Error(err),
			)
		}

		response.Success(w, nil, "Đã gửi lại liên kết khôi phục mật khẩu")
	}
}

// VerifyForgotToken reports whether a reset token exists. Expiry is only
// enforced when the token is consumed by ResetPassword.
func VerifyForgotToken(tokens tokenstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			response.Error(w, r, apperror.NewValidationError("Chỉ hỗ trợ phương thức POST"))
			return
		}

		var req models.VerifyForgotTokenRequest
		if err := decodeJSON(r, &req); err != nil {
			response.Error(w, r, err)
			return
		}
		if err := validator.Validate(req); err != nil {
			response.Error(w, r, err)
			return
		}

		_, err := tokens.GetForgotToken(r.Context(), req.Token)
		if errors.Is(err, tokenstore.ErrNotFound) {
			response.Error(w, r, apperror.NewNotFoundError("Mã khôi phục không tồn tại"))
			return
		}
		if err != nil {
			response.Error(w, r, apperror.NewInternalError("Không thể kiểm tra mã khôi phục", err))
			return
		}

		response.Success(w, nil, "Mã khôi phục hợp lệ")
	}
}

// ResetPassword consumes a reset token and sets the new password. Expired
// tokens are rejected here even though VerifyForgotToken accepted them.
func ResetPassword(db *sql.DB, tokens tokenstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			response.Error(w, r, apperror.NewValidationError("Chỉ hỗ trợ phương thức POST"))
			return
		}

		var req models.ResetPasswordRequest
		if err := decodeJSON(r, &req); err != nil {
			response.Error(w, r, err)
			return
		}
		if err := validator.Validate(req); err != nil {
			response.Error(w, r, err)
			return
		}

		reset, err := tokens.GetForgotToken(r.Context(), req.Token)
		if errors.Is(err, tokenstore.ErrNotFound) {
			response.Error(w, r, apperror.NewNotFoundError("Mã khôi phục không tồn tại"))
			return
		}
		if err != nil {
			response.Error(w, r, apperror.NewInternalError("Không thể kiểm tra mã khôi phục", err))
			return
		}

		if reset.Expired(time.Now()) {
			response.Error(w, r, apperror.NewExpiredError("Mã khôi phục đã hết hạn, vui lòng yêu cầu mã mới"))
			return
		}

		passwordHash, err := hashPassword(req.NewPassword)
		if err != nil {
			response.Error(w, r, apperror.NewInternalError("Không thể xử lý mật khẩu", err))
			return
		}

		result, err := db.Exec(`
			UPDATE users SET password = $1, updated_at = NOW()
			WHERE email = $2
		`, passwordHash, reset.Email)
		if err != nil {
			response.Error(w, r, apperror.NewDatabaseError("password update", err))
			return
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			response.Error(w, r, apperror.NewNotFoundError("Tài khoản không tồn tại"))
			return
		}

		if err := tokens.DeleteForgotToken(r.Context(), reset); err != nil {
			logger.Warn("Reset token cleanup failed", zap.String("email", reset.Email), zap.Error(err))
		}

		logger.Info("✅ Password reset", zap.String("email", reset.Email))
		response.Success(w, nil, "Đặt lại mật khẩu thành công")
	}
}
