package response

import (
	"encoding/json"
	"net/http"

	"veshop-backend/pkg/apperror"
	"veshop-backend/pkg/logger"

	"go.uber.org/zap"
)

// Response is the standard API envelope.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo is the client-visible part of an error.
type ErrorInfo struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Success writes a 200 envelope.
func Success(w http.ResponseWriter, data interface{}, message string) {
	write(w, http.StatusOK, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Created writes a 201 envelope.
func Created(w http.ResponseWriter, data interface{}, message string) {
	write(w, http.StatusCreated, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// NoContent writes an empty 204.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error maps err to the error taxonomy and writes the envelope. Internal
// errors are logged with request context; client errors only at warn level.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperror.FromError(err)

	if appErr.Internal != nil {
		logger.Error("Request error",
			zap.String("path", r.URL.Path),
			zap.String("method", r.Method),
			zap.String("error_code", appErr.Code),
			zap.Error(appErr.Internal),
			zap.String("remote_addr", r.RemoteAddr),
		)
	} else {
		logger.Warn("Client error",
			zap.String("path", r.URL.Path),
			zap.String("method", r.Method),
			zap.String("error_code", appErr.Code),
			zap.String("message", appErr.Message),
		)
	}

	write(w, appErr.HTTPStatus, Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    appErr.Code,
			Message: appErr.Message,
			Fields:  appErr.Fields,
		},
	})
}

func write(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
