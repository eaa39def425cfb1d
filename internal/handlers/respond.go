package handlers

import (
	"Cookbook/internal/middleware"
	"Cookbook/internal/nutrition"
	"Cookbook/internal/service"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// ErrorResponse — тело ответа с ошибкой. Code позволяет клиенту отличить конфликт
// заголовка от прочих ошибок.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeFail(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Code: code})
}

// writeError переводит ошибку сервиса в HTTP-статус.
func writeError(w http.ResponseWriter, logger *zap.SugaredLogger, op string, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		// подробности (ключи объектов, ошибки БД) остаются только в логе
		logger.Errorw(op+": failed", "status", status, "code", code, "error", err)
		writeFail(w, status, code, serverErrorMessages[code])
		return
	}
	logger.Warnw(op+": rejected", "status", status, "error", err)
	writeFail(w, status, code, err.Error())
}

var serverErrorMessages = map[string]string{
	"PUBLISH_FAILED":        "publish failed, the draft is unchanged, try again",
	"STORAGE_UNAVAILABLE":   "media storage unavailable",
	"NUTRITION_UNAVAILABLE": "nutrition service unavailable",
	"INTERNAL":              "internal error",
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, service.ErrValidation), errors.Is(err, nutrition.ErrInvalidIngredients):
		return http.StatusBadRequest, "VALIDATION_FAILED"
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, "CONFLICT"
	case errors.Is(err, nutrition.ErrRateLimited):
		return http.StatusTooManyRequests, "RATE_LIMITED"
	case errors.Is(err, nutrition.ErrUnavailable):
		return http.StatusBadGateway, "NUTRITION_UNAVAILABLE"
	case errors.Is(err, service.ErrPublishFailed):
		return http.StatusInternalServerError, "PUBLISH_FAILED"
	case errors.Is(err, service.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

// requireUser достаёт id пользователя; без авторизации отвечает 401.
func requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeFail(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return 0, false
	}
	return userID, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, op string, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.Warnw(op+": invalid request body", "error", err)
		writeFail(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid request body")
		return false
	}
	return true
}
