package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

var sugar = zap.NewNop().Sugar()

// SetLogger задаёт логгер для всех middleware пакета.
func SetLogger(l *zap.SugaredLogger) {
	sugar = l
}

// WithLogging пишет в лог метод, путь, статус, размер ответа и длительность запроса.
func WithLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		sugar.Infow("request",
			"request_id", chimw.GetReqID(r.Context()),
			"method", r.Method,
			"uri", r.RequestURI,
			"status", ww.Status(),
			"size", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}
