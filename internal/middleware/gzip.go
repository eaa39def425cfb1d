package middleware

import (
	chimw "github.com/go-chi/chi/v5/middleware"
)

// WithGzip сжимает JSON и текстовые ответы, если клиент прислал Accept-Encoding: gzip.
// Медиа (image/*) отдаётся как есть.
var WithGzip = chimw.Compress(5, "application/json", "text/plain")
