package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/HilaMasturov/banking-system-home-assignment-sub000/internal/core/logger"
)

type ErrorHandler struct {
	handler http.Handler
	log     logger.Logger
}

// WithErrorHandler is the outermost safety net: any panic that escapes the
// inner middleware chain is answered with the JSON error envelope.
func WithErrorHandler(log logger.Logger) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return &ErrorHandler{handler: h, log: log}
	}
}

func (eh *ErrorHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if err := recover(); err != nil {
			eh.log.Error("request processing failed",
				logger.StringField("method", r.Method),
				logger.StringField("path", r.URL.Path),
				logger.AnyField("error", err),
			)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprintf(w, `{"message":"Internal Server Error","error":"Internal Server Error","status":500,"path":%q,"timestamp":%q}`,
				r.URL.Path, time.Now().UTC().Format(time.RFC3339))
		}
	}()

	eh.handler.ServeHTTP(w, r)
}
