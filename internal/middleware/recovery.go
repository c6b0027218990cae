package middleware

import (
	"log"
	"net/http"
	"runtime/debug"

	"github.com/driveu/backend/pkg/utils"
)

// Recovery turns a handler panic into an opaque 500 instead of a dropped
// connection.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("panic in %s %s: %v\n%s", r.Method, r.URL.Path, err, debug.Stack())
				utils.InternalError(w, "an unexpected error occurred")
			}
		}()

		next.ServeHTTP(w, r)
	})
}
