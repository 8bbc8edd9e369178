// SPDX-License-Identifier: MPL-2.0

package launcher

import (
	"fmt"
	"net/http"
)

// FixedStatusApp returns an application that answers every request with the
// given status code. It is the smallest useful application object: the serve
// command uses it as the built-in default, and tests use it to verify the
// launch contract without any real business logic behind it.
func FixedStatusApp(status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		fmt.Fprintln(w, http.StatusText(status))
	})
}

// WithHealthz wraps an application with a /healthz endpoint that reports 200
// regardless of the application's own behavior, so orchestrators can probe
// liveness without touching application routes.
func WithHealthz(app http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "OK")
	})
	mux.Handle("/", app)
	return mux
}
