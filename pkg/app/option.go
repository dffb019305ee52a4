package app

import (
	"net/http"
)

// Option configures the environment run by Run().
type Option func(o *opts)

type opts struct {
	configPath  string
	middlewares []func(http.Handler) http.Handler
}

// WithConfigPath sets the path of the YAML configuration file. A missing file
// is not an error.
func WithConfigPath(path string) Option {
	return func(o *opts) {
		o.configPath = path
	}
}

// WithMiddleware configures the app's HTTP server to use the provided middleware.
//
// Middlewares are evaluated in addition order, and run after the app's default
// middleware.
func WithMiddleware(middleware func(http.Handler) http.Handler) Option {
	return func(o *opts) {
		o.middlewares = append(o.middlewares, middleware)
	}
}
