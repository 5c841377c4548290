// Package chi provides autowire integration for the Chi router.
//
// It forks the wiring root once per request, so request handlers resolve
// against an isolated instance table while reusing all cached introspection.
//
// Example usage:
//
//	root := autowire.New().Share(autowire.TypeFor[*RequestLog]())
//
//	r := awchi.NewRouter(root)
//	r.Get("/users/{id}", awchi.Handle((*UserController).GetByID))
package chi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	chiv5 "github.com/go-chi/chi/v5"

	"github.com/wirekit/autowire"
)

// ErrResolverNotInContext indicates a handler ran without ForkMiddleware.
var ErrResolverNotInContext = errors.New("no resolver in request context")

// Config holds the configuration for the fork middleware.
type Config struct {
	// Middlewares run against the fresh fork before the request handler.
	// They can warm request-scoped singletons or validate the request.
	Middlewares []func(*autowire.Resolver, *http.Request) error

	// ErrorHandler is called when a fork middleware fails.
	// If nil, a default handler returning 500 Internal Server Error is used.
	ErrorHandler func(http.ResponseWriter, *http.Request, error)
}

// Option configures the fork middleware.
type Option func(*Config)

// WithMiddleware adds a function that runs against each request's fork.
// Multiple middlewares are executed in the order they are added.
func WithMiddleware(mw func(*autowire.Resolver, *http.Request) error) Option {
	return func(c *Config) {
		c.Middlewares = append(c.Middlewares, mw)
	}
}

// WithErrorHandler sets the error handler for fork middleware failures.
func WithErrorHandler(h func(http.ResponseWriter, *http.Request, error)) Option {
	return func(c *Config) {
		c.ErrorHandler = h
	}
}

func defaultConfig() *Config {
	return &Config{
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			slog.Error("request fork middleware failed", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		},
	}
}

type resolverContextKey struct{}

// ForkMiddleware creates a Chi middleware that forks the base resolver for
// each request. The fork is attached to the request context and can be
// retrieved with FromContext; it shares the base resolver's configuration
// and caches but starts with no live singletons.
func ForkMiddleware(base *autowire.Resolver, opts ...Option) func(http.Handler) http.Handler {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fork := base.Fork()

			for _, mw := range cfg.Middlewares {
				if err := mw(fork, r); err != nil {
					cfg.ErrorHandler(w, r, err)
					return
				}
			}

			ctx := context.WithValue(r.Context(), resolverContextKey{}, fork)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewRouter returns a chi router with ForkMiddleware pre-installed.
func NewRouter(base *autowire.Resolver, opts ...Option) *chiv5.Mux {
	router := chiv5.NewRouter()
	router.Use(ForkMiddleware(base, opts...))
	return router
}

// FromContext returns the request's forked resolver.
func FromContext(ctx context.Context) (*autowire.Resolver, error) {
	fork, ok := ctx.Value(resolverContextKey{}).(*autowire.Resolver)
	if !ok || fork == nil {
		return nil, ErrResolverNotInContext
	}

	return fork, nil
}

// HandlerConfig holds configuration for the Handle wrapper.
type HandlerConfig struct {
	// ResolutionErrorHandler is called when controller resolution fails.
	ResolutionErrorHandler func(http.ResponseWriter, *http.Request, error)
}

// HandlerOption configures the Handle wrapper.
type HandlerOption func(*HandlerConfig)

// WithResolutionErrorHandler sets the error handler for resolution failures.
func WithResolutionErrorHandler(h func(http.ResponseWriter, *http.Request, error)) HandlerOption {
	return func(c *HandlerConfig) {
		c.ResolutionErrorHandler = h
	}
}

func defaultHandlerConfig() *HandlerConfig {
	return &HandlerConfig{
		ResolutionErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			slog.Error("failed to resolve controller", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		},
	}
}

// Handle wraps a controller method for resolution from the request's fork.
// The controller type T is created through the forked resolver, so its
// whole dependency graph is autowired per request.
//
// The method signature should be: func(T, http.ResponseWriter, *http.Request)
func Handle[T any](method func(T, http.ResponseWriter, *http.Request), opts ...HandlerOption) http.HandlerFunc {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		fork, err := FromContext(r.Context())
		if err != nil {
			cfg.ResolutionErrorHandler(w, r, err)
			return
		}

		controller, err := autowire.Create[T](fork)
		if err != nil {
			cfg.ResolutionErrorHandler(w, r, err)
			return
		}

		method(controller, w, r)
	}
}
