package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/eventflow/eventflow/pkg/application"
	"github.com/eventflow/eventflow/pkg/configuration"
	"github.com/eventflow/eventflow/pkg/httpapi"
	"github.com/eventflow/eventflow/pkg/metrics"
	"github.com/eventflow/eventflow/pkg/middleware"
	"github.com/eventflow/eventflow/pkg/server"
)

type DefaultOptions struct {
	Logger        *logrus.Logger
	Configuration *configuration.Configuration
	Application   application.Application
	Pool          *pgxpool.Pool
}

// Default builds the HTTP server. The request logger and metrics run
// first so module middleware and 404s are covered too.
func Default(options *DefaultOptions) (*server.HTTPServer, error) {
	app := options.Application
	conf := options.Configuration

	middlewares := []mux.MiddlewareFunc{
		middleware.WithLogger(options.Logger, middleware.DefaultLoggerOptions()),
		metrics.Instrument(),
		middleware.TracedMiddleware("database"),
	}
	if options.Pool != nil {
		middlewares = append(middlewares, middleware.WithPool(options.Pool))
	}
	// Module middleware (session, user) was registered by modules.Load; it
	// has to run after the pool and logger are in the context.
	app.PrependMiddleware(middlewares...)

	if conf.Prometheus.Enabled {
		app.RegisterControllers(metrics.NewPrometheusController(conf.Prometheus.Path))
	}

	return server.NewHTTPServer(app, http.HandlerFunc(notFound), http.HandlerFunc(methodNotAllowed)), nil
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	httpapi.NotFound(w, "route not found")
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	_ = httpapi.WriteError(w, http.StatusMethodNotAllowed, httpapi.CodeNotAllowed, "method not allowed", nil)
}
