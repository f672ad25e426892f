package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/slok/go-http-metrics/metrics/prometheus"
	"github.com/slok/go-http-metrics/middleware"
	"github.com/slok/go-http-metrics/middleware/std"

	"github.com/HilaMasturov/banking-system-home-assignment-sub000/internal/core/gateway"
	"github.com/HilaMasturov/banking-system-home-assignment-sub000/internal/core/handler"
	"github.com/HilaMasturov/banking-system-home-assignment-sub000/internal/core/logger"
	middlWre "github.com/HilaMasturov/banking-system-home-assignment-sub000/internal/core/middleware"
	"github.com/HilaMasturov/banking-system-home-assignment-sub000/internal/core/repository/postgres"
	"github.com/HilaMasturov/banking-system-home-assignment-sub000/internal/core/usecase"
	"github.com/HilaMasturov/banking-system-home-assignment-sub000/pkg/config"
	"github.com/HilaMasturov/banking-system-home-assignment-sub000/pkg/postgresdb"
)

type Server struct {
	router             *mux.Router
	log                logger.Logger
	httpServer         *http.Server
	transactionHandler *handler.TransactionHandler
	db                 *postgresdb.Database
	HTTPPort           string
}

func NewServer(log logger.Logger) (*Server, error) {
	cfgDB, err := config.LoadConfigDB()
	if err != nil {
		return nil, err
	}

	cfgApp, err := config.LoadConfigApp()
	if err != nil {
		return nil, err
	}

	db, err := postgresdb.NewPostgresDB(*cfgDB, log)
	if err != nil {
		return nil, err
	}

	transactionRepository := postgres.NewPostgresTransactionRepo(db.DB, log)
	accountGateway := gateway.NewHTTPAccountGateway(cfgApp.AccountServiceURL, cfgApp.AccountServiceTimeout, log)
	transactionUsecase := usecase.NewTransactionUsecase(transactionRepository, accountGateway, log)
	transactionHandler := handler.NewTransactionHandler(transactionUsecase, log)

	server := &Server{
		log:                log,
		router:             mux.NewRouter(),
		transactionHandler: transactionHandler,
		db:                 db,
		HTTPPort:           cfgApp.HTTPPort,
	}

	server.router.Use(loggingMiddleware(server.log))

	mw := middleware.New(middleware.Config{
		Recorder: prometheus.NewRecorder(prometheus.Config{}),
	})

	server.router.Use(func(next http.Handler) http.Handler {
		return std.Handler("", mw, next)
	})

	server.RegisterRoutes()

	return server, nil
}

func (s *Server) RegisterRoutes() {
	s.router.Use(
		middlWre.WithErrorHandler(s.log),
		middlWre.Recovery(s.log),
	)
	s.transactionHandler.RegisterRoutes(s.router)
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	s.router.PathPrefix("/debug/pprof/").Handler(http.DefaultServeMux)
}

func (s *Server) Run(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       9 * time.Second,
		WriteTimeout:      12 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 60 * time.Second,
	}

	s.httpServer = srv

	return srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	var shutdownErr error

	go func() {
		if s.httpServer != nil {
			err := s.httpServer.Shutdown(ctx)
			if err != nil {
				s.log.Error("failed to shutdown HTTP server", logger.ErrorField("error", err))
				shutdownErr = fmt.Errorf("HTTP server shutdown error: %w", err)
			}
		}

		if s.db != nil {
			err := s.db.Close()
			if err != nil {
				s.log.Error("failed to close database connection", logger.ErrorField("error", err))
				shutdownErr = fmt.Errorf("database shutdown error: %w", err)
			}
		}

		close(done)
	}()

	select {
	case <-done:
		return shutdownErr
	case <-ctx.Done():
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (s *Server) RunTLS(addr, certFile, keyFile string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       9 * time.Second,
		WriteTimeout:      9 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 6 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
	}

	s.httpServer = srv
	return srv.ListenAndServeTLS(certFile, keyFile)
}

func loggingMiddleware(log logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Info("HTTP request",
				logger.StringField("method", r.Method),
				logger.StringField("path", r.URL.Path),
				logger.StringField("remote_addr", r.RemoteAddr),
				logger.StringField("user_agent", r.UserAgent()),
			)
			next.ServeHTTP(w, r)
		})
	}
}
