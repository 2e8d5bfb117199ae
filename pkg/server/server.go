// Package server is the HTTP record backend the payment pipeline persists to.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"krizpay/pkg/record"
	"krizpay/pkg/types"
)

const (
	DefaultListenAddr     = ":5000"
	defaultRequestTimeout = 10 * time.Second
	shutdownTimeout       = 5 * time.Second
)

// Config holds the backend's listen and CORS settings
type Config struct {
	ListenAddr     string
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// Server serves transaction records over HTTP
type Server struct {
	cfg    Config
	repo   record.Repository
	logger *zap.Logger
	router *gin.Engine
	now    func() time.Time
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the server logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New builds the router over repo
func New(cfg Config, repo record.Repository, opts ...Option) (*Server, error) {
	if repo == nil {
		return nil, errors.New("server requires a record repository")
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}

	s := &Server{
		cfg:    cfg,
		repo:   repo,
		logger: zap.NewNop(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.setupRouter()
	return s, nil
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx ends, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("record backend listening", zap.String("addr", s.cfg.ListenAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("server shutdown error", zap.Error(err))
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) setupRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.requestLogger())

	corsConfig := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "X-Requested-With", "Content-Type", "Accept", "Authorization"},
		MaxAge:       12 * time.Hour,
	}
	if len(s.cfg.AllowedOrigins) == 1 && s.cfg.AllowedOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = s.cfg.AllowedOrigins
	}
	router.Use(cors.New(corsConfig))

	api := router.Group("/api")
	api.GET("/health", s.handleHealth)
	api.POST("/transactions", s.handleCreate)
	api.GET("/transactions", s.handleList)
	api.GET("/transactions/:hash", s.handleGet)

	return router
}

// requestLogger logs /api requests with status and latency
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()
		s.logger.Info("request",
			zap.String("method", ctx.Request.Method),
			zap.String("path", ctx.Request.URL.Path),
			zap.Int("status", ctx.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func errorResponse(code string, message string) gin.H {
	return gin.H{
		"code":    code,
		"message": message,
	}
}

func (s *Server) handleHealth(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": s.now().Format(time.RFC3339),
	})
}

func (s *Server) handleCreate(ctx *gin.Context) {
	var rec types.TransactionRecord
	if err := ctx.ShouldBindJSON(&rec); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON transaction record"))
		return
	}
	rec.ID = ""
	if err := rec.Validate(); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_record", err.Error()))
		return
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}

	requestCtx, cancel := context.WithTimeout(ctx.Request.Context(), s.cfg.RequestTimeout)
	defer cancel()

	id, err := s.repo.CreateTransactionRecord(requestCtx, &rec)
	switch {
	case errors.Is(err, record.ErrDuplicate):
		ctx.JSON(http.StatusConflict, errorResponse("duplicate_hash", "a record for this transaction already exists"))
		return
	case err != nil:
		s.logger.Error("create transaction record failed", zap.String("hash", rec.Hash), zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, errorResponse("store_error", "failed to save transaction"))
		return
	}

	rec.ID = id
	ctx.JSON(http.StatusCreated, rec)
}

func (s *Server) handleList(ctx *gin.Context) {
	requestCtx, cancel := context.WithTimeout(ctx.Request.Context(), s.cfg.RequestTimeout)
	defer cancel()

	records, err := s.repo.ListTransactionRecords(requestCtx)
	if err != nil {
		s.logger.Error("list transaction records failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, errorResponse("store_error", "failed to list transactions"))
		return
	}
	if records == nil {
		records = []types.TransactionRecord{}
	}
	ctx.JSON(http.StatusOK, records)
}

func (s *Server) handleGet(ctx *gin.Context) {
	requestCtx, cancel := context.WithTimeout(ctx.Request.Context(), s.cfg.RequestTimeout)
	defer cancel()

	rec, err := s.repo.GetTransactionRecord(requestCtx, ctx.Param("hash"))
	switch {
	case errors.Is(err, record.ErrNotFound):
		ctx.JSON(http.StatusNotFound, errorResponse("not_found", "transaction not found"))
		return
	case err != nil:
		s.logger.Error("get transaction record failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, errorResponse("store_error", "failed to load transaction"))
		return
	}
	ctx.JSON(http.StatusOK, rec)
}
