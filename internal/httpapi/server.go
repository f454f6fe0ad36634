// =============================
// File: internal/httpapi/server.go
// =============================
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/candy-minter/internal/candymachine"
	"github.com/rovshanmuradov/candy-minter/internal/metrics"
	"github.com/rovshanmuradov/candy-minter/internal/mint"
	"github.com/rovshanmuradov/candy-minter/internal/wallet"
)

const APIVersion = "v1"

// MintService – часть фасада минта, доступная через HTTP.
type MintService interface {
	Initialize(ctx context.Context) error
	Info() (mint.Info, bool)
	Quote(n int) (mint.Quote, error)
	Balance(ctx context.Context) (uint64, error)
	PaymentTokenBalance(ctx context.Context) (candymachine.TokenBalance, error)
	Mint(ctx context.Context, n int) (mint.BatchResult, error)
	MintSingle(ctx context.Context) (mint.AttemptResult, error)
	Session() wallet.Session
}

// Options настраивает HTTP сервер.
type Options struct {
	Addr         string
	MaxBatchSize int
	// AllowOrigins пуст – разрешены все источники.
	AllowOrigins []string
	Gatherer     prometheus.Gatherer
	Metrics      *metrics.HTTPMetrics
}

// Server – HTTP API минтера для браузерного фронтенда.
type Server struct {
	service MintService
	opts    Options
	engine  *gin.Engine
	server  *http.Server
	logger  *zap.Logger
}

// NewServer собирает роутер; сеть не открывается до Start.
func NewServer(service MintService, opts Options, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		service: service,
		opts:    opts,
		logger:  logger.Named("http"),
	}

	r := gin.New()
	r.Use(gin.Recovery())

	corsConf := cors.DefaultConfig()
	if len(opts.AllowOrigins) == 0 {
		corsConf.AllowAllOrigins = true
	} else {
		corsConf.AllowOrigins = opts.AllowOrigins
	}
	r.Use(cors.New(corsConf))
	r.Use(s.requestLogger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))

	api := r.Group("/api/" + APIVersion)
	api.GET("/info", s.getInfo)
	api.POST("/refresh", s.refresh)
	api.GET("/balance", s.getBalance)
	api.GET("/quote", s.getQuote)
	api.POST("/mint", s.postMint)

	s.engine = r
	return s
}

// Handler возвращает http.Handler роутера.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start блокирует до остановки сервера.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("HTTP server started", zap.String("addr", s.opts.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error("Failed to stop HTTP server", zap.Error(err))
		return err
	}
	s.logger.Info("HTTP server stopped gracefully")
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()
		if s.opts.Metrics != nil {
			s.opts.Metrics.Observe(c.Request.Method, path, strconv.Itoa(status), duration)
		}
		s.logger.Debug("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("duration", duration))
	}
}
