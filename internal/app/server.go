// internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"onecoupon-console/internal/client/couponapi"
	"onecoupon-console/internal/config"
	"onecoupon-console/internal/db"
	couponHandler "onecoupon-console/internal/handlers/coupon"
	extensionHandler "onecoupon-console/internal/handlers/extension"
	"onecoupon-console/internal/handlers/shell"
	"onecoupon-console/internal/middleware"
	"onecoupon-console/internal/pkg/jwt"
	"onecoupon-console/internal/pkg/metrics"
	"onecoupon-console/internal/pkg/session"
	"onecoupon-console/internal/pkg/tracing"
	couponUsecase "onecoupon-console/internal/service/coupon"
	taskUsecase "onecoupon-console/internal/service/task"
	"onecoupon-console/internal/web"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// shutdownTimeout is the budget for draining in-flight requests.
const shutdownTimeout = 5 * time.Second

type Server struct {
	cfg    config.AppConfig
	logger *zap.Logger
}

func NewServer(cfg config.AppConfig, logger *zap.Logger) *Server {
	return &Server{cfg: cfg, logger: logger}
}

// Run serves the console until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	// ----- Redis -----
	redisClient, err := db.NewRedisClient(ctx, db.RedisConfig{
		Address:  s.cfg.RedisAddr,
		Password: s.cfg.RedisPass,
		DB:       s.cfg.RedisDB,
		PoolSize: s.cfg.RedisPoolSize,
	})
	if err != nil {
		return err
	}
	s.logger.Info("connected to redis", zap.String("addr", s.cfg.RedisAddr))

	// ----- Tracing -----
	tp, err := tracing.NewProvider(ctx, s.cfg.Tracing())
	if err != nil {
		redisClient.Close()
		return err
	}
	if s.cfg.OTLPEndpoint != "" {
		s.logger.Info("exporting traces", zap.String("endpoint", s.cfg.OTLPEndpoint))
	}

	engine, err := NewEngine(s.cfg, s.logger, redisClient, tp)
	if err != nil {
		redisClient.Close()
		_ = tp.Shutdown(context.Background())
		return err
	}

	httpServer := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("console listening", zap.String("addr", s.cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down console")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		shutdownErr := httpServer.Shutdown(shutdownCtx)
		if err := redisClient.Close(); err != nil {
			s.logger.Warn("failed to close redis", zap.Error(err))
		}
		if err := tp.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("failed to flush traces", zap.Error(err))
		}
		return shutdownErr
	})
	return g.Wait()
}

// NewEngine wires every console dependency onto a gin engine. Request and
// backend call spans are recorded on tp.
func NewEngine(cfg config.AppConfig, logger *zap.Logger, redisClient *redis.Client, tp trace.TracerProvider) (*gin.Engine, error) {
	tracing.SetPropagator()

	// ----- Metrics -----
	m := metrics.New()

	// ----- Session token -----
	jwtManager, err := jwt.LoadAndBuild(cfg.JWT())
	if err != nil {
		return nil, fmt.Errorf("failed to build session token manager: %w", err)
	}
	sessionManager := session.NewManager(redisClient, cfg.SessionTTL)

	// ----- Backend client -----
	opts := []couponapi.Option{
		couponapi.WithMetrics(m),
		couponapi.WithLogger(logger),
		couponapi.WithLocation(cfg.Location()),
		couponapi.WithTracerProvider(tp),
	}
	if cfg.BackendTimeout > 0 {
		opts = append(opts, couponapi.WithTimeout(cfg.BackendTimeout))
	}
	client, err := couponapi.NewClient(cfg.BackendBaseURL, opts...)
	if err != nil {
		return nil, err
	}

	// ----- Services (Usecases) -----
	couponService := couponUsecase.NewCouponService(client, cfg.Location(), logger)
	taskService := taskUsecase.NewTaskService(client, cfg.Location(), cfg.UploadMaxBytes, logger)

	// ----- Middlewares -----
	sessionMiddleware := middleware.NewSessionMiddleware(
		sessionManager,
		jwtManager,
		middleware.CookieConfig{Name: cfg.SessionCookie, Secure: cfg.SessionSecure},
		cfg.Operator(),
		logger,
	)

	// ----- Handlers -----
	consoleShell := shell.NewShell(sessionManager, sessionMiddleware, logger)
	handlers := &Handlers{
		Shell:             consoleShell,
		CouponHandler:     couponHandler.NewCouponHandler(couponService, taskService, consoleShell, sessionManager, cfg.Location(), logger),
		ExtensionHandler:  extensionHandler.NewExtensionHandler(taskService, consoleShell),
		SessionMiddleware: sessionMiddleware,
		Metrics:           m,
	}

	// ----- Engine -----
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	renderer, err := web.NewRenderer()
	if err != nil {
		return nil, err
	}
	engine := gin.New()
	engine.HTMLRender = renderer
	engine.MaxMultipartMemory = cfg.UploadMaxBytes
	engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.TracingMiddleware(tp),
		middleware.LoggingMiddleware(logger),
		m.Middleware(),
		middleware.CORSMiddleware(cfg.CORSAllowOrigins),
	)

	SetupRouter(engine, handlers)
	return engine, nil
}
