// Package web assembles the HTTP API: the gin engine with its middleware
// and routes, the server lifecycle and the maintenance cron.
package web

import (
	"context"
	"crypto/tls"
	"embed"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/yamdb/yamdb/config"
	"github.com/yamdb/yamdb/database"
	"github.com/yamdb/yamdb/logger"
	"github.com/yamdb/yamdb/util/common"
	"github.com/yamdb/yamdb/util/metrics"
	"github.com/yamdb/yamdb/util/random"
	"github.com/yamdb/yamdb/web/access"
	"github.com/yamdb/yamdb/web/cache"
	"github.com/yamdb/yamdb/web/controller"
	"github.com/yamdb/yamdb/web/job"
	"github.com/yamdb/yamdb/web/locale"
	"github.com/yamdb/yamdb/web/middleware"
	"github.com/yamdb/yamdb/web/network"
	"github.com/yamdb/yamdb/web/service"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
)

//go:embed translation/*
var i18nFS embed.FS

// EngineOptions are the collaborators and limits of one engine.
type EngineOptions struct {
	Auth      service.AuthConfig
	Mailer    service.Mailer
	RateLimit int
	PageSize  int
}

// NewEngine builds the API router. The locale bundle, the database and the
// cache must be initialized beforehand.
func NewEngine(opts EngineOptions) *gin.Engine {
	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.AccessLog(),
		middleware.Metrics(),
		gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})),
		locale.LocalizerMiddleware(),
		middleware.ErrorHandler(),
	)

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	authService := service.NewAuthService(opts.Auth, opts.Mailer)
	v1 := engine.Group("/v1", middleware.Authentication(authService), middleware.AuditMiddleware())
	policy := func(path string, p access.Policy) *gin.RouterGroup {
		return v1.Group(path, middleware.RequirePolicy(p))
	}

	limit := middleware.RateLimitMiddleware(middleware.DefaultRateLimitConfig(opts.RateLimit))
	controller.NewAuthController(v1.Group("/auth"), authService, limit)
	controller.NewCategoryController(policy("/categories", access.AdminOrReadOnly), opts.PageSize)
	controller.NewGenreController(policy("/genres", access.AdminOrReadOnly), opts.PageSize)
	controller.NewTitleController(policy("/titles", access.AdminOrReadOnly), opts.PageSize)
	controller.NewReviewController(policy("/titles/:title_id/reviews", access.AuthorOrStaff), opts.PageSize)
	controller.NewCommentController(policy("/titles/:title_id/reviews/:review_id/comments", access.AuthorOrStaff), opts.PageSize)
	controller.NewUserController(policy("/users", access.AdminOnly), policy("/users/me", access.Authenticated), opts.PageSize)
	controller.NewAuditController(policy("/audit", access.AdminOnly), opts.PageSize)

	engine.NoRoute(func(c *gin.Context) {
		_ = c.Error(common.ErrNotFound)
	})
	engine.NoMethod(func(c *gin.Context) {
		_ = c.Error(common.ErrMethodNotAllowed)
	})
	return engine
}

// Server runs the API until stopped.
type Server struct {
	httpServer *http.Server
	listener   net.Listener
	cron       *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc
}

func NewServer() *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{ctx: ctx, cancel: cancel}
}

func (s *Server) engineOptions() (EngineOptions, error) {
	secret := config.GetSecret()
	if secret == "" {
		secret = random.Seq(50)
		logger.Warning("YAMDB_SECRET is not set, using a random secret; tokens and codes will not survive a restart")
	}
	mailer, err := service.NewMailer(config.GetMailConfig())
	if err != nil {
		return EngineOptions{}, err
	}
	return EngineOptions{
		Auth: service.AuthConfig{
			Secret:   secret,
			TokenTTL: config.GetTokenTTL(),
			CodeTTL:  config.GetCodeTTL(),
		},
		Mailer:    mailer,
		RateLimit: config.GetRateLimit(),
		PageSize:  config.GetPageSize(),
	}, nil
}

func (s *Server) initRouter() (*gin.Engine, error) {
	if config.IsDebug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.DefaultWriter = io.Discard
		gin.DefaultErrorWriter = io.Discard
		gin.SetMode(gin.ReleaseMode)
	}
	if err := locale.InitLocalizer(i18nFS); err != nil {
		return nil, err
	}
	opts, err := s.engineOptions()
	if err != nil {
		return nil, err
	}
	return NewEngine(opts), nil
}

func (s *Server) startTask() {
	s.cron.AddJob("@daily", job.NewAuditCleanupJob(config.GetAuditRetentionDays()))
	if database.IsSQLite() {
		s.cron.AddJob("@every 10m", job.NewCheckpointJob())
	}
}

func (s *Server) listen() (net.Listener, error) {
	listenAddr := net.JoinHostPort(config.GetListen(), strconv.Itoa(config.GetPort()))
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return nil, err
	}
	certFile, keyFile := config.GetCertFile(), config.GetKeyFile()
	if certFile == "" && keyFile == "" {
		logger.Info("Web server running HTTP on", listener.Addr())
		return listener, nil
	}
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		logger.Error("Error loading certificates:", err)
		logger.Info("Web server running HTTP on", listener.Addr())
		return listener, nil
	}
	logger.Info("Web server running HTTPS on", listener.Addr())
	return network.NewTLSListener(listener, &tls.Config{Certificates: []tls.Certificate{cert}}), nil
}

func (s *Server) Start() (err error) {
	defer func() {
		if err != nil {
			_ = s.Stop()
		}
	}()

	if err = cache.InitRedis(config.GetRedisAddr()); err != nil {
		return err
	}
	if username, email := config.GetAdminUsername(), config.GetAdminEmail(); username != "" && email != "" {
		if _, err = database.EnsureSuperuser(username, email); err != nil {
			return err
		}
	}

	s.cron = cron.New(cron.WithLocation(time.Local))
	s.cron.Start()

	engine, err := s.initRouter()
	if err != nil {
		return err
	}
	listener, err := s.listen()
	if err != nil {
		return err
	}
	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("web server stopped:", err)
		}
	}()

	s.startTask()
	return nil
}

// Stop shuts down the web server, the cron jobs and the cache client.
func (s *Server) Stop() error {
	s.cancel()
	if s.cron != nil {
		s.cron.Stop()
	}
	var errs []error
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		errs = append(errs, s.httpServer.Shutdown(ctx))
	}
	if s.listener != nil {
		if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, err)
		}
	}
	errs = append(errs, cache.Close())
	return errors.Join(errs...)
}

func (s *Server) GetCtx() context.Context { return s.ctx }

func (s *Server) GetCron() *cron.Cron { return s.cron }
