package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	atlasdomain "github.com/smallbiznis/creditgate/internal/atlas/domain"
	"github.com/smallbiznis/creditgate/internal/atlas/proxy"
	authdomain "github.com/smallbiznis/creditgate/internal/auth/domain"
	"github.com/smallbiznis/creditgate/internal/auth/session"
	"github.com/smallbiznis/creditgate/internal/config"
	entitlementdomain "github.com/smallbiznis/creditgate/internal/entitlement/domain"
	"github.com/smallbiznis/creditgate/internal/observability"
	obsmiddleware "github.com/smallbiznis/creditgate/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/creditgate/internal/observability/metrics"
	obstracing "github.com/smallbiznis/creditgate/internal/observability/tracing"
	"github.com/smallbiznis/creditgate/internal/ratelimit"
	usagedomain "github.com/smallbiznis/creditgate/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Provide(NewServer),
	fx.Invoke(RunHTTP),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func RunHTTP(lc fx.Lifecycle, cfg config.Config, s *Server, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine         *gin.Engine
	cfg            config.Config
	log            *zap.Logger
	authsvc        authdomain.Service
	sessions       *session.Manager
	atlas          atlasdomain.Client
	atlasProxy     *proxy.Proxy
	entitlementSvc entitlementdomain.Service
	usagesvc       usagedomain.Service
	obsMetrics     *obsmetrics.Metrics
	featureLimiter *ratelimit.FeatureLimiter
}

type ServerParams struct {
	fx.In

	Gin            *gin.Engine
	Cfg            config.Config
	Log            *zap.Logger
	Authsvc        authdomain.Service
	Sessions       *session.Manager
	Atlas          atlasdomain.Client
	AtlasProxy     *proxy.Proxy `optional:"true"`
	EntitlementSvc entitlementdomain.Service
	Usagesvc       usagedomain.Service
	ObsMetrics     *obsmetrics.Metrics       `optional:"true"`
	FeatureLimiter *ratelimit.FeatureLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:         p.Gin,
		cfg:            p.Cfg,
		log:            p.Log.Named("http.server"),
		authsvc:        p.Authsvc,
		sessions:       p.Sessions,
		atlas:          p.Atlas,
		atlasProxy:     p.AtlasProxy,
		entitlementSvc: p.EntitlementSvc,
		usagesvc:       p.Usagesvc,
		obsMetrics:     p.ObsMetrics,
		featureLimiter: p.FeatureLimiter,
	}

	svc.registerAuthRoutes()
	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/login", s.Login)
	auth.POST("/logout", s.Logout)
	auth.GET("/me", s.Me)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(s.UserRequired())

	// -------- Vendor pass-through --------
	api.Any("/atlas-api/*slug", s.ProxyAtlas)

	// -------- Gated features --------
	api.POST("/ai-insights", s.gatedRoute(aiInsightsFeature)...)
	api.POST("/lead-gen-agent", s.gatedRoute(leadGenAgentFeature)...)

	// -------- Credits --------
	api.GET("/features/:slug/credit", s.GetFeatureCredit)

	// -------- Dice --------
	api.GET("/dice-rolls", s.GetDiceUsage)
	api.POST("/dice-rolls", withFeature(usagedomain.DiceFeatureID), s.FeatureRateLimit(), s.RollDice)
	api.DELETE("/dice-rolls", s.ClearDiceRolls)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
