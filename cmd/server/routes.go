package main

import (
	"context"
	"time"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/drymix/erp/internal/infrastructure/auth"
	"github.com/drymix/erp/internal/infrastructure/cache"
	"github.com/drymix/erp/internal/infrastructure/config"
	"github.com/drymix/erp/internal/infrastructure/logger"
	"github.com/drymix/erp/internal/infrastructure/persistence"
	"github.com/drymix/erp/internal/infrastructure/telemetry"
	"github.com/drymix/erp/internal/interfaces/http/handler"
	"github.com/drymix/erp/internal/interfaces/http/middleware"
	"github.com/drymix/erp/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const idempotencyTTL = 24 * time.Hour

func newEngine(cfg *config.Config, a *app, db *persistence.Database, rdb *redis.Client, metrics *telemetry.Metrics, log *zap.Logger) *gin.Engine {
	production := cfg.App.Env == "production"
	if production {
		gin.SetMode(gin.ReleaseMode)
	}
	handler.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Warn("Invalid trusted proxies, trusting none", zap.Error(err))
		_ = engine.SetTrustedProxies(nil)
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.Tracing(cfg.Telemetry.ServiceName, cfg.Telemetry.Enabled),
		middleware.TraceAttributes(),
		middleware.Metrics(metrics),
		middleware.Secure(production),
		middleware.CORS(cors),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize, cfg.HTTP.MaxUploadSize),
	)
	if cfg.HTTP.RateLimitEnabled {
		var limiter middleware.Limiter = middleware.NewMemoryLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		if rdb != nil {
			limiter = cache.NewRedisLimiter(rdb, cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		}
		engine.Use(middleware.RateLimit(limiter))
	}
	var idem shared.IdempotencyStore = cache.NewMemoryIdempotencyStore()
	if rdb != nil {
		idem = cache.NewRedisIdempotencyStore(rdb)
	}
	engine.Use(middleware.Idempotency(idem, idempotencyTTL))

	engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	probes := []handler.Probe{{Name: "database", Check: db.Ping}}
	if rdb != nil {
		probes = append(probes, handler.Probe{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}
	system := handler.NewSystemHandler(cfg.App.Name, version, probes...)

	org := handler.NewOrganizationHandler(a.org)
	plant := handler.NewPlantHandler(a.plant)

	var authn []gin.HandlerFunc
	if cfg.JWT.Enabled {
		authn = append(authn, middleware.JWTAuth(auth.NewJWTService(cfg.JWT)))
	} else {
		log.Warn("JWT authentication disabled, tenants are selected by header")
	}

	r := router.NewRouter(engine)
	r.Group("public").Register(router.RegistrarFunc(func(rg *gin.RouterGroup) {
		system.Register(engine, rg)
	}))
	r.Group("device").Register(router.RegistrarFunc(plant.RegisterIngest))
	r.Group("admin", authn...).Register(router.RegistrarFunc(org.RegisterAdmin))
	r.Group("tenant", append(authn, middleware.Tenant(a.org))...).Register(
		org,
		handler.NewCatalogHandler(a.catalog),
		handler.NewPartnerHandler(a.partner),
		handler.NewInventoryHandler(a.inventory),
		handler.NewTradeHandler(a.trade, a.printing),
		handler.NewProductionHandler(a.production),
		handler.NewQualityHandler(a.quality),
		handler.NewFinanceHandler(a.finance),
		handler.NewCreditHandler(a.credit, a.printing),
		handler.NewHRHandler(a.hr, a.printing),
		handler.NewConstructionHandler(a.construction),
		handler.NewDocumentHandler(a.document),
		plant,
		handler.NewPrintHandler(a.printing),
	)
	r.Setup()
	return engine
}
