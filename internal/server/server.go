package server

import (
	"context"
	"net/http"
	"time"

	"coursepay/internal/adminlog"
	"coursepay/internal/api"
	"coursepay/internal/auth"
	"coursepay/internal/config"
	"coursepay/internal/deposit"
	"coursepay/internal/notify"
	"coursepay/internal/payout"
	"coursepay/internal/purchase"
	"coursepay/internal/user"
	"coursepay/internal/video"
	"coursepay/internal/wallet"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type Handlers struct {
	Deposits    *deposit.Handler
	Purchases   *purchase.Handler
	Payouts     *payout.Handler
	Wallets     *wallet.Handler
	Notify      *notify.Handler
	Videos      *video.Handler
	Users       *user.Handler
	AdminEvents *adminlog.Handler
}

type Server struct {
	router *gin.Engine
	http   *http.Server
}

func New(cfg *config.Config, h Handlers, limiter Limiter) *Server {
	api.UseJSONFieldNames()

	router := gin.New()
	router.Use(
		gin.Recovery(),
		otelgin.Middleware("coursepay"),
		RequestLoggingMiddleware(),
		MetricsMiddleware(),
		corsMiddleware(),
	)

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())
	SetupSwagger(router)

	limited := router.Group("/")
	if limiter != nil {
		limited.Use(RateLimitMiddleware(limiter))
	}
	{
		limited.POST("/deposits/create", h.Deposits.Create)
		limited.GET("/deposits/status/:depositId", h.Deposits.Status)
		limited.POST("/deposits/:depositId/await", h.Deposits.Await)

		limited.POST("/payouts/request", h.Payouts.Request)
		limited.GET("/payouts/history/:teacherId", h.Payouts.History)

		limited.GET("/wallet/:teacherId", h.Wallets.GetWallet)
		limited.GET("/wallet/:teacherId/entries", h.Wallets.ListEntries)

		limited.POST("/send-notification", h.Notify.Send)
		limited.PUT("/users/:userId/device-token", h.Users.RegisterDeviceToken)

		limited.POST("/videos", h.Videos.Create)
		limited.GET("/videos/:videoId/playback", h.Videos.Playback)
	}

	router.POST("/wallet/auto-credit", auth.CronKeyMiddleware(cfg.CronKey), h.Purchases.AutoCredit)

	admin := router.Group("/admin")
	admin.Use(auth.AuthMiddleware(cfg.JWTSecret), auth.RequireRole("admin"))
	{
		admin.GET("/events", h.AdminEvents.List)
	}

	return &Server{
		router: router,
		http: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Cron-Key")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
