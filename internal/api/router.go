package api

import (
	"github.com/gin-gonic/gin"

	"github.com/mythrivebuddy/thrive_server/config"
	"github.com/mythrivebuddy/thrive_server/internal/api/handler"
	"github.com/mythrivebuddy/thrive_server/internal/api/middleware"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/logger"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/metrics"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/response"
)

// Handlers 路由依赖的全部 handler
type Handlers struct {
	Auth         *handler.AuthHandler
	User         *handler.UserHandler
	Ledger       *handler.LedgerHandler
	Application  *handler.ApplicationHandler
	Subscription *handler.SubscriptionHandler
	Group        *handler.GroupHandler
	Comment      *handler.CommentHandler
	Challenge    *handler.ChallengeHandler
	Notification *handler.NotificationHandler
	Cron         *handler.CronHandler
	WebSocket    *handler.WebSocketHandler
}

type Router struct {
	h     Handlers
	users middleware.UserLoader
	cfg   *config.Config
}

func NewRouter(h Handlers, users middleware.UserLoader, cfg *config.Config) *Router {
	return &Router{
		h:     h,
		users: users,
		cfg:   cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger.Component("http")))
	engine.Use(middleware.Metrics())
	engine.Use(middleware.CORS(r.cfg.CORS))

	engine.GET("/health", func(c *gin.Context) { response.Success(c, gin.H{"status": "ok"}) })
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	secret, cookie := r.cfg.JWT.Secret, r.cfg.Session.CookieName
	limited := middleware.RateLimit(middleware.NewIPRateLimiter(r.cfg.RateLimit))
	requireAuth := middleware.Auth(secret, cookie)

	api := engine.Group("/api/v1")
	{
		// WebSocket
		api.GET("/ws", r.h.WebSocket.Handle)

		// 公开接口 - 认证
		auth := api.Group("/auth")
		auth.Use(limited)
		{
			auth.POST("/register", r.h.Auth.Register)
			auth.POST("/login", r.h.Auth.Login)
			auth.POST("/logout", r.h.Auth.Logout)
			auth.POST("/verify-email", r.h.Auth.VerifyEmail)
			auth.GET("/github", r.h.Auth.GithubAuth)
			auth.GET("/github/callback", r.h.Auth.GithubCallback)
		}

		// 公开接口
		api.GET("/activities", r.h.Ledger.Activities)
		api.GET("/spotlight/active", r.h.Application.ActiveSpotlights)
		api.GET("/subscription/plans", r.h.Subscription.Plans)
		api.GET("/challenges", r.h.Challenge.List)
		api.GET("/challenges/:id", middleware.OptionalAuth(secret, cookie), r.h.Challenge.Get)

		// 支付网关回调（签名校验在 service 内完成）
		api.POST("/webhooks/payment", limited, r.h.Subscription.Webhook)

		// 外部调度器
		api.POST("/cron/:job", middleware.CronAuth(r.cfg.Cron.Secret), r.h.Cron.Run)

		// 需要认证的接口
		authenticated := api.Group("")
		authenticated.Use(requireAuth)
		{
			// 用户
			user := authenticated.Group("/user")
			{
				user.GET("/profile", r.h.User.GetProfile)
				user.PUT("/profile", r.h.User.UpdateProfile)
				user.POST("/avatar", r.h.User.UploadAvatar)
				user.GET("/jp", r.h.Ledger.Summary)
				user.GET("/transactions", r.h.Ledger.Transactions)
			}

			// JoyPearls
			authenticated.POST("/jp/deduct", r.h.Ledger.Deduct)
			authenticated.POST("/jp/daily-reward", r.h.Ledger.DailyReward)

			// Spotlight / Prosperity Drop
			authenticated.POST("/spotlight", r.h.Application.ApplySpotlight)
			authenticated.GET("/spotlight/mine", r.h.Application.MySpotlights)
			authenticated.POST("/prosperity", r.h.Application.ApplyProsperity)
			authenticated.GET("/prosperity/mine", r.h.Application.MyProsperity)

			// 订阅与购买
			authenticated.GET("/subscription", r.h.Subscription.Current)
			authenticated.POST("/subscription", r.h.Subscription.Checkout)
			authenticated.POST("/subscription/cancel", r.h.Subscription.Cancel)
			authenticated.POST("/purchases", r.h.Subscription.Purchase)
			authenticated.GET("/purchases", r.h.Subscription.Purchases)

			// 互助小组
			groups := authenticated.Group("/groups")
			{
				groups.POST("", r.h.Group.Create)
				groups.GET("", r.h.Group.ListMine)
				groups.GET("/:id", r.h.Group.Detail)
				groups.POST("/:id/members", r.h.Group.AddMember)
				groups.DELETE("/:id/members/:userId", r.h.Group.RemoveMember)
				groups.PUT("/:id/notes", r.h.Group.UpdateNotes)
				groups.PUT("/:id/goal", r.h.Group.UpsertGoal)
				groups.GET("/:id/goals", r.h.Group.ListGoals)
				groups.POST("/:id/cycle/repeat", r.h.Group.RepeatCycle)
			}
			authenticated.PUT("/goals/:id/status", r.h.Group.UpdateGoalStatus)
			authenticated.GET("/goals/:id/comments", r.h.Comment.List)
			authenticated.POST("/goals/:id/comments", r.h.Comment.Create)
			authenticated.DELETE("/comments/:id", r.h.Comment.Delete)

			// 挑战
			authenticated.POST("/challenges", r.h.Challenge.Create)
			authenticated.POST("/challenges/:id/enroll", r.h.Challenge.Enroll)
			authenticated.GET("/challenges/:id/enrollments", r.h.Challenge.Enrollments)
			authenticated.POST("/challenges/:id/participants/:userId/complete", r.h.Challenge.Complete)

			// 通知
			authenticated.GET("/notifications", r.h.Notification.List)
			authenticated.PUT("/notifications/read-all", r.h.Notification.MarkAllRead)
			authenticated.PUT("/notifications/:id/read", r.h.Notification.MarkRead)
		}

		// 管理后台
		admin := api.Group("/admin")
		admin.Use(requireAuth, middleware.AdminOnly(r.users))
		{
			admin.POST("/jp/assign", r.h.Ledger.AdminAssign)
			admin.POST("/jp/deduct", r.h.Ledger.AdminDeduct)
			admin.PUT("/activities/:kind", r.h.Ledger.UpdateActivity)
			admin.GET("/spotlight", r.h.Application.AdminListSpotlights)
			admin.PUT("/spotlight/:id/status", r.h.Application.ChangeSpotlightStatus)
			admin.GET("/prosperity", r.h.Application.AdminListProsperity)
			admin.PUT("/prosperity/:id/status", r.h.Application.ChangeProsperityStatus)
		}
	}

	return engine
}
