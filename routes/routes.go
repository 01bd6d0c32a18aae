package routes

import (
	"net/http"

	"messmate/controllers"
	"messmate/filestore"
	"messmate/metrics"
	"messmate/middleware"
	"messmate/models"
	"messmate/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Options struct {
	Services    *services.Registry
	Files       filestore.Store
	Limiter     *middleware.RateLimiter
	CORSOrigins []string
	// UploadDir is served under /uploads when uploads are stored locally.
	UploadDir string
	// MaxUploadBytes caps the size of a multipart request body.
	MaxUploadBytes int64
	DevMode        bool
	Log            *logrus.Logger
}

// NewEngine builds the gin engine with the global middleware chain and every
// route registered.
func NewEngine(opts Options) *gin.Engine {
	r := gin.New()
	r.SetTrustedProxies(nil)
	if opts.MaxUploadBytes > 0 {
		r.MaxMultipartMemory = opts.MaxUploadBytes
	}

	r.Use(
		middleware.Recovery(opts.Log, opts.DevMode),
		middleware.RequestLogger(opts.Log),
		middleware.CORS(opts.CORSOrigins),
		middleware.BodyLimit(opts.MaxUploadBytes),
		metrics.Middleware(),
	)

	RegisterRoutes(r, opts)
	return r
}

func RegisterRoutes(r *gin.Engine, opts Options) {
	svc := opts.Services

	authCtl := controllers.NewAuthController(svc.Auth)
	messCtl := controllers.NewMessController(svc.Catalog, opts.Files)
	requestCtl := controllers.NewMessRequestController(svc.Requests, opts.Files)
	orderCtl := controllers.NewOrderController(svc.Orders)
	reviewCtl := controllers.NewReviewController(svc.Reviews)
	recommendCtl := controllers.NewRecommendationController(svc.Recommendations)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	if opts.UploadDir != "" {
		r.Static("/uploads", opts.UploadDir)
	}

	requireAuth := middleware.AuthMiddleware(svc.Auth)

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		if opts.Limiter != nil {
			auth.Use(opts.Limiter.Handler())
		}
		{
			auth.POST("/register", authCtl.Register)
			auth.POST("/login", authCtl.Login)
			auth.GET("/verify", requireAuth, authCtl.Verify)
			auth.POST("/logout", requireAuth, authCtl.Logout)
		}

		messes := api.Group("/messes")
		{
			messes.GET("", messCtl.ListMesses)
			messes.GET("/id/:mess_id", messCtl.GetMess)

			owned := messes.Group("")
			owned.Use(requireAuth)
			{
				owned.GET("/mine", middleware.RequireRole(models.RoleOwner, models.RoleAdmin), messCtl.ListMine)
				owned.POST("", messCtl.CreateMess)
				owned.PUT("/id/:mess_id", messCtl.UpdateMess)
				owned.DELETE("/id/:mess_id", messCtl.DeleteMess)
				owned.POST("/id/:mess_id/menu", messCtl.AddMenuItem)
				owned.PUT("/id/:mess_id/menu", messCtl.ReplaceMenu)
				owned.DELETE("/id/:mess_id/menu/:index", messCtl.DeleteMenuItem)
			}
		}

		requests := api.Group("/mess-requests")
		requests.Use(requireAuth)
		{
			requests.POST("", requestCtl.Submit)
			requests.GET("/mine", requestCtl.ListMine)

			admin := requests.Group("")
			admin.Use(middleware.AdminMiddleware())
			{
				admin.GET("", requestCtl.List)
				admin.PUT("/:id/approve", requestCtl.Approve)
				admin.PUT("/:id/reject", requestCtl.Reject)
			}
		}

		orders := api.Group("/orders")
		orders.Use(requireAuth)
		{
			orders.POST("", orderCtl.PlaceOrder)
			orders.GET("/my-orders", orderCtl.MyOrders)
		}

		api.POST("/reviews", requireAuth, reviewCtl.Submit)
		api.GET("/reviews/:messId", reviewCtl.List)

		api.GET("/recommendations/:userId", recommendCtl.Recommend)
	}
}
