package handler

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bramblemart/pkg/logger"
	"bramblemart/pkg/metrics"
)

// RouterConfig собирает зависимости HTTP слоя
type RouterConfig struct {
	AuthHandler    *AuthHandler
	UserHandler    *UserHandler
	CatalogHandler *CatalogHandler
	CartHandler    *CartHandler
	ReviewHandler  *ReviewHandler
	OrderHandler   *OrderHandler
	AuthMiddleware *AuthMiddleware
	AuthRateLimit  int64
}

// SetupRoutes настраивает маршруты и middleware HTTP сервера
func SetupRoutes(cfg RouterConfig) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())

	router.Use(logger.GinLoggerMiddleware())

	router.Use(metrics.GinPrometheusMiddleware("bramblemart"))

	// CORS настройки
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"https://*", "http://*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposeHeaders:    []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "bramblemart",
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")

	// Аутентификация с ограничением частоты против перебора
	auth := api.Group("/auth")
	auth.Use(RateLimitMiddleware(cfg.AuthRateLimit))
	{
		auth.POST("/register", cfg.AuthHandler.Register)
		auth.POST("/login", cfg.AuthHandler.Login)
		auth.POST("/refresh", cfg.AuthHandler.Refresh)
		auth.POST("/logout", cfg.AuthHandler.Logout)
		auth.POST("/logout-all", cfg.AuthMiddleware.Authenticate(), cfg.AuthHandler.LogoutAll)
	}

	// Публичный каталог
	api.GET("/categories", cfg.CatalogHandler.GetCategories)
	api.GET("/products", cfg.CatalogHandler.ListProducts)
	api.GET("/products/:product_id", cfg.CatalogHandler.GetProduct)
	api.GET("/ratings/distribution", cfg.ReviewHandler.GetRatingDistribution)
	api.GET("/comments", cfg.ReviewHandler.GetComments)

	// Административный каталог
	admin := api.Group("")
	admin.Use(cfg.AuthMiddleware.Authenticate(), cfg.AuthMiddleware.RequireAdmin())
	{
		admin.POST("/categories", cfg.CatalogHandler.CreateCategory)
		admin.PATCH("/categories/:category_id", cfg.CatalogHandler.UpdateCategory)
		admin.DELETE("/categories/:category_id", cfg.CatalogHandler.DeleteCategory)
		admin.POST("/products", cfg.CatalogHandler.CreateProduct)
		admin.PATCH("/products/:product_id", cfg.CatalogHandler.UpdateProduct)
		admin.DELETE("/products/:product_id", cfg.CatalogHandler.DeactivateProduct)
		admin.PATCH("/orders/:order_id/status", cfg.OrderHandler.UpdateStatus)
	}

	// Личный кабинет
	profile := api.Group("/user")
	profile.Use(cfg.AuthMiddleware.Authenticate())
	{
		profile.GET("/profile", cfg.UserHandler.GetProfile)
		profile.PUT("/profile", cfg.UserHandler.UpdateProfile)
	}

	// Корзина
	cart := api.Group("/cart")
	cart.Use(cfg.AuthMiddleware.Authenticate())
	{
		cart.GET("", cfg.CartHandler.GetCart)
		cart.POST("", cfg.CartHandler.AddItem)
		cart.PUT("", cfg.CartHandler.SetItemQuantity)
		cart.DELETE("", cfg.CartHandler.RemoveItem)
	}

	// Оценки и комментарии
	ratings := api.Group("/ratings")
	ratings.Use(cfg.AuthMiddleware.Authenticate())
	{
		ratings.POST("", cfg.ReviewHandler.RateProduct)
		ratings.DELETE("", cfg.ReviewHandler.DeleteRating)
	}

	comments := api.Group("/comments")
	comments.Use(cfg.AuthMiddleware.Authenticate())
	{
		comments.POST("", cfg.ReviewHandler.CreateComment)
		comments.PUT("", cfg.ReviewHandler.UpdateComment)
		comments.DELETE("", cfg.ReviewHandler.DeleteComment)
		comments.POST("/:comment_id/like", cfg.ReviewHandler.ToggleLike)
		comments.POST("/:comment_id/dislike", cfg.ReviewHandler.ToggleDislike)
	}

	// Заказы
	orders := api.Group("/orders")
	orders.Use(cfg.AuthMiddleware.Authenticate())
	{
		orders.POST("", cfg.OrderHandler.Checkout)
		orders.GET("", cfg.OrderHandler.GetMyOrders)
		orders.GET("/:order_id", cfg.OrderHandler.GetOrder)
		orders.POST("/:order_id/cancel", cfg.OrderHandler.CancelOrder)
	}

	return router
}
