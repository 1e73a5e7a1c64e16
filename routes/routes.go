package routes

import (
	"net/http"

	"dz-fellah/controllers"
	"dz-fellah/middleware"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type Controllers struct {
	Cart          *controllers.CartController
	Order         *controllers.OrderController
	ProducerOrder *controllers.ProducerOrderController
	Cron          *controllers.CronController
}

type Options struct {
	JWTSecret      string
	CronSecretHash string
	// Health reports dependency status; nil means always healthy.
	Health func() error
}

func SetupRoutes(router *gin.Engine, ctrl Controllers, opts Options) {
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", func(c *gin.Context) {
		if opts.Health != nil {
			if err := opts.Health(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST("/cron/anti-gaspi", middleware.CronSecret(opts.CronSecretHash), ctrl.Cron.AntiGaspi)

	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware(opts.JWTSecret))
	{
		api.GET("/cart", ctrl.Cart.GetCart)
		api.DELETE("/cart", ctrl.Cart.Clear)
		api.POST("/cart/items", ctrl.Cart.AddItem)
		api.PATCH("/cart/items/:id", ctrl.Cart.UpdateItem)
		api.DELETE("/cart/items/:id", ctrl.Cart.RemoveItem)

		api.POST("/orders", ctrl.Order.CreateOrder)
		api.GET("/orders", ctrl.Order.ListOrders)
		api.GET("/orders/:id", ctrl.Order.GetOrder)
		api.POST("/orders/:id/cancel", ctrl.Order.CancelOrder)
	}

	producer := api.Group("/producer")
	producer.Use(middleware.ProducerMiddleware())
	{
		producer.GET("/sub-orders", ctrl.ProducerOrder.ListSubOrders)
		producer.GET("/sub-orders/:id", ctrl.ProducerOrder.GetSubOrder)
		producer.PATCH("/sub-orders/:id/status", ctrl.ProducerOrder.UpdateStatus)
		producer.PATCH("/sub-orders/:id/items/:item_id", ctrl.ProducerOrder.AdjustItem)
	}
}
