package httpserver

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"threedays/internal/handler"
)

type Router struct {
	Engine *gin.Engine
}

func NewRouter(
	authHandler *handler.AuthHandler,
	taskHandler *handler.TaskHandler,
	wsHandler *handler.WSHandler,
	jwtSecret string,
	db *pgxpool.Pool,
) *Router {
	r := gin.Default()
	r.Use(MetricsMiddleware())

	// Health endpoints
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(200)
	})
	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c, 1*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(500, gin.H{"status": "db_not_ready", "error": err.Error()})
			return
		}

		c.JSON(200, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public
	r.POST("/register", authHandler.Register)
	r.POST("/login", authHandler.Login)

	// The websocket handler authenticates itself from the query token.
	r.GET("/ws", wsHandler.Serve)

	// Protected
	auth := r.Group("/")
	auth.Use(AuthMiddleware(jwtSecret))
	{
		auth.GET("/tasks", taskHandler.List)
		auth.POST("/tasks", taskHandler.Create)
		auth.GET("/tasks/archived", taskHandler.ListArchived)
		auth.PATCH("/tasks/reorder", taskHandler.Reorder)
		auth.PUT("/tasks/:id", taskHandler.Update)
		auth.DELETE("/tasks/:id", taskHandler.Delete)
		auth.POST("/tasks/:id/archive", taskHandler.Archive)
		auth.POST("/tasks/:id/restore", taskHandler.Restore)

		// Lives outside /tasks: gin's router cannot mix a static segment
		// with :id at the same position in one method tree.
		auth.POST("/rollover-all", taskHandler.RolloverAll)
	}

	return &Router{Engine: r}
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(port)
}
