package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"alfa-forge/internal/config"
	"alfa-forge/internal/database"
	"alfa-forge/internal/services"
)

type Server struct {
	db       *database.Database
	services *services.ServiceManager
}

func New(db *database.Database, sm *services.ServiceManager) *Server {
	return &Server{db: db, services: sm}
}

// NewHTTPServer оборачивает маршруты в http.Server с таймаутами из конфигурации
func NewHTTPServer(cfg *config.Config, db *database.Database, sm *services.ServiceManager) *http.Server {
	s := New(db, sm)

	return &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}

func (s *Server) RegisterRoutes() http.Handler {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/health", s.healthHandler)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/", requireUser())
	{
		habits := api.Group("/habits")
		{
			habits.GET("", s.listHabits)
			habits.POST("", s.createHabit)
			habits.GET("/categories/list", s.listCategories)
			habits.GET("/templates/list", s.listTemplates)
			habits.GET("/:id", s.getHabit)
			habits.PUT("/:id", s.updateHabit)
			habits.DELETE("/:id", s.deleteHabit)
			habits.POST("/:id/complete", s.completeHabit)
			habits.DELETE("/:id/complete/:date", s.uncompleteHabit)
			habits.GET("/:id/stats", s.habitStats)
		}

		tasks := api.Group("/tasks")
		{
			tasks.GET("", s.listTasks)
			tasks.POST("", s.createTask)
			tasks.GET("/today/list", s.todayTasks)
			tasks.GET("/overdue/list", s.overdueTasks)
			tasks.GET("/reminders/upcoming", s.upcomingReminders)
			tasks.GET("/stats/overview", s.taskStats)
			tasks.GET("/habit/:habitId", s.habitTasks)
			tasks.GET("/:id", s.getTask)
			tasks.PUT("/:id", s.updateTask)
			tasks.DELETE("/:id", s.deleteTask)
			tasks.POST("/:id/complete", s.completeTask)
			tasks.DELETE("/:id/complete", s.uncompleteTask)
		}

		notifications := api.Group("/notifications")
		{
			notifications.POST("/devices", s.registerDevice)
			notifications.DELETE("/devices/:playerId", s.unregisterDevice)
			notifications.POST("/send", s.sendNotification)
			notifications.GET("/settings", s.getNotificationSettings)
			notifications.PUT("/settings", s.updateNotificationSettings)
		}
	}

	return router
}

func (s *Server) healthHandler(c *gin.Context) {
	stats := s.db.Health(c.Request.Context())
	status := http.StatusOK
	if stats["status"] != "up" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, stats)
}
