package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lalith-99/dormlink/internal/middleware"
	"github.com/lalith-99/dormlink/internal/notify"
	"github.com/lalith-99/dormlink/internal/workflow"
)

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker func(ctx context.Context) error

// Deps is everything the router needs to build its handlers.
type Deps struct {
	Engine         *workflow.Engine
	Hub            *notify.Hub
	JWTSecret      string
	TokenTTL       time.Duration
	AllowedOrigins []string
	Health         HealthChecker
	// Done closes open notification streams on shutdown.
	Done   <-chan struct{}
	Logger *zap.Logger
}

// NewRouter registers every route. /v1/health and /v1/auth/* are public;
// everything else under /v1 needs a bearer token.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(d.Logger), cors.New(corsConfig(d.AllowedOrigins)))

	r.GET("/v1/health", func(c *gin.Context) {
		if d.Health != nil {
			if err := d.Health(c.Request.Context()); err != nil {
				d.Logger.Warn("health check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authH := NewAuthHandler(d.Engine, d.JWTSecret, d.TokenTTL, d.Logger)
	public := r.Group("/v1/auth")
	public.POST("/register", authH.Register)
	public.POST("/login", authH.Login)

	userH := NewUserHandler(d.Engine, d.Logger)
	propertyH := NewPropertyHandler(d.Engine, d.Logger)
	visitH := NewVisitHandler(d.Engine, d.Logger)
	leaseH := NewLeaseHandler(d.Engine, d.Logger)
	eventH := NewEventHandler(d.Engine, d.Logger)
	carpoolH := NewCarpoolHandler(d.Engine, d.Logger)
	memberH := NewMembershipHandler(d.Engine, d.Logger)
	notifH := NewNotificationHandler(d.Engine, d.Hub, d.AllowedOrigins, d.Done, d.Logger)

	v1 := r.Group("/v1")
	v1.Use(middleware.AuthMiddleware(d.JWTSecret))

	v1.GET("/me", userH.Me)

	v1.POST("/properties", propertyH.Create)
	v1.GET("/properties", propertyH.Search)
	v1.GET("/properties/mine", propertyH.ListMine)
	v1.PUT("/properties/:id", propertyH.Update)
	v1.DELETE("/properties/:id", propertyH.Delete)
	v1.POST("/properties/:id/bookmark", propertyH.ToggleBookmark)
	v1.GET("/properties/:id/candidates", leaseH.Candidates)
	v1.GET("/properties/:id/roommates", leaseH.Roommates)
	v1.GET("/properties/:id/maintenance", leaseH.ListPropertyMaintenance)
	v1.GET("/bookmarks", propertyH.ListBookmarks)

	v1.POST("/visits", visitH.Create)
	v1.GET("/visits/requests", visitH.ListRequests)
	v1.GET("/visits/upcoming", visitH.ListUpcoming)
	v1.POST("/visits/:id/decision", visitH.Respond)

	v1.POST("/leases", leaseH.Create)
	v1.GET("/leases/mine", leaseH.ListMine)
	v1.POST("/leases/:id/terminate", leaseH.Terminate)

	v1.POST("/maintenance", leaseH.SubmitMaintenance)
	v1.GET("/maintenance/mine", leaseH.ListMyMaintenance)
	v1.POST("/maintenance/:id/resolve", leaseH.ResolveMaintenance)

	v1.GET("/events", eventH.ListAvailable)
	v1.POST("/events", eventH.Create)
	v1.GET("/events/mine", eventH.ListMine)
	v1.GET("/events/upcoming", eventH.ListUpcoming)
	v1.GET("/events/requests", memberH.ListEventRequests)
	v1.PUT("/events/:id", eventH.Update)
	v1.DELETE("/events/:id", eventH.Delete)
	v1.POST("/events/:id/join", memberH.JoinEvent)
	v1.POST("/event-requests/:id/decision", memberH.RespondEvent)

	v1.GET("/carpools", carpoolH.Search)
	v1.POST("/carpools", carpoolH.Create)
	v1.GET("/carpools/mine", carpoolH.ListMine)
	v1.GET("/carpools/upcoming", carpoolH.ListUpcoming)
	v1.GET("/carpools/requests", memberH.ListCarpoolRequests)
	v1.PUT("/carpools/:id", carpoolH.Update)
	v1.DELETE("/carpools/:id", carpoolH.Delete)
	v1.POST("/carpools/:id/join", memberH.JoinCarpool)
	v1.POST("/carpool-requests/:id/decision", memberH.RespondCarpool)

	v1.GET("/notifications", notifH.List)
	v1.GET("/notifications/ws", notifH.Stream)
	v1.POST("/notifications/:id/read", notifH.MarkRead)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders: []string{middleware.HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}
