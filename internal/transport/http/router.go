package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type RouterOptions struct {
	Booking        *BookingHandler
	Calendar       *CalendarHandler
	Admin          *AdminHandler
	CORSOrigins    []string
	RequestTimeout time.Duration
}

func NewRouter(opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	corsCfg := cors.DefaultConfig()
	if len(opts.CORSOrigins) == 1 && opts.CORSOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else if len(opts.CORSOrigins) > 0 {
		corsCfg.AllowOrigins = opts.CORSOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	r.Use(cors.New(corsCfg))

	if opts.RequestTimeout > 0 {
		r.Use(requestTimeout(opts.RequestTimeout))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.GET("/availability/slots", opts.Booking.Slots)

		bookings := api.Group("/bookings")
		{
			bookings.POST("", opts.Booking.Submit)
			bookings.GET("/:id", opts.Booking.Get)
			bookings.POST("/:id/status", opts.Booking.Transition)
			bookings.POST("/:id/cancel", opts.Booking.Cancel)
		}

		cal := api.Group("/calendar")
		{
			cal.GET("/day", opts.Calendar.Day)
			cal.GET("/week", opts.Calendar.Week)
			cal.GET("/month", opts.Calendar.Month)
		}

		admin := api.Group("/admin")
		{
			admin.GET("/providers", opts.Admin.ListProviders)
			admin.GET("/providers/:id/availability", opts.Admin.ListRules)
			admin.PUT("/providers/:id/availability", opts.Admin.SaveRule)
			admin.DELETE("/availability/:id", opts.Admin.DeleteRule)
			admin.GET("/blocked-dates", opts.Admin.ListBlockedDates)
			admin.POST("/blocked-dates", opts.Admin.BlockDate)
			admin.DELETE("/blocked-dates/:id", opts.Admin.UnblockDate)
		}
	}

	return r
}

// requestTimeout bounds every handler's storage work. Timeouts surface as 503
// through the store error mapping instead of hanging the client.
func requestTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
