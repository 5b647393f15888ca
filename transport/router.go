package transport

import (
	"net/http"
	"time"

	"github.com/computersciencehouse/quickpoll/logging"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ServerErrorMessage is the only detail clients get about an unexpected failure.
const ServerErrorMessage = "server error, please try again later"

type ErrorResponse struct {
	Error string `json:"error"`
}

func NewRouter(ginMode string, origins []string) *gin.Engine {
	gin.SetMode(ginMode)
	engine := gin.New()
	engine.Use(logging.Middleware(), Recovery(), CORSMiddleware(origins))

	engine.NoRoute(NoRouteHandler())

	return engine
}

func CORSMiddleware(origins []string) gin.HandlerFunc {
	config := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", logging.RequestIDHeader},
		ExposeHeaders: []string{logging.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}

	for _, origin := range origins {
		if origin == "*" {
			config.AllowAllOrigins = true
			break
		}
	}
	if !config.AllowAllOrigins {
		config.AllowOrigins = origins
	}

	return cors.New(config)
}

// Recovery turns a panic into the generic 500 response.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logging.Logger.WithFields(logrus.Fields{
			"module": "transport",
			"method": "Recovery",
			"path":   c.Request.URL.Path,
			"panic":  recovered,
		}).Error("recovered from panic")
		c.AbortWithStatusJSON(http.StatusInternalServerError, &ErrorResponse{Error: ServerErrorMessage})
	})
}

func NoRouteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, &ErrorResponse{Error: "route not found"})
	}
}
