package server

import (
	"github.com/labstack/echo/v4"

	"github.com/qrave1/peerlink/internal/application/config"
	"github.com/qrave1/peerlink/internal/infra/ports/http/handlers"
	"github.com/qrave1/peerlink/internal/infra/ports/http/middleware"
)

func New(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	iceHandler *handlers.IceHandler,
	wsHandler *handlers.WebSocketHandler,
) *echo.Echo {
	e := echo.New()

	e.HideBanner = true

	e.Use(middleware.SlogLogger())
	e.Use(middleware.PrometheusMiddleware())

	api := e.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/signup", authHandler.Signup)
			authGroup.POST("/login", authHandler.Login)
		}

		v1 := api.Group("/v1")
		v1.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
		{
			v1.GET("/me", authHandler.GetMe)

			v1.GET("/users", userHandler.ListUsers)
			v1.POST("/send-request", userHandler.SendRequest)
			v1.GET("/requests", userHandler.ListRequests)

			v1.GET("/ice", iceHandler.IceServers)

			v1.GET("/ws", wsHandler.Handle)
		}
	}

	e.Static("/", "web")

	return e
}
