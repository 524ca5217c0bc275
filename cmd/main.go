package main

import (
	"context"
	"errors"
	"intelliquery"
	"intelliquery/internal/api/handler/endpoints"
	"intelliquery/internal/api/handler/middleware"
	"intelliquery/internal/api/service"
	"intelliquery/internal/observability"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/graceful"
	"github.com/gin-gonic/gin"
)

func main() {
	intelliquery.InitConfig(".env")
	gin.SetMode(gin.ReleaseMode)
	if intelliquery.GetConfig().Mode == "dev" {
		gin.SetMode(gin.DebugMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	router, err := graceful.Default(graceful.WithAddr(intelliquery.GetConfig().ApiPort))
	if err != nil {
		panic(err)
	}
	defer stop()
	defer router.Close()
	defer intelliquery.DB.Close()

	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}))
	router.Use(middleware.RequestContext(intelliquery.Logger))
	router.Use(observability.GinMiddleware())

	chatService, err := service.NewChatService(ctx)
	if err != nil {
		intelliquery.Logger.Fatal().Err(err).Msg("Failed to initialize chat service")
	}

	initAPI(router, chatService)

	intelliquery.Logger.Debug().Msgf("Starting PropertyTaxBot API on port %s", intelliquery.GetConfig().ApiPort)
	if err = router.RunWithContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
		intelliquery.Logger.Fatal().Msg(err.Error())
	}
}

func initAPI(router *graceful.Graceful, chatService *service.ChatService) {
	router.GET("/metrics", observability.Handler())
	endpoints.ChatHandler(router, intelliquery.Logger, chatService, service.NewAuditService(), service.NewDBHealthService())
}
