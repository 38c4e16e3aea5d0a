package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"slices"
	"time"

	"github.com/AnshulAlgoS/StudyChamp-sub000/arena"
	"github.com/AnshulAlgoS/StudyChamp-sub000/auth"
	"github.com/AnshulAlgoS/StudyChamp-sub000/config"
	"github.com/AnshulAlgoS/StudyChamp-sub000/migrations"
	"github.com/AnshulAlgoS/StudyChamp-sub000/storage"
	"github.com/AnshulAlgoS/StudyChamp-sub000/web"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func CreateServer(allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/health", func(ctx *gin.Context) { ctx.String(200, "healthy") })

	r.Use(func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")
		if origin == "" || slices.Contains(allowedOrigins, origin) {
			ctx.Next()
			return
		}
		ctx.String(http.StatusForbidden, "forbidden origin")
		ctx.Abort()
	})

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Authorization",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
	}))

	return r
}

func main() {
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	var archive arena.ResultArchive
	var history web.ResultHistory
	if cfg.PostgresURL != "" {
		if err := migrations.Migrate(cfg.PostgresURL); err != nil {
			log.Fatal().Err(err).Msg("migrations failed")
		}
		pg, err := storage.NewPostgresArchive(context.Background(), cfg.PostgresURL)
		if err != nil {
			log.Fatal().Err(err).Msg("result archive connection failed")
		}
		defer pg.Close()
		archive = pg
		history = pg
	} else {
		log.Warn().Msg("no postgres url configured, results are not archived")
	}

	store := arena.NewMemStore()
	storeStarted := make(chan struct{})
	go store.StoreActor(storeStarted)
	<-storeStarted

	svc := arena.NewService(store, arena.NewCodeGen(), archive)

	tokenManager := auth.NewJWTManager(cfg.JWTKey, cfg.TokenMaxAge)

	r := CreateServer(cfg.AllowedOrigins)

	arenaHandler := web.NewArenaHandler(svc)
	{
		arenaGroup := r.Group("/arena")
		arenaGroup.Use(auth.RequireAuthMiddleware(tokenManager))
		arenaHandler.RegisterRoutes(arenaGroup)
		if history != nil {
			web.NewHistoryHandler(history).RegisterRoutes(arenaGroup)
		}
	}

	log.Info().Int("port", cfg.Port).Msg("focus arena listening")
	if err := r.Run(fmt.Sprintf(":%d", cfg.Port)); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
