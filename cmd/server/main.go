package main

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/urbanlens/smart-city-api/internal/config"
	"github.com/urbanlens/smart-city-api/internal/database"
	"github.com/urbanlens/smart-city-api/internal/handler"
	"github.com/urbanlens/smart-city-api/internal/middleware"
	"github.com/urbanlens/smart-city-api/internal/queue"
	"github.com/urbanlens/smart-city-api/internal/repository"
	"github.com/urbanlens/smart-city-api/internal/router"
	"github.com/urbanlens/smart-city-api/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(database.Config{
		User:            cfg.DBUser,
		Pass:            cfg.DBPass,
		Host:            cfg.DBHost,
		Port:            cfg.DBPort,
		Name:            cfg.DBName,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		PingTimeout:     cfg.DBPingTimeout,
	})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, rate limiting and response caching disabled")
	}

	users := repository.NewUserRepo(db)
	sessions := repository.NewSessionRepo(db)
	accidents := repository.NewAccidentRepo(db)
	notifications := repository.NewNotificationRepo(db)

	authSvc := service.NewAuthService(
		users,
		sessions,
		cfg.JWTSecret,
		time.Duration(cfg.AccessTTLMin)*time.Minute,
		time.Duration(cfg.RefreshTTLDays)*24*time.Hour,
		cfg.BcryptCost,
	)

	go queue.StartAccidentConsumer(notifications)

	e := echo.New()
	e.HideBanner = true
	e.Debug = cfg.IsDev()
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{echo.GET, echo.POST, echo.PUT, echo.DELETE, echo.OPTIONS},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.Register(e, router.Deps{
		Cfg:       cfg,
		Redis:     rdb,
		Users:     users,
		Auth:      handler.NewAuthHandler(authSvc),
		Accidents: handler.NewAccidentHandler(accidents),
	})

	log.Fatal(e.Start(":" + cfg.Port))
}
