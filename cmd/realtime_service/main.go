package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"spiritual_growth_service/internal/realtime/app"
	"spiritual_growth_service/internal/realtime/repository"
	"spiritual_growth_service/internal/realtime/router"
	"spiritual_growth_service/pkg/config"
	"spiritual_growth_service/pkg/database"
	"spiritual_growth_service/pkg/logger"
	testtool "spiritual_growth_service/pkg/test_tool"

	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.RealtimeService, config.EnvConfig.RealtimeServiceLogPath)
	cfg := config.LoadConfig[config.Realtime](config.EnvConfig.RealtimeService, config.EnvConfig.RealtimeServiceYAMLPath)

	rabbitURI := fmt.Sprintf("amqp://%s:%s@%s:%d/", cfg.Rabbit.User, cfg.Rabbit.Password, cfg.Rabbit.Host, cfg.Rabbit.Port)
	rabbitConn, err := database.ConnectRabbitMQWithRetry(database.Connection{
		ConnectStr:    rabbitURI,
		RetryCount:    cfg.Rabbit.RetryCount,
		RetryInterval: time.Duration(cfg.Rabbit.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("connect rabbitmq err : %v", err))
	}
	defer rabbitConn.Close()

	rabbitCh, err := database.GetRabbitMQChannelWithRetry(rabbitConn, cfg.Rabbit.RetryCount, time.Duration(cfg.Rabbit.RetryInterval))
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("open rabbitmq channel err : %v", err))
	}
	defer rabbitCh.Close()

	if _, err := rabbitCh.QueueDeclare(repository.OfflineQueue, true, false, false, false, nil); err != nil {
		logger.Log.Fatal(fmt.Sprintf("declare offline queue err : %v", err))
	}

	memberURL := fmt.Sprintf("http://%s:%s", cfg.MemberService.Name, cfg.MemberService.Port)
	roles := repository.NewMemberRoleResolver(memberURL)
	notifier := repository.NewRabbitOfflineNotifier(database.NewRabbitRepository(rabbitCh))

	hub := app.NewHub(app.NewRegistry(), roles, notifier)

	testtool.StartPprof()

	r := fiber.New()
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.RealtimeServiceLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	r.Use(fiber_log.New(fiber_log.Config{
		Output: file,
	}))

	router.RegisterRoutes(r, app.NewRealtimeWebsocketHandler(hub))

	port := ":" + cfg.Port
	log.Printf("Realtime Service listening on %s", port)
	if err := r.Listen(port); err != nil {
		log.Fatalf("Failed to start Fiber: %v", err)
	}
}
