package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "minitask-backend/cmd/api"
	authDelivery "minitask-backend/internal/auth/delivery"
	authdomain "minitask-backend/internal/auth/domain"
	authRepo "minitask-backend/internal/auth/repository"
	authUsecase "minitask-backend/internal/auth/usecase"
	"minitask-backend/internal/bot"
	groupDelivery "minitask-backend/internal/group/delivery"
	groupdomain "minitask-backend/internal/group/domain"
	groupRepo "minitask-backend/internal/group/repository"
	groupUsecase "minitask-backend/internal/group/usecase"
	"minitask-backend/internal/notification"
	syncbus "minitask-backend/internal/sync"
	taskDelivery "minitask-backend/internal/task/delivery"
	taskdomain "minitask-backend/internal/task/domain"
	taskRepo "minitask-backend/internal/task/repository"
	taskScheduler "minitask-backend/internal/task/scheduler"
	taskUsecase "minitask-backend/internal/task/usecase"
	"minitask-backend/pkg/config"
	"minitask-backend/pkg/database"
	"minitask-backend/pkg/fcm"
	"minitask-backend/pkg/sse"
	"minitask-backend/pkg/telegram"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(
		&authdomain.User{},
		&authdomain.FCMToken{},
		&authdomain.VerificationCode{},
		&taskdomain.Task{},
		&groupdomain.Group{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repositories (dependency injection)
	userRepo := authRepo.NewUserRepository(db)
	fcmTokenRepo := authRepo.NewFCMTokenRepository(db)
	verificationRepo := authRepo.NewVerificationRepository(db)
	taskRepository := taskRepo.NewGormTaskRepository(db)
	groupRepository := groupRepo.NewGormGroupRepository(db)

	// Initialize SSE manager
	sseManager := sse.NewManager()
	go sseManager.Run()

	// Telegram bot is optional in local development
	var botClient *telegram.Client
	if cfg.TelegramBotToken != "" {
		botClient, err = telegram.NewClient(cfg.TelegramBotToken)
		if err != nil {
			log.Printf("[WARN] Telegram bot disabled: %v", err)
		} else if cfg.TelegramWebhookURL != "" {
			if err := botClient.SetWebhook(cfg.TelegramWebhookURL); err != nil {
				log.Printf("[WARN] Failed to register Telegram webhook: %v", err)
			}
		}
	} else {
		log.Println("[WARN] TELEGRAM_BOT_TOKEN not set, bot notifications disabled")
	}

	// FCM web push is optional
	var fcmClient *fcm.Client
	if cfg.FirebaseCredentials != "" {
		fcmClient, err = fcm.NewClient(cfg.FirebaseCredentials)
		if err != nil {
			log.Printf("[WARN] Failed to initialize FCM client (web push disabled): %v", err)
			fcmClient = nil
		}
	}

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Pub/Sub event bus. Without a project ID events stay in-process
	// and cross-instance sync is off.
	var events syncbus.Publisher = syncbus.NoopPublisher{}
	if cfg.GoogleProjectID != "" {
		pubsubBus, err := syncbus.NewPubSubBus(rootCtx, cfg.GoogleProjectID, cfg.GooglePubSubTopic, cfg.GoogleCredentials)
		if err != nil {
			log.Printf("[WARN] Pub/Sub bus disabled: %v", err)
		} else {
			events = pubsubBus
			forwarder := syncbus.NewForwarder(pubsubBus, sseManager)
			go forwarder.Run(rootCtx)
		}
	}

	// Initialize usecases
	auth := authUsecase.NewAuthUsecase(userRepo, verificationRepo, botClient, cfg, nil)
	groups := groupUsecase.NewGroupUsecase(groupRepository, events, nil)
	dispatcher := notification.NewTelegramDispatcher(userRepo, fcmTokenRepo, botClient, fcmClient, cfg.FrontendURL)
	tasks := taskUsecase.NewTaskUsecase(taskRepository, groups, dispatcher, events, nil)

	// Deadline scheduler
	sched := taskScheduler.NewDeadlineScheduler(taskRepository, dispatcher, groups, events, nil)
	sched.SetCheckInterval(cfg.ReminderCheckEvery)
	sched.Start()

	var webhook *bot.WebhookHandler
	if botClient != nil {
		webhook = bot.NewWebhookHandler(botClient, auth, tasks, userRepo, cfg.FrontendURL)
	}

	// HTTP server
	r := gin.Default()
	api.SetupRoutes(r, api.Handlers{
		Auth:    auth,
		Groups:  groups,
		AuthH:   authDelivery.NewAuthHandler(auth, fcmTokenRepo),
		GroupH:  groupDelivery.NewGroupHandler(groups),
		TaskH:   taskDelivery.NewTaskHandler(tasks, sched, nil),
		Webhook: webhook,
		SSE:     sseManager,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Printf("[Server] Listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server:", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("[Server] Shutting down")

	sched.Stop()
	sched.Wait()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[Server] Forced shutdown: %v", err)
	}
}
