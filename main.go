// File: kambo-klarity/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/gabedeluna/kambo-klarity/config"
	"github.com/gabedeluna/kambo-klarity/cron"
	"github.com/gabedeluna/kambo-klarity/database"
	bookingRepo "github.com/gabedeluna/kambo-klarity/database/repository/booking"
	"github.com/gabedeluna/kambo-klarity/graph"
	"github.com/gabedeluna/kambo-klarity/handlers"
	"github.com/gabedeluna/kambo-klarity/middleware"
	"github.com/gabedeluna/kambo-klarity/routes"
	"github.com/gabedeluna/kambo-klarity/services/agent"
	"github.com/gabedeluna/kambo-klarity/services/calendar"
	"github.com/gabedeluna/kambo-klarity/services/notification"
	"github.com/gabedeluna/kambo-klarity/services/state"
	"github.com/gabedeluna/kambo-klarity/services/tasks"
	"github.com/gabedeluna/kambo-klarity/utils"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	if config.AppConfig.WaiverSecret == "" && os.Getenv("WAIVER_SECRET") == "" {
		logger.Sugar().Fatal("main: WAIVER_SECRET is not set; waiver links would be forgeable")
	}

	database.InitDB()
	utils.InitSessionCache()

	ctx := context.Background()

	// Collaborators.
	bookingAgent, err := agent.NewGeminiBookingAgent(
		config.AppConfig.GeminiAPIKey,
		config.AppConfig.GeminiModel,
		logger,
	)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize booking agent: %v", err)
	}

	googleCalendar, err := calendar.NewService(ctx, calendar.Options{
		CredentialsFile: config.AppConfig.GoogleCredentialsFile,
		CalendarID:      config.AppConfig.CalendarID,
		Timezone:        config.AppConfig.CalendarTimezone,
		BufferMinutes:   config.AppConfig.BufferMinutes,
		WorkdayStart:    config.AppConfig.WorkdayStartHour,
		WorkdayEnd:      config.AppConfig.WorkdayEndHour,
		Logger:          logger,
	})
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize calendar service: %v", err)
	}

	telegramNotifier, err := notification.NewTelegramNotifier(
		config.AppConfig.TelegramToken,
		config.AppConfig.WaiverBaseURL,
		logger,
	)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize telegram notifier: %v", err)
	}

	sessionStore := state.NewSessionStore(
		utils.GetSessionCacheClient(),
		time.Duration(config.AppConfig.SessionTTLMinutes)*time.Minute,
	)
	stateManager := &state.Manager{
		Sessions: sessionStore,
		Bookings: bookingRepo.NewMongoBookingRepo(),
		Logger:   logger,
	}

	reminderScheduler := tasks.NewReminderScheduler(
		time.Duration(config.AppConfig.ReminderLeadHours) * time.Hour,
	)
	defer reminderScheduler.Close()

	// The booking graph engine.
	engine, err := graph.NewEngine(graph.Deps{
		Agent:     bookingAgent,
		Calendar:  googleCalendar,
		Notifier:  telegramNotifier,
		Store:     stateManager,
		Reminders: reminderScheduler,
		Logger:    logger,
		Config: graph.Config{
			BookingWindowDays: config.AppConfig.BookingWindowDays,
			SessionDurations: map[string]time.Duration{
				"private": time.Duration(config.SessionDurationMinutes("private")) * time.Minute,
			},
			DefaultDuration: time.Duration(config.SessionDurationMinutes("")) * time.Minute,
			ToolCallTimeout: time.Duration(config.AppConfig.ToolCallTimeoutSeconds) * time.Second,
		},
	})
	if err != nil {
		logger.Sugar().Fatalf("main: failed to build booking graph: %v", err)
	}

	// Background workers and monitors.
	cron.InitReminderWorker(telegramNotifier)
	utils.StartHealthMonitor(utils.GetSessionCacheClient(), database.MongoClient)

	// HTTP surface.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())
	router.Use(cors.Default())

	tgHandler := handlers.NewTelegramHandler(engine, sessionStore, telegramNotifier, logger)
	routes.RegisterRoutes(router, tgHandler)

	srv := &http.Server{
		Addr:    ":" + config.AppConfig.AppPort,
		Handler: router,
	}

	go func() {
		logger.Sugar().Infof("main: listening on :%s", config.AppConfig.AppPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server error: %v", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("main: shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Errorf("main: forced shutdown: %v", err)
	}
}

// compile-time wiring checks: the concrete collaborators satisfy the graph's
// contracts.
var (
	_ graph.Agent                = (*agent.GeminiBookingAgent)(nil)
	_ graph.Calendar             = (*calendar.Service)(nil)
	_ graph.Notifier             = (*notification.TelegramNotifier)(nil)
	_ graph.Persistence          = (*state.Manager)(nil)
	_ graph.ReminderScheduler    = (*tasks.ReminderScheduler)(nil)
	_ handlers.SessionRepository = (*state.SessionStore)(nil)
)
