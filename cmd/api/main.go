package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/anjiri1684/appointment_reminder/configs"
	"github.com/anjiri1684/appointment_reminder/database"
	"github.com/anjiri1684/appointment_reminder/handlers"
	"github.com/anjiri1684/appointment_reminder/jobs"
	"github.com/anjiri1684/appointment_reminder/notifications"
	"github.com/anjiri1684/appointment_reminder/routes"
	"github.com/anjiri1684/appointment_reminder/utils"
	"github.com/anjiri1684/appointment_reminder/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := utils.InitLogger("info", "console")
		fallback.Fatal().Err(err).Msg("🔥 Invalid configuration")
	}
	log := utils.InitLogger(cfg.LogLevel, cfg.LogFormat)

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("🔥 Invalid timezone")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("🔥 Failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("🔥 Failed to migrate database")
	}
	log.Info().Msg("✅ Database connected and migrated")
	store := database.NewBookingStore(db)

	dispatcher := newDispatcher(cfg, log)

	taskOpts := []jobs.TaskOption{jobs.WithLocation(loc), jobs.WithLogger(log)}
	if cfg.RabbitURL != "" {
		pub, err := notifications.NewAMQPPublisher(cfg.RabbitURL, cfg.NotifyExchange)
		if err != nil {
			log.Fatal().Err(err).Msg("🔥 Failed to connect to RabbitMQ")
		}
		defer pub.Close()
		taskOpts = append(taskOpts, jobs.WithEvents(pub))
		log.Info().Str("exchange", cfg.NotifyExchange).Msg("✅ Notification events enabled")
	}

	reminderWindow := jobs.Window{Name: "reminder", Start: cfg.ReminderWindowStart, End: cfg.ReminderWindowEnd}
	feedbackWindow := jobs.Window{Name: "feedback", Start: cfg.FeedbackWindowStart, End: cfg.FeedbackWindowEnd}
	runner := jobs.NewRunner(cfg.SchedulerInterval, log,
		jobs.NewReminderTask(reminderWindow, store, dispatcher, taskOpts...),
		jobs.NewFeedbackTask(feedbackWindow, store, dispatcher, taskOpts...),
	)

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	hub := websocket.NewHub(log)
	go hub.Run(hubCtx)

	runner.Observe(func(s jobs.PassSummary) {
		log.Info().
			Str("run_id", s.RunID.String()).
			Str("kind", string(s.Kind)).
			Int("scanned", s.Scanned).
			Int("sent", s.Sent).
			Int("skipped", s.Skipped).
			Int("failed", s.Failed).
			Dur("duration", s.Duration).
			Msg("Pass finished")
	})
	runner.Observe(hub.Publish)
	runner.Start()

	app := newApp(log)
	routes.PublicRoutes(app)
	routes.AuthRoutes(app, handlers.NewAuthHandler(cfg.AdminUsername, cfg.AdminPasswordHash, cfg.JWTSecret))
	routes.BookingRoutes(app, handlers.NewBookingHandler(store, log), cfg.JWTSecret)
	routes.AdminRoutes(app,
		handlers.NewAdminHandler(runner, log),
		handlers.NewFeedHandler(hub, cfg.JWTSecret, log),
		cfg.JWTSecret,
	)

	go func() {
		log.Info().Str("port", cfg.Port).Msg("✅ Server is running")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("🔥 Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Error().Err(err).Msg("HTTP shutdown incomplete")
	}
	if err := runner.Stop(ctx); err != nil {
		log.Error().Err(err).Msg("Scheduler stopped before in-flight passes finished")
	}
	stopHub()

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("Shutdown complete")
}

func newDispatcher(cfg config.Config, log zerolog.Logger) *notifications.Dispatcher {
	var messages notifications.MessageSender
	if cfg.UltraMsgEnabled() {
		messages = notifications.NewUltraMsgService(cfg.UltraMsgInstanceID, cfg.UltraMsgToken, log)
		log.Info().Msg("✅ WhatsApp delivery via UltraMsg")
	} else {
		messages = notifications.NewConsoleService(log)
		log.Warn().Msg("UltraMsg not configured, messages will only be logged")
	}

	var email notifications.EmailSender
	if cfg.EmailEnabled() {
		email = notifications.NewBrevoService(cfg.BrevoAPIKey, cfg.EmailSender, cfg.EmailSenderName, log)
		log.Info().Msg("✅ Email delivery via Brevo")
	} else {
		log.Warn().Msg("Brevo not configured, email delivery disabled")
	}

	return notifications.NewDispatcher(messages, email, log)
}

func newApp(log zerolog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:       "Appointment Reminder",
		CaseSensitive: true,
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  60 * time.Second,
		IdleTimeout:   60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			log.Error().Err(err).Str("path", c.Path()).Str("method", c.Method()).Msg("Request failed")
			return c.Status(code).JSON(fiber.Map{
				"status":  "error",
				"code":    code,
				"message": err.Error(),
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods: "GET, POST, PUT, OPTIONS",
		MaxAge:       86400,
	}))
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	return app
}
