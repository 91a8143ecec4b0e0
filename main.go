package main

import (
	"fmt"
	"time"

	"commhub/client"
	"commhub/collection"
	"commhub/compose"
	"commhub/config"
	"commhub/handlers/api"
	"commhub/middleware"
	"commhub/models"
	"commhub/push"
	"commhub/resolver"
	"commhub/respond"
	"commhub/storage"
	"commhub/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/websocket/v2"
)

// consoleUser keys locally persisted drafts. The gateway serves a single
// console session.
const consoleUser = "console"

func main() {
	utils.Log.Info("Initializing CommHub...")

	cfg, err := config.LoadConfig("config.toml")
	if err != nil {
		utils.Log.Fatal("Failed to load config: %v", err)
	}
	utils.Log.SetLevel(utils.ParseLogLevel(cfg.Server.LogLevel))

	if err := utils.InitI18n(); err != nil {
		utils.Log.Error("Failed to initialize i18n: %v", err)
	}

	db, err := storage.InitDB(cfg.Storage.DataDir)
	if err != nil {
		utils.Log.Fatal("Failed to open database: %v", err)
	}
	defer db.Close()

	store := session.New(session.Config{
		Storage:        storage.NewSessionStorage(db),
		Expiration:     cfg.Auth.SessionTTL(),
		CookieSecure:   false, // Set to true in production with HTTPS
		CookieHTTPOnly: true,
	})

	// Backend REST client and the reconciled collection views.
	backend := client.New(&cfg.Backend)
	checkpoints := storage.NewCheckpointStore(db)

	messageView := collection.NewMessageView(cfg.Backend.PageSize, backend.ListMessages)
	messageView.UseCheckpoints(checkpoints)
	scheduleView := collection.NewScheduleView(cfg.Backend.PageSize, backend.ListSchedules)
	scheduleView.UseCheckpoints(checkpoints)

	// Live push channel to the LMS.
	pushManager := push.NewManager(&cfg.Push, cfg.Backend.Token)

	// Response state machines.
	counter := &respond.UnreadCounter{}
	marker := respond.NewReadMarker(messageView, backend.MarkMessageRead, pushManager, counter)
	responder := respond.NewResponder(scheduleView, backend.RespondToSchedule, consoleParticipantID(backend))

	// Recipient typeahead and the compose workflow.
	recipientResolver := resolver.New(backend.SearchUsers, backend.SearchGroups, resolver.DefaultDebounce)
	defer recipientResolver.Close()

	drafts := storage.NewDraftStorage(cfg.Storage.DataDir)
	orchestrator := compose.New(backend.SubmitMessage, recipientResolver.Selected)
	orchestrator.UseDraftStore(drafts, consoleUser)

	typeCache := utils.NewMemoryCache()
	defer typeCache.Close()

	// Handlers.
	authHandler := api.NewAuthHandler(store, cfg)
	messagesHandler := api.NewMessagesHandler(messageView, backend, marker, counter, typeCache)
	schedulesHandler := api.NewSchedulesHandler(scheduleView, backend, responder)
	composeHandler := api.NewComposeHandler(orchestrator, messageView, backend, drafts, consoleUser)
	directoryHandler := api.NewDirectoryHandler(recipientResolver)
	notificationHandler := api.NewNotificationHandler(marker)
	i18nHandler := &api.I18nHandler{}

	startEventLoops(pushManager, messageView, scheduleView, counter, notificationHandler)
	seedUnreadCount(backend, counter)

	app := fiber.New(fiber.Config{
		AppName:               "CommHub",
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError

			if appErr, ok := err.(*utils.AppError); ok {
				code = appErr.Code
				utils.Log.Error("Application error: %v", appErr)
			} else if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Add global middleware
	app.Use(recover.New())  // Recover from panics
	app.Use(logger.New())   // Request logging
	app.Use(compress.New()) // Response compression
	app.Use(helmet.New(helmet.Config{ // Security headers
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "SAMEORIGIN",
		ReferrerPolicy:     "no-referrer",
	}))
	app.Use(middleware.LocaleMiddleware())
	app.Use(middleware.RateLimiter(100, time.Minute))

	// Public routes
	app.Post("/api/login", authHandler.HandleLogin)
	app.Post("/api/logout", authHandler.HandleLogout)
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Protected routes group
	protected := app.Group("/api", api.SessionMiddleware(store, cfg))
	protected.Use(middleware.CSRFProtection())
	{
		// Token for the double-submit CSRF check on mutating calls
		protected.Get("/csrf", func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"token": middleware.GenerateCSRFToken(c)})
		})

		// Message collection routes
		protected.Get("/messages", messagesHandler.HandleList)
		protected.Get("/messages/unread-count", messagesHandler.HandleUnreadCount)
		protected.Get("/messages/:id", messagesHandler.HandleGet)
		protected.Delete("/messages/:id", messagesHandler.HandleDelete)
		protected.Post("/messages/:id/read", messagesHandler.HandleMarkRead)
		protected.Get("/message-types", messagesHandler.HandleMessageTypes)

		// Schedule collection routes
		protected.Get("/schedules", schedulesHandler.HandleList)
		protected.Get("/schedules/:id", schedulesHandler.HandleGet)
		protected.Post("/schedules", schedulesHandler.HandleCreate)
		protected.Put("/schedules/:id", schedulesHandler.HandleUpdate)
		protected.Delete("/schedules/:id", schedulesHandler.HandleDelete)
		protected.Post("/schedules/:id/respond", schedulesHandler.HandleRespond)

		// Compose workflow routes
		protected.Get("/compose", composeHandler.HandleState)
		protected.Post("/compose/new", composeHandler.HandleBegin)
		protected.Post("/compose/reply", composeHandler.HandleBeginReply)
		protected.Post("/compose/forward", composeHandler.HandleBeginForward)
		protected.Post("/compose/edit", composeHandler.HandleBeginEdit)
		protected.Put("/compose", composeHandler.HandleUpdate)
		protected.Post("/compose/attachments", composeHandler.HandleStageAttachment)
		protected.Delete("/compose/attachments/:id", composeHandler.HandleRemoveAttachment)
		protected.Post("/compose/recipients", composeHandler.HandleSelectRecipient)
		protected.Delete("/compose/recipients/:kind/:id", composeHandler.HandleDeselectRecipient)
		protected.Post("/compose/send", composeHandler.HandleSend)
		protected.Post("/compose/draft", composeHandler.HandleSaveDraft)
		protected.Delete("/compose", composeHandler.HandleDiscard)

		// Recovered draft routes
		protected.Get("/drafts", composeHandler.HandleListRecovered)
		protected.Post("/drafts/:id/resume", composeHandler.HandleResume)
		protected.Delete("/drafts/:id", composeHandler.HandleDeleteRecovered)

		// Directory typeahead routes
		protected.Get("/directory/search", directoryHandler.HandleSearch)

		// Notification routes
		protected.Get("/notifications/sse", notificationHandler.HandleSSE)
		protected.Get("/notifications/ws", websocket.New(notificationHandler.HandleWebSocket))

		// i18n routes
		protected.Get("/i18n/:lang", i18nHandler.GetTranslations)
	}

	// 404 Handler for undefined routes
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(404).JSON(fiber.Map{
			"error": "Not found",
		})
	})

	utils.Log.Info("Starting server on port %d...", cfg.Server.Port)
	if err := app.Listen(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
		utils.Log.Error("Error starting server: %v", err)
	}
}

// startEventLoops subscribes both collections on the push channel and runs
// their reconciliation loops. Only accepted events reach the counter and the
// browser hub; redeliveries the view drops by sequence stop here too.
func startEventLoops(manager *push.Manager,
	messageView *collection.View[models.Message],
	scheduleView *collection.View[models.ScheduleEvent],
	counter *respond.UnreadCounter,
	hub *api.NotificationHandler) {

	messages, _ := manager.Subscribe(models.CollectionMessages)
	go messageEventLoop(messages, messageView, counter, hub)

	schedules, _ := manager.Subscribe(models.CollectionSchedules)
	go scheduleEventLoop(schedules, scheduleView, hub)
}

func messageEventLoop(events <-chan models.PushEvent,
	view *collection.View[models.Message],
	counter *respond.UnreadCounter,
	hub *api.NotificationHandler) {

	for evt := range events {
		if !view.ApplyEvent(evt) {
			continue
		}
		if evt.Type == models.EventNewMessage {
			counter.Increment()
		}
		hub.Broadcast(evt)
	}
}

func scheduleEventLoop(events <-chan models.PushEvent,
	view *collection.View[models.ScheduleEvent],
	hub *api.NotificationHandler) {

	for evt := range events {
		if view.ApplyEvent(evt) {
			hub.Broadcast(evt)
		}
	}
}

// seedUnreadCount installs the authoritative badge value and keeps it from
// drifting: local increments and decrements track it between resyncs.
func seedUnreadCount(backend *client.Client, counter *respond.UnreadCounter) {
	sync := func() {
		n, err := backend.UnreadCount()
		if err != nil {
			utils.Log.Warn("Failed to sync unread count: %v", err)
			return
		}
		counter.Set(int64(n))
	}
	sync()

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			sync()
		}
	}()
}

// consoleParticipantID resolves the backend's participant id for the console
// viewer, used to locate its row in schedule participant lists.
func consoleParticipantID(backend *client.Client) int64 {
	profile, err := backend.Profile()
	if err != nil {
		utils.Log.Warn("Failed to resolve console profile, RSVP patches disabled: %v", err)
		return 0
	}
	return profile.ID
}
