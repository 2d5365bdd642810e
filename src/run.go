package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/raven-go"
	"github.com/gin-contrib/multitemplate"
	"github.com/gin-gonic/gin"
)

func init() {
	parser.AddCommand("run",
		"Run tg-bothost",
		"Run tg-bothost.",
		&RunCommand{},
	)
}

// RunCommand struct
type RunCommand struct{}

// Execute command
func (x *RunCommand) Execute(args []string) error {
	config = LoadConfig(options.Config)
	logger = newLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := NewApp(ctx, config, connectBot)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := &http.Server{
		Addr:    config.HTTPServer.Listen,
		Handler: setup(a),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(err)
		}
	}()

	a.registerAll()

	c := make(chan os.Signal, 1)
	signal.Notify(c)
	for sig := range c {
		switch sig {
		case os.Interrupt, syscall.SIGQUIT, syscall.SIGTERM:
			a.unregisterAll()

			shutdownCtx, stop := context.WithTimeout(ctx, 10*time.Second)
			defer stop()

			return srv.Shutdown(shutdownCtx)
		default:
		}
	}

	return nil
}

// App owns everything a request needs; handlers hang off it
type App struct {
	registry    Registry
	store       *ConfigStore
	dispatchers *DispatcherCache
	router      *Router
	metrics     *Metrics
	connect     connectFunc
}

func NewApp(ctx context.Context, c *HostConfig, connect connectFunc) (*App, error) {
	registry, err := NewRegistry(c)
	if err != nil {
		return nil, err
	}

	metrics := NewMetrics()
	store := NewConfigStore(c.DataDir, NewCache(ctx, &c.Cache), c.cacheTTL())

	dispatchers, err := NewDispatcherCache(c.Dispatcher.CacheSize, registry, connect, metrics)
	if err != nil {
		return nil, err
	}

	checker := NewSubscriptionChecker(store, metrics, newLocalizer(c.Language))

	return &App{
		registry:    registry,
		store:       store,
		dispatchers: dispatchers,
		router:      NewRouter(dispatchers, store, checker),
		metrics:     metrics,
		connect:     connect,
	}, nil
}

func (a *App) Close() {
	if closer, ok := a.registry.(interface{ Close() }); ok {
		closer.Close()
	}
}

func (a *App) registerWebhook(token, link string) error {
	api, _, err := a.connect(token)
	if err == nil {
		err = setWebhook(api, link)
	}

	a.metrics.webhook("set", err)

	return err
}

// registerAll points every known bot at this host. A failing bot is logged and skipped.
func (a *App) registerAll() {
	bots, err := a.registry.Bots()
	if err != nil {
		logger.Error("registerAll:", err)
		return
	}

	for _, b := range bots {
		link := config.webhookURL(b.Token)
		if err := a.registerWebhook(b.Token, link); err != nil {
			logger.Warningf("Failed to set webhook for %s: %s", b.Name, err)
			continue
		}
		logger.Infof("Webhook set for %s (%s)", b.Name, GetBotID(b.Token))
	}
}

func (a *App) unregisterAll() {
	bots, err := a.registry.Bots()
	if err != nil {
		logger.Error("unregisterAll:", err)
		return
	}

	for _, b := range bots {
		api, _, err := a.connect(b.Token)
		if err == nil {
			err = deleteWebhook(api)
		}

		a.metrics.webhook("delete", err)
		if err != nil {
			logger.Warningf("Failed to delete webhook for %s: %s", b.Name, err)
		}
	}

	logger.Info("All bots stopped")
}

func setup(a *App) *gin.Engine {
	loadTranslateFile()
	setValidation()

	if config.Debug == false {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	if config.Debug {
		r.Use(gin.Logger())
	}

	r.HTMLRender = createHTMLRender()

	errorHandlers := []ErrorHandlerFunc{
		PanicLogger(),
		ErrorLogger(),
		ErrorResponseHandler(),
	}

	sentry, _ := raven.New(config.SentryDSN)
	if sentry != nil && config.SentryDSN != "" {
		errorHandlers = append(errorHandlers, ErrorCaptureHandler(sentry, true))
	}

	r.Use(ErrorHandler(errorHandlers...))

	r.GET("/", healthHandler)
	r.GET("/metrics", a.metrics.handler())
	r.POST("/add-bot", a.addBotHandler)
	r.GET("/edit-file/:token", a.editFileHandler)
	r.POST("/save-file/:token", a.saveFileHandler)
	r.POST("/webhook/:token", a.webhookHandler)

	return r
}

func createHTMLRender() multitemplate.Renderer {
	r := multitemplate.NewRenderer()
	r.AddFromFiles("edit", "templates/layout.html", "templates/edit.html")
	r.AddFromFiles("fragment", "templates/fragment.html")
	return r
}
