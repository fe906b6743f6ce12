// Package server wires the bot together: it opens the store, restores the
// target group, registers the bot with Telegram and serves the webhook and
// the mini-app form until it receives a termination signal.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/swappy/internal/common"
	"github.com/dmitrijs2005/swappy/internal/logging"
	"github.com/dmitrijs2005/swappy/internal/server/ads"
	"github.com/dmitrijs2005/swappy/internal/server/auth"
	"github.com/dmitrijs2005/swappy/internal/server/config"
	"github.com/dmitrijs2005/swappy/internal/server/groupstate"
	"github.com/dmitrijs2005/swappy/internal/server/handlers"
	"github.com/dmitrijs2005/swappy/internal/server/ledger"
	"github.com/dmitrijs2005/swappy/internal/server/metrics"
	"github.com/dmitrijs2005/swappy/internal/server/posting"
	"github.com/dmitrijs2005/swappy/internal/server/router"
	"github.com/dmitrijs2005/swappy/internal/server/site"
	"github.com/dmitrijs2005/swappy/internal/server/store"
	"github.com/dmitrijs2005/swappy/internal/telegram"
)

const (
	menuButtonText  = "Swappy"
	shutdownTimeout = 10 * time.Second
	setupTimeout    = 30 * time.Second
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	store   store.Store
	group   *groupstate.Holder
	tg      *telegram.Client
	links   *auth.Links
	posting *posting.Service
	router  *router.Router

	webhookSecret string
}

func NewApp(c *config.Config) (*App, error) {
	return newApp(context.Background(), c, logging.NewJSONLogger(os.Stdout, c.LogLevel))
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger, tgOpts ...telegram.Option) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	retention, err := c.Retention()
	if err != nil {
		return nil, err
	}
	appURL, err := url.Parse(c.AppURL)
	if err != nil {
		return nil, fmt.Errorf("app url: %w", err)
	}

	st, err := store.Open(ctx, c.StoreBackend, c.StoreDSN())
	if err != nil {
		return nil, fmt.Errorf("store init error: %w", err)
	}

	group, err := groupstate.Load(ctx, st)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("target group: %w", err)
	}

	app := &App{config: c, logger: logger, store: st, group: group}

	salt := []byte(c.StarSalt)
	if len(salt) == 0 {
		salt = ledger.DeriveSalt([]byte(c.BotToken))
	}

	editSecret := c.EditTokenSecret
	if editSecret == "" {
		if editSecret, err = common.MakeRandHexString(32); err != nil {
			_ = st.Close()
			return nil, err
		}
		logger.Warn(ctx, "no edit token secret configured, edit links will not survive a restart")
	}

	app.webhookSecret = c.WebhookSecret
	if app.webhookSecret == "" {
		if app.webhookSecret, err = common.MakeRandHexString(32); err != nil {
			_ = st.Close()
			return nil, err
		}
	}

	if app.tg, err = telegram.NewClient(c.BotToken, tgOpts...); err != nil {
		_ = st.Close()
		return nil, err
	}

	l := ledger.New(st, salt)
	adStore := ads.New(st, retention)
	app.links = &auth.Links{AppURL: appURL, Secret: []byte(editSecret), Validity: c.EditTokenValidity}
	app.posting = posting.NewService(app.tg, l, adStore, app.links, logger)

	bot := handlers.New(app.tg, app.tg, l, app.posting, group, logger)
	app.router = router.New(router.Tree(bot.Handlers()), router.WithObserver(func(branch string, out router.Outcome) {
		metrics.RecordRoute(branch, out.String())
	}))

	logger.Info(ctx, "app initialized",
		"store", c.StoreBackend, "group", group.Snapshot(), "ad_retention", adStore.Policy().String())

	return app, nil
}

// register identifies the bot and installs its menu button, command list and
// webhook. It returns the static routing context.
func (app *App) register(ctx context.Context) (router.Context, error) {
	ctx, cancel := context.WithTimeout(ctx, setupTimeout)
	defer cancel()

	me, err := app.tg.GetMe(ctx)
	if err != nil {
		return router.Context{}, fmt.Errorf("getMe: %w", err)
	}
	if err := app.tg.SetChatMenuButton(ctx, telegram.NewWebAppMenuButton(menuButtonText, app.config.AppURL)); err != nil {
		return router.Context{}, err
	}
	if err := app.tg.SetMyCommands(ctx, router.BotCommands(router.PublicCommands)); err != nil {
		return router.Context{}, err
	}
	hook := strings.TrimRight(app.config.BotDomain, "/") + site.WebhookPath
	if err := app.tg.SetWebhook(ctx, hook, app.webhookSecret); err != nil {
		return router.Context{}, err
	}

	app.logger.Info(ctx, "bot registered", "bot", me.Username, "webhook", hook)

	return router.Context{
		MaintainerID: app.config.MaintainerID,
		BotID:        me.ID,
		BotUsername:  me.Username,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) handler(rc router.Context) http.Handler {
	appURL, _ := url.Parse(app.config.AppURL)
	cfg := site.Config{
		AppURL:         appURL,
		BotToken:       app.config.BotToken,
		InitDataMaxAge: app.config.InitDataMaxAge,
		WebhookSecret:  app.webhookSecret,
		Bot:            rc,
	}
	return site.NewServer(cfg, app.group, app.tg, app.posting, app.links, app.router, app.store, app.logger).Handler()
}

// serve runs the HTTP server on ln until ctx is cancelled or the server
// fails.
func (app *App) serve(ctx context.Context, ln net.Listener, h http.Handler) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(shutdownCtx, "http shutdown", "error", err)
		}
	}()

	app.logger.Info(ctx, "listening", "addr", ln.Addr().String())
	err := srv.Serve(ln)
	// Serve also returns on its own when the listener fails
	cancel()
	wg.Wait()

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Run registers the bot and serves until a termination signal arrives or
// ctx is cancelled. The store is closed on return.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	defer func() {
		if err := app.store.Close(); err != nil {
			app.logger.Error(ctx, "store close", "error", err)
		}
	}()

	rc, err := app.register(ctx)
	if err != nil {
		return fmt.Errorf("bot registration: %w", err)
	}

	ln, err := net.Listen("tcp", app.config.ListenAddr)
	if err != nil {
		return err
	}
	return app.serve(ctx, ln, app.handler(rc))
}
