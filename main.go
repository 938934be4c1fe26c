package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/oauth"

	"github.com/mbolis/survey-kiosk/app"
	"github.com/mbolis/survey-kiosk/cache"
	"github.com/mbolis/survey-kiosk/config"
	"github.com/mbolis/survey-kiosk/database"
	"github.com/mbolis/survey-kiosk/httpx"
	"github.com/mbolis/survey-kiosk/log"
	"github.com/mbolis/survey-kiosk/routes"
	"github.com/mbolis/survey-kiosk/survey"
)

func main() {
	config.LoadEnv(".env")
	cfg, err := config.ParseFlags(os.Args[1:])
	if err != nil {
		log.Fatal("main.config: ", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := database.Open(ctx, cfg)
	if err != nil {
		log.Fatal("main.db.open: ", err)
	}
	defer st.Close()

	var opts []survey.Option
	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatal("main.cache.connect: ", err)
		}
		defer rdb.Close()
		opts = append(opts, survey.WithCache(cache.NewCatalog(rdb, cache.DefaultKey, cfg.CacheTTL)))
	}
	svc := survey.New(st, opts...)

	if cfg.Reseed {
		err = svc.ResetCatalog(ctx)
	} else {
		_, err = svc.ListQuestions(ctx)
	}
	if err != nil {
		log.Fatal("main.seed: ", err)
	}

	var bearerServer *oauth.BearerServer
	if cfg.AdminEnabled() {
		bearerServer = httpx.NewBearerServer(cfg)
	} else {
		log.Warn("admin credentials not configured: question management is open")
	}

	app := app.App{
		Service:      svc,
		BearerServer: bearerServer,
		Config:       cfg,
	}

	handler := routes.Wire(app)

	err = runServer(ctx, cfg, handler)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server: ", err)
	}
}

func runServer(ctx context.Context, cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("main.server.shutdown: %s", err)
		}
	}()

	log.Info("Listening on " + cfg.Url())
	return srv.ListenAndServe()
}
