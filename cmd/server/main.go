// Command server runs the research-project matching API: account lifecycle,
// faculty project ledgers, and student applications over MongoDB.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	accountservice "researchmatch/internal/account/service"
	accountstore "researchmatch/internal/account/store"
	applicationservice "researchmatch/internal/application/service"
	applicationstore "researchmatch/internal/application/store"
	"researchmatch/internal/mirror"
	"researchmatch/internal/platform/config"
	"researchmatch/internal/platform/metrics"
	projectservice "researchmatch/internal/project/service"
	projectstore "researchmatch/internal/project/store"
	"researchmatch/internal/token"
	httptransport "researchmatch/internal/transport/http"
	"researchmatch/pkg/notify"
	"researchmatch/pkg/platform/audit"
)

func main() {
	cfg := config.FromEnv()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Warn("mongo disconnect", "error", err)
		}
	}()
	db := client.Database(cfg.MongoDatabase)

	accounts := accountstore.NewMongo(db)
	if err := accounts.EnsureIndexes(ctx); err != nil {
		return err
	}
	projects := projectstore.NewMongo(db)
	applications := applicationstore.NewMongo(db)

	tokens := token.NewService(cfg.AccessTokenSecret, cfg.RefreshTokenSecret,
		cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	mailer, err := notify.NewMailer(notify.Config{
		Host:        cfg.SMTPHost,
		Port:        cfg.SMTPPort,
		Username:    cfg.SMTPUsername,
		Password:    cfg.SMTPPassword,
		From:        cfg.SMTPFrom,
		FrontendURL: cfg.FrontendURL,
	}, logger)
	if err != nil {
		return err
	}

	var publisher audit.Publisher = audit.NewSlogPublisher(logger)
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := audit.NewKafkaPublisher(cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			return err
		}
		defer kafka.Close()
		publisher = kafka
	}
	emitter := audit.NewEmitter(publisher, logger, 1024)
	go emitter.Run(ctx)

	m := metrics.New()
	link := mirror.NewLink(projects, applications, logger)

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Accounts:     accountservice.NewService(accounts, tokens, mailer, emitter, m, logger),
		Projects:     projectservice.NewService(projects, accounts, link, emitter, m, logger),
		Applications: applicationservice.NewService(applications, projects, accounts, link, emitter, m, logger),
		Tokens:       tokens,
		Metrics:      m,
		Logger:       logger,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	// Let the audit worker flush whatever is queued.
	<-emitter.Done()
	return nil
}
