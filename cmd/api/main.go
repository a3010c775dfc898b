package main

import (
	"context"
	"net/http"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"adflow/internal/config"
	"adflow/internal/effects"
	"adflow/internal/engine"
	"adflow/internal/files"
	httpapi "adflow/internal/http"
	kafkaproducer "adflow/internal/queue"
	"adflow/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := setupLogger(cfg.Env)
	ctx := context.Background()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		log.WithError(err).Fatal("load aws config")
	}

	st := store.NewDynamoStore(awsCfg, cfg.DynamoEndpoint, store.TablesWithPrefix(cfg.DynamoTablePrefix))

	deliveries := kafkaproducer.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopicDelivery)
	defer deliveries.Close()

	fileStore, err := files.NewS3Store(awsCfg, cfg.S3Bucket)
	if err != nil {
		log.WithError(err).Fatal("init s3 store")
	}

	coord := effects.NewCoordinator(st, st, deliveries, log)
	eng := engine.New(engine.Deps{
		Tasks:         st,
		Users:         st,
		Absences:      st,
		Sequences:     st,
		Notifications: st,
		Audit:         st,
		Files:         fileStore,
		Effects:       coord,
		Log:           log,
		UINPrefix:     cfg.UINPrefix,
	})

	app := &httpapi.App{
		Engine:               eng,
		Log:                  log,
		AbsenceRetentionDays: cfg.AbsenceRetentionDays,
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-User-ID"},
	}))
	httpapi.RegisterRoutes(r, app)

	log.WithField("addr", cfg.HTTPAddr).Info("API listening")
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.WithError(err).Fatal("http server stopped")
	}
}

func setupLogger(env string) *logrus.Entry {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	if env == "local" {
		l.SetLevel(logrus.DebugLevel)
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetLevel(logrus.InfoLevel)
		l.SetFormatter(&logrus.JSONFormatter{})
	}
	return logrus.NewEntry(l).WithField("service", "api")
}
