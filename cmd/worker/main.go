package main

import (
	"context"
	"os"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"adflow/internal/config"
	"adflow/internal/email"
	kafkaproducer "adflow/internal/queue"
	"adflow/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := setupLogger(cfg.Env).WithField("worker_id", cfg.WorkerID)
	ctx := context.Background()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		log.WithError(err).Fatal("load aws config")
	}

	st := store.NewDynamoStore(awsCfg, cfg.DynamoEndpoint, store.TablesWithPrefix(cfg.DynamoTablePrefix))

	sender, err := email.NewSESSender(awsCfg, cfg.SESFromEmail)
	if err != nil {
		log.WithError(err).Fatal("init ses sender")
	}

	// Consume delivery jobs, produce retry messages.
	consumer := kafkaproducer.NewConsumer(splitCSV(cfg.KafkaBrokers), cfg.KafkaTopicDelivery, cfg.KafkaGroupID)
	defer consumer.Close()
	retries := kafkaproducer.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopicRetry)
	defer retries.Close()

	log.WithField("topic", cfg.KafkaTopicDelivery).Info("delivery worker started")

	for {
		dm, commit, err := consumer.ReadDelivery(ctx)
		if err != nil {
			log.WithError(err).Error("read delivery")
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if err := processOne(ctx, st, sender, retries, cfg.WorkerID, dm.NotificationID); err != nil {
			// Leave the offset uncommitted so Kafka redelivers; the claim
			// keeps duplicates harmless.
			log.WithError(err).WithField("notification_id", dm.NotificationID).Error("process delivery")
			continue
		}

		if err := commit(ctx); err != nil {
			log.WithError(err).Error("commit offset")
		}
	}
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
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
	return logrus.NewEntry(l).WithField("service", "worker")
}
