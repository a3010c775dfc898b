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
	"adflow/internal/effects"
	"adflow/internal/engine"
	kafkaproducer "adflow/internal/queue"
	"adflow/internal/store"
)

// The scheduler runs the periodic scans (expiry, reviewer reassignment,
// absence cleanup) and feeds due retries back onto the delivery topic.
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
	retryConsumer := kafkaproducer.NewConsumer(splitCSV(cfg.KafkaBrokers), cfg.KafkaTopicRetry, cfg.KafkaSchedulerGroup)
	defer retryConsumer.Close()

	// No file store: scans never touch version binaries.
	coord := effects.NewCoordinator(st, st, deliveries, log)
	eng := engine.New(engine.Deps{
		Tasks:         st,
		Users:         st,
		Absences:      st,
		Sequences:     st,
		Notifications: st,
		Audit:         st,
		Effects:       coord,
		Log:           log,
		UINPrefix:     cfg.UINPrefix,
	})

	go runRetryLoop(ctx, retryConsumer, deliveries, log)
	go runClaimSweep(ctx, st, deliveries, cfg.ClaimTimeout, log)

	log.WithField("interval", cfg.ScanInterval.String()).Info("scheduler started")
	runScans(ctx, eng, cfg.AbsenceRetentionDays, log)
	ticker := time.NewTicker(cfg.ScanInterval)
	defer ticker.Stop()
	for range ticker.C {
		runScans(ctx, eng, cfg.AbsenceRetentionDays, log)
	}
}

func runScans(ctx context.Context, eng *engine.Engine, retentionDays int, log *logrus.Entry) {
	if report, err := eng.ExpiryScan(ctx); err != nil {
		log.WithError(err).Error("expiry scan")
	} else {
		log.WithField("scanned", report.Scanned).WithField("expired", report.Expired).Info("expiry scan done")
	}

	if report, err := eng.ReassignmentScan(ctx); err != nil {
		log.WithError(err).Error("reassignment scan")
	} else {
		entry := log.WithField("absent", report.AbsentReviewers).WithField("reassigned", report.Reassigned)
		if len(report.Uncovered) > 0 {
			entry = entry.WithField("uncovered", report.Uncovered)
		}
		entry.Info("reassignment scan done")
	}

	if report, err := eng.CleanupScan(ctx, retentionDays); err != nil {
		log.WithError(err).Error("cleanup scan")
	} else {
		log.WithField("purged", report.Purged).Info("cleanup scan done")
	}
}

// runRetryLoop re-enqueues parked deliveries once their backoff expires.
func runRetryLoop(ctx context.Context, consumer *kafkaproducer.Consumer, deliveries *kafkaproducer.Producer, log *logrus.Entry) {
	for {
		rm, commit, err := consumer.ReadRetry(ctx)
		if err != nil {
			log.WithError(err).Error("read retry")
			time.Sleep(500 * time.Millisecond)
			continue
		}

		now := time.Now().UnixMilli()
		if rm.NextRetryAt > now {
			time.Sleep(time.Duration(rm.NextRetryAt-now) * time.Millisecond)
		}

		if err := deliveries.PublishDelivery(ctx, rm.NotificationID); err != nil {
			log.WithError(err).WithField("notification_id", rm.NotificationID).Error("re-enqueue delivery")
			// no commit; the retry message comes back
			continue
		}

		if err := commit(ctx); err != nil {
			log.WithError(err).Error("commit retry offset")
		}
	}
}

// runClaimSweep recovers deliveries lost to a crash: claims whose worker
// died mid-send are released back to PENDING and re-enqueued, and PENDING
// rows that never got a queue message (publish failed after the put) are
// re-enqueued. The conditional release only touches claims still exactly
// as observed, so a slow-but-alive worker keeps its claim. Duplicate
// queue messages are harmless; the claim itself is the gate.
func runClaimSweep(ctx context.Context, st *store.DynamoStore, deliveries *kafkaproducer.Producer, timeout time.Duration, log *logrus.Entry) {
	ticker := time.NewTicker(timeout)
	defer ticker.Stop()
	for range ticker.C {
		now := time.Now().UnixMilli()
		cutoff := now - timeout.Milliseconds()

		stale, err := st.ListStaleProcessing(ctx, cutoff)
		if err != nil {
			log.WithError(err).Error("list stale claims")
			continue
		}
		for _, n := range stale {
			released, err := st.ReleaseStaleClaim(ctx, n.ID, n.ProcessingStartedAt, now)
			if err != nil {
				log.WithError(err).WithField("notification_id", n.ID).Error("release stale claim")
				continue
			}
			if !released {
				continue
			}
			log.WithField("notification_id", n.ID).WithField("worker_id", n.WorkerID).Warn("stale claim released")
			if err := deliveries.PublishDelivery(ctx, n.ID); err != nil {
				// Now PENDING; the pending sweep below picks it up next round.
				log.WithError(err).WithField("notification_id", n.ID).Error("re-enqueue released delivery")
			}
		}

		pending, err := st.ListStalePending(ctx, cutoff)
		if err != nil {
			log.WithError(err).Error("list stale pending")
			continue
		}
		for _, n := range pending {
			if err := deliveries.PublishDelivery(ctx, n.ID); err != nil {
				log.WithError(err).WithField("notification_id", n.ID).Error("re-enqueue pending delivery")
			}
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
	return logrus.NewEntry(l).WithField("service", "scheduler")
}
