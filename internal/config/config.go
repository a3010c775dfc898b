package config

import (
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Config carries everything the three binaries read from the
// environment. Values without a default here are validated where they
// are first used (S3 bucket, SES sender).
type Config struct {
	Env      string
	HTTPAddr string

	AWSRegion         string
	DynamoEndpoint    string
	DynamoTablePrefix string
	S3Bucket          string
	SESFromEmail      string

	KafkaBrokers        string
	KafkaTopicDelivery  string
	KafkaTopicRetry     string
	KafkaGroupID        string
	KafkaSchedulerGroup string

	UINPrefix            string
	WorkerID             string
	ScanInterval         time.Duration
	ClaimTimeout         time.Duration
	AbsenceRetentionDays int
}

func Load() Config {
	return Config{
		Env:      getenv("ENV", "local"),
		HTTPAddr: getenv("HTTP_ADDR", ":8080"),

		AWSRegion:         getenv("AWS_REGION", "us-east-2"),
		DynamoEndpoint:    os.Getenv("DYNAMO_ENDPOINT"),
		DynamoTablePrefix: getenv("DYNAMO_TABLE_PREFIX", "adflow"),
		S3Bucket:          os.Getenv("S3_BUCKET"),
		SESFromEmail:      os.Getenv("SES_FROM_EMAIL"),

		KafkaBrokers:        getenv("KAFKA_BROKERS", "localhost:9092"),
		KafkaTopicDelivery:  getenv("KAFKA_TOPIC_DELIVERIES", "adflow-deliveries"),
		KafkaTopicRetry:     getenv("KAFKA_TOPIC_RETRY", "adflow-retry"),
		KafkaGroupID:        getenv("KAFKA_GROUP_ID", "adflow-workers"),
		KafkaSchedulerGroup: getenv("KAFKA_SCHEDULER_GROUP", "adflow-scheduler"),

		UINPrefix:            getenv("UIN_PREFIX", "AD"),
		WorkerID:             getenv("WORKER_ID", defaultWorkerID()),
		ScanInterval:         getdur("SCAN_INTERVAL", 24*time.Hour),
		ClaimTimeout:         getdur("CLAIM_TIMEOUT", 10*time.Minute),
		AbsenceRetentionDays: getint("ABSENCE_RETENTION_DAYS", 90),
	}
}

func getenv(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func getint(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getdur(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// defaultWorkerID gives each unconfigured worker process a distinct
// identity so claims stay attributable.
func defaultWorkerID() string {
	return "worker-" + uuid.NewString()[:8]
}
