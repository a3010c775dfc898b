package store

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Tables names the DynamoDB tables backing each aggregate.
type Tables struct {
	Tasks         string
	Users         string
	Absences      string
	Notifications string
	Audits        string
	Sequences     string
}

// TablesWithPrefix returns the conventional table set for one deployment,
// e.g. adflow -> adflow-tasks, adflow-users and so on.
func TablesWithPrefix(prefix string) Tables {
	return Tables{
		Tasks:         prefix + "-tasks",
		Users:         prefix + "-users",
		Absences:      prefix + "-absences",
		Notifications: prefix + "-notifications",
		Audits:        prefix + "-audits",
		Sequences:     prefix + "-sequences",
	}
}

// DynamoStore persists every adflow document: one client, one table per
// aggregate.
type DynamoStore struct {
	db     *dynamodb.Client
	tables Tables
}

// NewDynamoStore builds a store on an already loaded AWS config. endpoint
// overrides the API endpoint for local DynamoDB.
func NewDynamoStore(cfg aws.Config, endpoint string, tables Tables) *DynamoStore {
	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return &DynamoStore{db: client, tables: tables}
}

// scanAll drains a Scan across pages. The tables here stay small (tasks,
// users, absences), so a full scan is the simple honest answer.
func (s *DynamoStore) scanAll(ctx context.Context, in *dynamodb.ScanInput) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	for {
		out, err := s.db.Scan(ctx, in)
		if err != nil {
			return nil, err
		}
		items = append(items, out.Items...)
		if out.LastEvaluatedKey == nil {
			return items, nil
		}
		in.ExclusiveStartKey = out.LastEvaluatedKey
	}
}
