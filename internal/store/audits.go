package store

import (
	"context"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"adflow/internal/models"
)

func (s *DynamoStore) AppendAudit(ctx context.Context, rec models.AuditRecord) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return err
	}
	_, err = s.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tables.Audits),
		Item:      item,
	})
	return err
}

func (s *DynamoStore) ListTaskAudit(ctx context.Context, taskID string) ([]models.AuditRecord, error) {
	items, err := s.scanAll(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(s.tables.Audits),
		FilterExpression: aws.String("task_id = :tid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":tid": &types.AttributeValueMemberS{Value: taskID},
		},
	})
	if err != nil {
		return nil, err
	}
	var recs []models.AuditRecord
	if err := attributevalue.UnmarshalListOfMaps(items, &recs); err != nil {
		return nil, err
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].CreatedAt < recs[j].CreatedAt })
	return recs, nil
}
