package store

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"adflow/internal/models"
)

func (s *DynamoStore) PutAbsence(ctx context.Context, a models.Absence) error {
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return err
	}
	_, err = s.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tables.Absences),
		Item:      item,
	})
	return err
}

func (s *DynamoStore) DeleteAbsence(ctx context.Context, absenceID string) error {
	_, err := s.db.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tables.Absences),
		Key: map[string]types.AttributeValue{
			"absence_id": &types.AttributeValueMemberS{Value: absenceID},
		},
	})
	return err
}

func (s *DynamoStore) GetAbsence(ctx context.Context, absenceID string) (*models.Absence, error) {
	out, err := s.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tables.Absences),
		Key: map[string]types.AttributeValue{
			"absence_id": &types.AttributeValueMemberS{Value: absenceID},
		},
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, nil
	}
	var a models.Absence
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *DynamoStore) ListAbsences(ctx context.Context, f models.AbsenceFilter) ([]models.Absence, error) {
	in := &dynamodb.ScanInput{TableName: aws.String(s.tables.Absences)}

	var exprs []string
	values := map[string]types.AttributeValue{}
	if f.UserID != "" {
		values[":uid"] = &types.AttributeValueMemberS{Value: f.UserID}
		exprs = append(exprs, "user_id = :uid")
	}
	if f.CoveringDate != "" {
		// Inclusive interval: from_date <= day <= to_date.
		values[":day"] = &types.AttributeValueMemberS{Value: f.CoveringDate}
		exprs = append(exprs, "from_date <= :day AND to_date >= :day")
	}
	if f.EndedBefore != "" {
		values[":cut"] = &types.AttributeValueMemberS{Value: f.EndedBefore}
		exprs = append(exprs, "to_date < :cut")
	}
	if len(exprs) > 0 {
		expr := exprs[0]
		for _, e := range exprs[1:] {
			expr += " AND " + e
		}
		in.FilterExpression = aws.String(expr)
		in.ExpressionAttributeValues = values
	}

	items, err := s.scanAll(ctx, in)
	if err != nil {
		return nil, err
	}
	var absences []models.Absence
	if err := attributevalue.UnmarshalListOfMaps(items, &absences); err != nil {
		return nil, err
	}
	return absences, nil
}
