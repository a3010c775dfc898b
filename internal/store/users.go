package store

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"adflow/internal/models"
)

func (s *DynamoStore) PutNewUser(ctx context.Context, u models.User) error {
	item, err := attributevalue.MarshalMap(u)
	if err != nil {
		return err
	}
	_, err = s.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tables.Users),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(user_id)"),
	})
	return err
}

func (s *DynamoStore) UpdateUserActive(ctx context.Context, userID string, active bool) error {
	_, err := s.db.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tables.Users),
		Key: map[string]types.AttributeValue{
			"user_id": &types.AttributeValueMemberS{Value: userID},
		},
		ConditionExpression: aws.String("attribute_exists(user_id)"),
		UpdateExpression:    aws.String("SET active = :a"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":a": &types.AttributeValueMemberBOOL{Value: active},
		},
	})
	return err
}

func (s *DynamoStore) GetUser(ctx context.Context, userID string) (*models.User, error) {
	out, err := s.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tables.Users),
		Key: map[string]types.AttributeValue{
			"user_id": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, nil
	}
	var u models.User
	if err := attributevalue.UnmarshalMap(out.Item, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *DynamoStore) ListUsers(ctx context.Context, f models.UserFilter) ([]models.User, error) {
	in := &dynamodb.ScanInput{TableName: aws.String(s.tables.Users)}

	switch {
	case f.Role != "" && f.ActiveOnly:
		in.FilterExpression = aws.String("#r = :role AND active = :yes")
		in.ExpressionAttributeNames = map[string]string{"#r": "role"}
		in.ExpressionAttributeValues = map[string]types.AttributeValue{
			":role": &types.AttributeValueMemberS{Value: string(f.Role)},
			":yes":  &types.AttributeValueMemberBOOL{Value: true},
		}
	case f.Role != "":
		in.FilterExpression = aws.String("#r = :role")
		in.ExpressionAttributeNames = map[string]string{"#r": "role"}
		in.ExpressionAttributeValues = map[string]types.AttributeValue{
			":role": &types.AttributeValueMemberS{Value: string(f.Role)},
		}
	case f.ActiveOnly:
		in.FilterExpression = aws.String("active = :yes")
		in.ExpressionAttributeValues = map[string]types.AttributeValue{
			":yes": &types.AttributeValueMemberBOOL{Value: true},
		}
	}

	items, err := s.scanAll(ctx, in)
	if err != nil {
		return nil, err
	}
	var users []models.User
	if err := attributevalue.UnmarshalListOfMaps(items, &users); err != nil {
		return nil, err
	}
	return users, nil
}
