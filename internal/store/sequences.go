package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// NextUIN bumps the per-year counter and returns the new value. ADD
// creates the item at 1 on the first call of a year, so there is nothing
// to seed.
func (s *DynamoStore) NextUIN(ctx context.Context, year int) (int64, error) {
	out, err := s.db.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tables.Sequences),
		Key: map[string]types.AttributeValue{
			"sequence_id": &types.AttributeValueMemberS{Value: fmt.Sprintf("uin#%d", year)},
		},
		UpdateExpression: aws.String("ADD seq_value :one"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, err
	}
	attr, ok := out.Attributes["seq_value"]
	if !ok {
		return 0, fmt.Errorf("sequence uin#%d: no seq_value returned", year)
	}
	n, ok := attr.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("sequence uin#%d: seq_value is not a number", year)
	}
	return strconv.ParseInt(n.Value, 10, 64)
}
