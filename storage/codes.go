package storage

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/netplexflix/what-to-watch/logging"
)

type JoinCodeStorage interface {
	Get(ctx context.Context, code string) (*JoinCode, error)
	// Create reserves the code, returning ErrConflict when another session
	// already holds it.
	Create(ctx context.Context, joinCode *JoinCode) error
	Delete(ctx context.Context, code string) error
}

type DynamoJoinCodeStorage struct {
	Client    *dynamodb.Client
	TableName string
}

func (s *DynamoJoinCodeStorage) Get(ctx context.Context, code string) (*JoinCode, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"PK": code})
	if err != nil {
		logging.Log.Errorf("CODE: failed to marshal key: %v", err)
		return nil, err
	}

	out, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.TableName,
		Key:       key,
	})
	if err != nil {
		logging.Log.Errorf("CODE: GET storage failed: %v", err)
		return nil, err
	}
	if out.Item == nil {
		return nil, ErrCodeNotFound
	}

	var joinCode JoinCode
	if err := attributevalue.UnmarshalMap(out.Item, &joinCode); err != nil {
		logging.Log.Errorf("CODE: failed to unmarshal result: %v", err)
		return nil, err
	}
	return &joinCode, nil
}

func (s *DynamoJoinCodeStorage) Create(ctx context.Context, joinCode *JoinCode) error {
	if joinCode.CreatedAt.IsZero() {
		joinCode.CreatedAt = time.Now().UTC()
	}

	item, err := attributevalue.MarshalMap(joinCode)
	if err != nil {
		logging.Log.Errorf("CODE: failed to marshal code: %v", err)
		return err
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &s.TableName,
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var cce *types.ConditionalCheckFailedException
		if errors.As(err, &cce) {
			logging.Log.Warnf("CODE: code %s already taken", joinCode.Code)
			return ErrConflict
		}
		logging.Log.Errorf("CODE: PUT storage failed: %v", err)
		return err
	}
	return nil
}

func (s *DynamoJoinCodeStorage) Delete(ctx context.Context, code string) error {
	key, err := attributevalue.MarshalMap(map[string]string{"PK": code})
	if err != nil {
		logging.Log.Errorf("CODE: failed to marshal key: %v", err)
		return err
	}

	_, err = s.Client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: &s.TableName,
		Key:       key,
	})
	if err != nil {
		logging.Log.Errorf("CODE: DEL storage item failed: %v", err)
		return err
	}
	return nil
}
