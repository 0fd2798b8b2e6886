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

type SessionStorage interface {
	Get(ctx context.Context, id string) (*Session, error)
	Create(ctx context.Context, session *Session) error
	Put(ctx context.Context, session *Session) error
	// PutIfStatus writes the full row only while the stored status still
	// equals expectStatus, returning ErrConflict otherwise. All state
	// machine transitions go through this guard.
	PutIfStatus(ctx context.Context, session *Session, expectStatus string) error
}

type DynamoSessionStorage struct {
	Client    *dynamodb.Client
	TableName string
}

func (s *DynamoSessionStorage) Get(ctx context.Context, id string) (*Session, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"PK": id})
	if err != nil {
		logging.Log.Errorf("SESSION: failed to marshal key: %v", err)
		return nil, err
	}

	out, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.TableName,
		Key:       key,
	})
	if err != nil {
		logging.Log.Errorf("SESSION: GET storage failed: %v", err)
		return nil, err
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}

	var session Session
	if err := attributevalue.UnmarshalMap(out.Item, &session); err != nil {
		logging.Log.Errorf("SESSION: failed to unmarshal session: %v", err)
		return nil, err
	}
	return &session, nil
}

func (s *DynamoSessionStorage) Create(ctx context.Context, session *Session) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	session.UpdatedAt = session.CreatedAt

	item, err := attributevalue.MarshalMap(session)
	if err != nil {
		logging.Log.Errorf("SESSION: failed to marshal session: %v", err)
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
			logging.Log.Warnf("SESSION: session %s already exists", session.ID)
			return ErrConflict
		}
		logging.Log.Errorf("SESSION: failed to create session: %v", err)
		return err
	}
	return nil
}

func (s *DynamoSessionStorage) Put(ctx context.Context, session *Session) error {
	session.UpdatedAt = time.Now().UTC()

	item, err := attributevalue.MarshalMap(session)
	if err != nil {
		logging.Log.Errorf("SESSION: failed to marshal session: %v", err)
		return err
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.TableName,
		Item:      item,
	})
	if err != nil {
		logging.Log.Errorf("SESSION: failed to update session: %v", err)
		return err
	}
	return nil
}

func (s *DynamoSessionStorage) PutIfStatus(ctx context.Context, session *Session, expectStatus string) error {
	session.UpdatedAt = time.Now().UTC()

	item, err := attributevalue.MarshalMap(session)
	if err != nil {
		logging.Log.Errorf("SESSION: failed to marshal session: %v", err)
		return err
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &s.TableName,
		Item:                item,
		ConditionExpression: aws.String("#st = :expected"),
		ExpressionAttributeNames: map[string]string{
			"#st": "Status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberS{Value: expectStatus},
		},
	})
	if err != nil {
		var cce *types.ConditionalCheckFailedException
		if errors.As(err, &cce) {
			logging.Log.Warnf("SESSION: session %s moved away from status %s", session.ID, expectStatus)
			return ErrConflict
		}
		logging.Log.Errorf("SESSION: conditional update failed: %v", err)
		return err
	}
	return nil
}
