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

type ParticipantStorage interface {
	Get(ctx context.Context, sessionID, participantID string) (*Participant, error)
	GetBySession(ctx context.Context, sessionID string) ([]*Participant, error)
	Create(ctx context.Context, participant *Participant) error
	Put(ctx context.Context, participant *Participant) error
}

type DynamoParticipantStorage struct {
	Client    *dynamodb.Client
	TableName string
}

func (s *DynamoParticipantStorage) Get(ctx context.Context, sessionID, participantID string) (*Participant, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"PK": sessionID, "SK": participantID})
	if err != nil {
		logging.Log.Errorf("PARTICIPANT: failed to marshal key: %v", err)
		return nil, err
	}

	out, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.TableName,
		Key:       key,
	})
	if err != nil {
		logging.Log.Errorf("PARTICIPANT: GET storage failed: %v", err)
		return nil, err
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}

	var participant Participant
	if err := attributevalue.UnmarshalMap(out.Item, &participant); err != nil {
		logging.Log.Errorf("PARTICIPANT: failed to unmarshal participant: %v", err)
		return nil, err
	}
	return &participant, nil
}

func (s *DynamoParticipantStorage) GetBySession(ctx context.Context, sessionID string) ([]*Participant, error) {
	input := &dynamodb.QueryInput{
		TableName:              &s.TableName,
		KeyConditionExpression: aws.String("PK = :sessionId"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":sessionId": &types.AttributeValueMemberS{Value: sessionID},
		},
	}

	output, err := s.Client.Query(ctx, input)
	if err != nil {
		logging.Log.Errorf("PARTICIPANT: failed to query participants for session %s: %v", sessionID, err)
		return nil, err
	}

	var participants []*Participant
	if err := attributevalue.UnmarshalListOfMaps(output.Items, &participants); err != nil {
		logging.Log.Errorf("PARTICIPANT: failed to unmarshal participant list: %v", err)
		return nil, err
	}
	return participants, nil
}

func (s *DynamoParticipantStorage) Create(ctx context.Context, participant *Participant) error {
	if participant.JoinedAt.IsZero() {
		participant.JoinedAt = time.Now().UTC()
	}

	item, err := attributevalue.MarshalMap(participant)
	if err != nil {
		logging.Log.Errorf("PARTICIPANT: failed to marshal participant: %v", err)
		return err
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &s.TableName,
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		var cce *types.ConditionalCheckFailedException
		if errors.As(err, &cce) {
			logging.Log.Warnf("PARTICIPANT: participant %s already in session %s", participant.ID, participant.SessionID)
			return ErrConflict
		}
		logging.Log.Errorf("PARTICIPANT: failed to create participant: %v", err)
		return err
	}
	return nil
}

func (s *DynamoParticipantStorage) Put(ctx context.Context, participant *Participant) error {
	item, err := attributevalue.MarshalMap(participant)
	if err != nil {
		logging.Log.Errorf("PARTICIPANT: failed to marshal participant: %v", err)
		return err
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.TableName,
		Item:      item,
	})
	if err != nil {
		logging.Log.Errorf("PARTICIPANT: failed to update participant: %v", err)
		return err
	}
	return nil
}
