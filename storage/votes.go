package storage

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/netplexflix/what-to-watch/logging"
)

type VoteStorage interface {
	// Upsert writes the vote row and returns the replaced row, or nil when
	// this was the participant's first vote on the item.
	Upsert(ctx context.Context, vote *Vote) (*Vote, error)
	// Delete removes the row and returns it, or nil when there was nothing
	// to remove. Retracting an absent vote is not an error.
	Delete(ctx context.Context, sessionID, participantID, itemID string) (*Vote, error)
	GetBySession(ctx context.Context, sessionID string) ([]*Vote, error)
}

type DynamoVoteStorage struct {
	Client    *dynamodb.Client
	TableName string
}

func (s *DynamoVoteStorage) Upsert(ctx context.Context, vote *Vote) (*Vote, error) {
	vote.SortKey = VoteSortKey(vote.ParticipantID, vote.ItemID)
	if vote.Timestamp.IsZero() {
		vote.Timestamp = time.Now().UTC()
	}

	item, err := attributevalue.MarshalMap(vote)
	if err != nil {
		logging.Log.Errorf("VOTE: failed to marshal vote: %v", err)
		return nil, err
	}

	out, err := s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:    &s.TableName,
		Item:         item,
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		logging.Log.Errorf("VOTE: failed to upsert vote: %v", err)
		return nil, err
	}
	if len(out.Attributes) == 0 {
		return nil, nil
	}

	var prior Vote
	if err := attributevalue.UnmarshalMap(out.Attributes, &prior); err != nil {
		logging.Log.Errorf("VOTE: failed to unmarshal replaced vote: %v", err)
		return nil, err
	}
	return &prior, nil
}

func (s *DynamoVoteStorage) Delete(ctx context.Context, sessionID, participantID, itemID string) (*Vote, error) {
	key, err := attributevalue.MarshalMap(map[string]string{
		"PK": sessionID,
		"SK": VoteSortKey(participantID, itemID),
	})
	if err != nil {
		logging.Log.Errorf("VOTE: failed to marshal delete key: %v", err)
		return nil, err
	}

	out, err := s.Client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    &s.TableName,
		Key:          key,
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		logging.Log.Errorf("VOTE: failed to delete vote: %v", err)
		return nil, err
	}
	if len(out.Attributes) == 0 {
		return nil, nil
	}

	var prior Vote
	if err := attributevalue.UnmarshalMap(out.Attributes, &prior); err != nil {
		logging.Log.Errorf("VOTE: failed to unmarshal removed vote: %v", err)
		return nil, err
	}
	return &prior, nil
}

func (s *DynamoVoteStorage) GetBySession(ctx context.Context, sessionID string) ([]*Vote, error) {
	input := &dynamodb.QueryInput{
		TableName:              &s.TableName,
		KeyConditionExpression: aws.String("PK = :sessionId"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":sessionId": &types.AttributeValueMemberS{Value: sessionID},
		},
	}

	output, err := s.Client.Query(ctx, input)
	if err != nil {
		logging.Log.Errorf("VOTE: failed to query votes for session %s: %v", sessionID, err)
		return nil, err
	}

	var votes []*Vote
	if err := attributevalue.UnmarshalListOfMaps(output.Items, &votes); err != nil {
		logging.Log.Errorf("VOTE: failed to unmarshal vote list: %v", err)
		return nil, err
	}
	return votes, nil
}
