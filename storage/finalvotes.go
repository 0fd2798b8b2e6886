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

type FinalVoteStorage interface {
	// Upsert writes the ballot, replacing any earlier ballot by the same
	// participant (earlier rounds included).
	Upsert(ctx context.Context, finalVote *FinalVote) error
	GetBySession(ctx context.Context, sessionID string) ([]*FinalVote, error)
}

type DynamoFinalVoteStorage struct {
	Client    *dynamodb.Client
	TableName string
}

func (s *DynamoFinalVoteStorage) Upsert(ctx context.Context, finalVote *FinalVote) error {
	if finalVote.Timestamp.IsZero() {
		finalVote.Timestamp = time.Now().UTC()
	}

	item, err := attributevalue.MarshalMap(finalVote)
	if err != nil {
		logging.Log.Errorf("FINALVOTE: failed to marshal ballot: %v", err)
		return err
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.TableName,
		Item:      item,
	})
	if err != nil {
		logging.Log.Errorf("FINALVOTE: failed to upsert ballot: %v", err)
		return err
	}
	return nil
}

func (s *DynamoFinalVoteStorage) GetBySession(ctx context.Context, sessionID string) ([]*FinalVote, error) {
	input := &dynamodb.QueryInput{
		TableName:              &s.TableName,
		KeyConditionExpression: aws.String("PK = :sessionId"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":sessionId": &types.AttributeValueMemberS{Value: sessionID},
		},
	}

	output, err := s.Client.Query(ctx, input)
	if err != nil {
		logging.Log.Errorf("FINALVOTE: failed to query ballots for session %s: %v", sessionID, err)
		return nil, err
	}

	var finalVotes []*FinalVote
	if err := attributevalue.UnmarshalListOfMaps(output.Items, &finalVotes); err != nil {
		logging.Log.Errorf("FINALVOTE: failed to unmarshal ballot list: %v", err)
		return nil, err
	}
	return finalVotes, nil
}
