package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-registration-api/internal/domain"
)

// CodeRepo owns the verification_codes table.
// PK: user_id, SK: channel ("email" | "phone").
//
// Because the table is keyed by (user_id, channel), a plain PutItem replaces
// whatever code was outstanding for the pair in a single write, so there is
// no window where two valid codes coexist.
type CodeRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewCodeRepo(client *dynamodb.Client, tableName string) *CodeRepo {
	return &CodeRepo{client: client, tableName: tableName}
}

// Issue stores a fresh code for (userID, channel), invalidating any prior one.
func (r *CodeRepo) Issue(ctx context.Context, userID, channel, code string, ttl time.Duration) error {
	now := time.Now().UTC()
	v := &domain.VerificationCode{
		UserID:    userID,
		Channel:   channel,
		Code:      code,
		ExpiresAt: now.Add(ttl).Unix(),
		CreatedAt: now.Unix(),
	}
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return fmt.Errorf("marshal verification code: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// Consume marks the code verified and returns true iff a row matches all three
// keys, has not been consumed, and has not expired. The conditional update
// guarantees at-most-once consumption under concurrent calls; all failure
// modes (wrong code, expired, already used, no row) collapse to false.
func (r *CodeRepo) Consume(ctx context.Context, userID, code, channel string) (bool, error) {
	now := time.Now().UTC().Unix()
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 compositeKey("user_id", userID, "channel", channel),
		UpdateExpression:    aws.String("SET verified_at = :now"),
		ConditionExpression: aws.String("code = :code AND attribute_not_exists(verified_at) AND expires_at > :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":code": &types.AttributeValueMemberS{Value: code},
			":now":  &types.AttributeValueMemberN{Value: strconv.FormatInt(now, 10)},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Get returns the outstanding code row for (userID, channel), consumed or not.
func (r *CodeRepo) Get(ctx context.Context, userID, channel string) (*domain.VerificationCode, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       compositeKey("user_id", userID, "channel", channel),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("verification code: %w", domain.ErrNotFound)
	}
	var v domain.VerificationCode
	if err := attributevalue.UnmarshalMap(out.Item, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// HasPending reports whether an unconsumed, unexpired code exists for the user
// on any channel.
func (r *CodeRepo) HasPending(ctx context.Context, userID string) (bool, error) {
	now := strconv.FormatInt(time.Now().UTC().Unix(), 10)
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("user_id = :u"),
		FilterExpression:       aws.String("attribute_not_exists(verified_at) AND expires_at > :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":u":   &types.AttributeValueMemberS{Value: userID},
			":now": &types.AttributeValueMemberN{Value: now},
		},
	})
	if err != nil {
		return false, err
	}
	return len(out.Items) > 0, nil
}

// CountPending counts unconsumed, unexpired codes across all users.
func (r *CodeRepo) CountPending(ctx context.Context) (int, error) {
	now := strconv.FormatInt(time.Now().UTC().Unix(), 10)
	return scanCount(ctx, r.client, &dynamodb.ScanInput{
		TableName:        aws.String(r.tableName),
		Select:           types.SelectCount,
		FilterExpression: aws.String("attribute_not_exists(verified_at) AND expires_at > :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberN{Value: now},
		},
	})
}

// SweepExpired deletes rows whose expires_at has passed. Each delete carries
// the same expiry predicate as a condition, so a row that a concurrent Consume
// just validated cannot be swept out from under it. Idempotent.
func (r *CodeRepo) SweepExpired(ctx context.Context) error {
	now := strconv.FormatInt(time.Now().UTC().Unix(), 10)
	input := &dynamodb.ScanInput{
		TableName:            aws.String(r.tableName),
		ProjectionExpression: aws.String("user_id, channel"),
		FilterExpression:     aws.String("expires_at < :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberN{Value: now},
		},
	}
	return scanPages(ctx, r.client, input, func(out *dynamodb.ScanOutput) error {
		for _, item := range out.Items {
			uid, ok1 := item["user_id"].(*types.AttributeValueMemberS)
			ch, ok2 := item["channel"].(*types.AttributeValueMemberS)
			if !ok1 || !ok2 {
				continue
			}
			_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
				TableName:           aws.String(r.tableName),
				Key:                 compositeKey("user_id", uid.Value, "channel", ch.Value),
				ConditionExpression: aws.String("expires_at < :now"),
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":now": &types.AttributeValueMemberN{Value: now},
				},
			})
			if err != nil {
				var ccf *types.ConditionalCheckFailedException
				if errors.As(err, &ccf) {
					continue // re-issued since the scan, leave it
				}
				return err
			}
		}
		return nil
	})
}

// DeleteAll removes codes for a user. An empty channel removes both channels.
func (r *CodeRepo) DeleteAll(ctx context.Context, userID, channel string) error {
	channels := []string{channel}
	if channel == "" {
		channels = []string{domain.ChannelEmail, domain.ChannelPhone}
	}
	for _, ch := range channels {
		_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(r.tableName),
			Key:       compositeKey("user_id", userID, "channel", ch),
		})
		if err != nil {
			return err
		}
	}
	return nil
}
