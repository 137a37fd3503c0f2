package dynamo

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-registration-api/internal/domain"
)

// FieldRepo provides typed DynamoDB operations for the field_definitions table.
// PK: field_name (unique by construction).
type FieldRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewFieldRepo(client *dynamodb.Client, tableName string) *FieldRepo {
	return &FieldRepo{client: client, tableName: tableName}
}

func (r *FieldRepo) Put(ctx context.Context, f *domain.FieldDefinition) error {
	item, err := attributevalue.MarshalMap(f)
	if err != nil {
		return fmt.Errorf("marshal field definition: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// PutIfAbsent inserts the field only when no definition with that name exists.
// Returns domain.ErrConflict on a name collision.
func (r *FieldRepo) PutIfAbsent(ctx context.Context, f *domain.FieldDefinition) error {
	item, err := attributevalue.MarshalMap(f)
	if err != nil {
		return fmt.Errorf("marshal field definition: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(field_name)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("field %q already exists: %w", f.Name, domain.ErrConflict)
		}
		return err
	}
	return nil
}

func (r *FieldRepo) Get(ctx context.Context, name string) (*domain.FieldDefinition, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("field_name", name),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("field %q: %w", name, domain.ErrNotFound)
	}
	var f domain.FieldDefinition
	if err := attributevalue.UnmarshalMap(out.Item, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// List returns all field definitions sorted by display order, then name.
func (r *FieldRepo) List(ctx context.Context) ([]domain.FieldDefinition, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
	})
	if err != nil {
		return nil, err
	}
	var fields []domain.FieldDefinition
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &fields); err != nil {
		return nil, err
	}
	sort.Slice(fields, func(i, j int) bool {
		if fields[i].Order != fields[j].Order {
			return fields[i].Order < fields[j].Order
		}
		return fields[i].Name < fields[j].Name
	})
	return fields, nil
}

func (r *FieldRepo) Update(ctx context.Context, name string, updates map[string]interface{}) error {
	expr, names, values, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("field_name", name),
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	return err
}

func (r *FieldRepo) Delete(ctx context.Context, name string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("field_name", name),
	})
	return err
}

// Count returns the number of field definitions. Used to decide whether the
// seed fields need inserting at bootstrap.
func (r *FieldRepo) Count(ctx context.Context) (int, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
		Select:    types.SelectCount,
	})
	if err != nil {
		return 0, err
	}
	return int(out.Count), nil
}
