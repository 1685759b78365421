package dynamo

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/vecfleet/blobstore"
)

// Client is the interface for DynamoDB operations.
type Client interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Store implements blobstore.Store backed by a DynamoDB table.
type Store struct {
	client    Client
	tableName string
	baseURI   string // partition key scoping this store's documents
}

// NewStore creates a new DynamoDB document store.
// baseURI scopes documents within the table, e.g. "fleet://prod/search".
func NewStore(client Client, tableName, baseURI string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		baseURI:   baseURI,
	}
}

// Get returns the content of the named document.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"base_uri": &types.AttributeValueMemberS{Value: s.baseURI},
			"name":     &types.AttributeValueMemberS{Value: name},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, blobstore.ErrNotFound
	}

	content, ok := out.Item["content"].(*types.AttributeValueMemberB)
	if !ok {
		return nil, blobstore.ErrNotFound
	}
	return content.Value, nil
}

// Put atomically replaces the named document.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"base_uri": &types.AttributeValueMemberS{Value: s.baseURI},
			"name":     &types.AttributeValueMemberS{Value: name},
			"content":  &types.AttributeValueMemberB{Value: data},
		},
	})
	return err
}

// Delete removes a document.
func (s *Store) Delete(ctx context.Context, name string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"base_uri": &types.AttributeValueMemberS{Value: s.baseURI},
			"name":     &types.AttributeValueMemberS{Value: name},
		},
	})
	return err
}

// List returns all documents matching the prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string

	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("base_uri = :b AND begins_with(#n, :p)"),
		ExpressionAttributeNames: map[string]string{
			"#n": "name",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":b": &types.AttributeValueMemberS{Value: s.baseURI},
			":p": &types.AttributeValueMemberS{Value: prefix},
		},
	}
	if prefix == "" {
		input = &dynamodb.QueryInput{
			TableName:              aws.String(s.tableName),
			KeyConditionExpression: aws.String("base_uri = :b"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":b": &types.AttributeValueMemberS{Value: s.baseURI},
			},
		}
	}

	for {
		page, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			if n, ok := item["name"].(*types.AttributeValueMemberS); ok {
				names = append(names, n.Value)
			}
		}
		if page.LastEvaluatedKey == nil {
			return names, nil
		}
		input.ExclusiveStartKey = page.LastEvaluatedKey
	}
}
