// Package ddb implements the repository interface using AWS DynamoDB.
// This is the only layer that should have knowledge of DynamoDB specifics.
package ddb

import (
	"context"
	"fmt"
	"time"

	"foodatlas-backend/internal/domain"
	"foodatlas-backend/internal/repository"
	appErrors "foodatlas-backend/pkg/errors" // ALIAS for our custom errors

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const rootParentToken = "ROOT"

// ddbVendor is the stored shape of a vendor link.
type ddbVendor struct {
	Name string `dynamodbav:"Name"`
	URL  string `dynamodbav:"URL"`
}

// ddbNode represents the structure of a taxonomy node item in DynamoDB.
// GSI1 indexes the identity triple (city, parent, name) and doubles as the
// child enumeration index; GSI2 indexes item names for exact-match search
// and is only populated on item nodes.
type ddbNode struct {
	PK        string      `dynamodbav:"PK"`
	SK        string      `dynamodbav:"SK"`
	NodeID    string      `dynamodbav:"NodeID"`
	Name      string      `dynamodbav:"Name"`
	Kind      string      `dynamodbav:"Kind"`
	ParentID  string      `dynamodbav:"ParentID"` // rootParentToken for roots
	City      string      `dynamodbav:"City"`
	Path      string      `dynamodbav:"Path"`
	Vendors   []ddbVendor `dynamodbav:"Vendors,omitempty"`
	Source    string      `dynamodbav:"Source"`
	Timestamp string      `dynamodbav:"Timestamp"`
	GSI1PK    string      `dynamodbav:"GSI1PK"`
	GSI1SK    string      `dynamodbav:"GSI1SK"`
	GSI2PK    string      `dynamodbav:"GSI2PK,omitempty"`
	GSI2SK    string      `dynamodbav:"GSI2SK,omitempty"`
}

// ddbRepository is the concrete implementation for DynamoDB.
type ddbRepository struct {
	dbClient          *dynamodb.Client
	tableName         string
	identityIndexName string
	itemNameIndexName string
}

// NewRepository creates a new instance of the DynamoDB repository.
func NewRepository(dbClient *dynamodb.Client, tableName, identityIndexName, itemNameIndexName string) repository.NodeRepository {
	return &ddbRepository{
		dbClient:          dbClient,
		tableName:         tableName,
		identityIndexName: identityIndexName,
		itemNameIndexName: itemNameIndexName,
	}
}

func parentToken(parentID *string) string {
	if parentID == nil {
		return rootParentToken
	}
	return *parentID
}

func identityPartition(city string, parentID *string) string {
	return fmt.Sprintf("CITY#%s#PARENT#%s", city, parentToken(parentID))
}

func itemNamePartition(city, name string) string {
	return fmt.Sprintf("CITY#%s#ITEM#%s", city, name)
}

// CreateNode saves a taxonomy node.
//
// This is a plain PutItem: the ensure pattern above it is read-then-write,
// so two racing ensures can both land and leave a duplicate identity triple
// until the sweep removes one. A ConditionExpression on attribute_not_exists
// over an identity-keyed item would close that window if strict uniqueness
// is ever required.
func (r *ddbRepository) CreateNode(ctx context.Context, node domain.Node) error {
	item := ddbNode{
		PK:        fmt.Sprintf("NODE#%s", node.ID),
		SK:        "METADATA",
		NodeID:    node.ID,
		Name:      node.Name,
		Kind:      string(node.Kind),
		ParentID:  parentToken(node.ParentID),
		City:      node.City,
		Path:      node.Path,
		Source:    node.Source,
		Timestamp: node.CreatedAt.Format(time.RFC3339),
		GSI1PK:    identityPartition(node.City, node.ParentID),
		GSI1SK:    fmt.Sprintf("NAME#%s", node.Name),
	}
	for _, v := range node.Vendors {
		item.Vendors = append(item.Vendors, ddbVendor{Name: v.Name, URL: v.URL})
	}
	if node.Kind == domain.KindItem {
		item.GSI2PK = itemNamePartition(node.City, node.Name)
		item.GSI2SK = fmt.Sprintf("NODE#%s", node.ID)
	}

	marshaled, err := attributevalue.MarshalMap(item)
	if err != nil {
		return appErrors.Wrap(err, "failed to marshal node item")
	}

	_, err = r.dbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      marshaled,
	})
	if err != nil {
		return appErrors.Wrap(err, "put item failed for taxonomy node")
	}
	return nil
}

// FindNodeByID retrieves a single node's metadata.
func (r *ddbRepository) FindNodeByID(ctx context.Context, id string) (*domain.Node, error) {
	result, err := r.dbClient.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("NODE#%s", id)},
			"SK": &types.AttributeValueMemberS{Value: "METADATA"},
		},
	})
	if err != nil {
		return nil, appErrors.Wrap(err, "failed to get item from dynamodb")
	}
	if result.Item == nil {
		return nil, nil // Not found
	}
	var item ddbNode
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, appErrors.Wrap(err, "failed to unmarshal node item")
	}
	node, err := toDomainNode(item)
	if err != nil {
		return nil, err
	}
	return &node, nil
}

// FindByIdentity does a point query on the identity GSI.
func (r *ddbRepository) FindByIdentity(ctx context.Context, name string, parentID *string, city string) (*domain.Node, error) {
	keyCond := expression.Key("GSI1PK").Equal(expression.Value(identityPartition(city, parentID))).
		And(expression.Key("GSI1SK").Equal(expression.Value(fmt.Sprintf("NAME#%s", name))))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, appErrors.Wrap(err, "failed to build identity query expression")
	}

	result, err := r.dbClient.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(r.identityIndexName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, appErrors.Wrap(err, "identity query failed")
	}
	if len(result.Items) == 0 {
		return nil, nil
	}
	var item ddbNode
	if err := attributevalue.UnmarshalMap(result.Items[0], &item); err != nil {
		return nil, appErrors.Wrap(err, "failed to unmarshal identity query result")
	}
	node, err := toDomainNode(item)
	if err != nil {
		return nil, err
	}
	return &node, nil
}

// FindChildren enumerates the identity GSI partition for a parent.
func (r *ddbRepository) FindChildren(ctx context.Context, query repository.ChildQuery) ([]domain.Node, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	builder := expression.NewBuilder().WithKeyCondition(
		expression.Key("GSI1PK").Equal(expression.Value(identityPartition(query.City, query.ParentID))),
	)
	if query.Kind != "" {
		builder = builder.WithFilter(expression.Name("Kind").Equal(expression.Value(string(query.Kind))))
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, appErrors.Wrap(err, "failed to build children query expression")
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(r.identityIndexName),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	var nodes []domain.Node
	paginator := dynamodb.NewQueryPaginator(r.dbClient, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, "children query page failed")
		}
		for _, raw := range page.Items {
			var item ddbNode
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, appErrors.Wrap(err, "failed to unmarshal child item")
			}
			node, err := toDomainNode(item)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, node)
		}
	}
	return nodes, nil
}

// FindItemByName does a point query on the item-name GSI.
func (r *ddbRepository) FindItemByName(ctx context.Context, name, city string) (*domain.Node, error) {
	keyCond := expression.Key("GSI2PK").Equal(expression.Value(itemNamePartition(city, name)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, appErrors.Wrap(err, "failed to build item name query expression")
	}

	result, err := r.dbClient.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(r.itemNameIndexName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, appErrors.Wrap(err, "item name query failed")
	}
	if len(result.Items) == 0 {
		return nil, nil
	}
	var item ddbNode
	if err := attributevalue.UnmarshalMap(result.Items[0], &item); err != nil {
		return nil, appErrors.Wrap(err, "failed to unmarshal item name query result")
	}
	node, err := toDomainNode(item)
	if err != nil {
		return nil, err
	}
	return &node, nil
}

// ScanNodes streams every taxonomy node to fn. Only the dedup sweep uses
// this; request paths always go through the indexes above.
func (r *ddbRepository) ScanNodes(ctx context.Context, fn func(domain.Node) error) error {
	expr, err := expression.NewBuilder().
		WithFilter(expression.Name("PK").BeginsWith("NODE#")).
		Build()
	if err != nil {
		return appErrors.Wrap(err, "failed to build scan expression")
	}

	input := &dynamodb.ScanInput{
		TableName:                 aws.String(r.tableName),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	paginator := dynamodb.NewScanPaginator(r.dbClient, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return appErrors.Wrap(err, "failed to scan node page")
		}
		for _, raw := range page.Items {
			var item ddbNode
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return appErrors.Wrap(err, "failed to unmarshal scanned node")
			}
			node, err := toDomainNode(item)
			if err != nil {
				return err
			}
			if err := fn(node); err != nil {
				return err
			}
		}
	}
	return nil
}

// DeleteNode removes a node outright.
func (r *ddbRepository) DeleteNode(ctx context.Context, id string) error {
	_, err := r.dbClient.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("NODE#%s", id)},
			"SK": &types.AttributeValueMemberS{Value: "METADATA"},
		},
	})
	if err != nil {
		return appErrors.Wrap(err, "failed to delete node item")
	}
	return nil
}

// toDomainNode converts a stored item back to the domain shape. A bad
// timestamp is an error, not a zero time: the sweep keeps the oldest node
// per identity, so a zero CreatedAt would make a corrupt record win.
func toDomainNode(item ddbNode) (domain.Node, error) {
	createdAt, err := time.Parse(time.RFC3339, item.Timestamp)
	if err != nil {
		return domain.Node{}, appErrors.NewInternal(fmt.Sprintf("node %s has a malformed timestamp %q", item.NodeID, item.Timestamp), err)
	}
	var parentID *string
	if item.ParentID != "" && item.ParentID != rootParentToken {
		parent := item.ParentID
		parentID = &parent
	}
	node := domain.Node{
		ID:        item.NodeID,
		Name:      item.Name,
		Kind:      domain.NodeKind(item.Kind),
		ParentID:  parentID,
		City:      item.City,
		Path:      item.Path,
		Source:    item.Source,
		CreatedAt: createdAt,
	}
	for _, v := range item.Vendors {
		node.Vendors = append(node.Vendors, domain.Vendor{Name: v.Name, URL: v.URL})
	}
	return node, nil
}
