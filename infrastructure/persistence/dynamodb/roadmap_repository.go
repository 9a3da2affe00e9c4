package dynamodb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"silo-planner/domain/core/aggregates"
	appErrors "silo-planner/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

const storeName = "DynamoDB"

// Client is the subset of the DynamoDB API the repository uses
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// RoadmapRepository stores the roadmap tree as a single versioned item
type RoadmapRepository struct {
	client     Client
	tableName  string
	documentID string
	logger     *zap.Logger
	now        func() time.Time
}

// NewRoadmapRepository creates a new RoadmapRepository
func NewRoadmapRepository(client Client, tableName, documentID string, logger *zap.Logger) *RoadmapRepository {
	return &RoadmapRepository{
		client:     client,
		tableName:  tableName,
		documentID: documentID,
		logger:     logger,
		now:        time.Now,
	}
}

// roadmapItem represents the DynamoDB item structure for the roadmap document
type roadmapItem struct {
	PK              string `dynamodbav:"PK"`
	SK              string `dynamodbav:"SK"`
	EntityType      string `dynamodbav:"EntityType"`
	Document        string `dynamodbav:"Document"`
	PathCount       int    `dynamodbav:"PathCount"`
	InitiativeCount int    `dynamodbav:"InitiativeCount"`
	ModuleCount     int    `dynamodbav:"ModuleCount"`
	UpdatedAt       string `dynamodbav:"UpdatedAt"`
	Version         int    `dynamodbav:"Version"`
}

// SaveReceipt is returned to callers after a successful write
type SaveReceipt struct {
	DocumentID string `json:"documentId"`
	Version    int    `json:"version"`
	UpdatedAt  string `json:"updatedAt"`
}

func (r *RoadmapRepository) key() map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("ROADMAP#%s", r.documentID)},
		"SK": &types.AttributeValueMemberS{Value: "CURRENT"},
	}
}

// Load reads the roadmap document. A missing item is an empty roadmap.
func (r *RoadmapRepository) Load(ctx context.Context) (*aggregates.Roadmap, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            r.key(),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, remoteError(err)
	}
	if len(result.Item) == 0 {
		r.logger.Debug("Roadmap item not found", zap.String("documentID", r.documentID))
		return aggregates.NewRoadmap(), nil
	}

	var item roadmapItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, appErrors.NewRemoteStoreError(storeName, 0, "malformed roadmap item", err)
	}

	var roadmap aggregates.Roadmap
	if err := json.Unmarshal([]byte(item.Document), &roadmap); err != nil {
		return nil, appErrors.NewRemoteStoreError(storeName, 0, "malformed roadmap document", err)
	}

	r.logger.Debug("Retrieved roadmap from DynamoDB",
		zap.String("documentID", r.documentID),
		zap.Int("version", item.Version),
	)
	return &roadmap, nil
}

// Save overwrites the document and bumps its version atomically
func (r *RoadmapRepository) Save(ctx context.Context, roadmap *aggregates.Roadmap) (json.RawMessage, error) {
	document, err := json.Marshal(roadmap)
	if err != nil {
		return nil, appErrors.NewValidationError("roadmap cannot be encoded").WithCause(err)
	}
	paths, initiatives, modules := roadmap.Counts()
	updatedAt := r.now().UTC().Format(time.RFC3339)

	update := expression.Set(expression.Name("Document"), expression.Value(string(document))).
		Set(expression.Name("EntityType"), expression.Value("ROADMAP")).
		Set(expression.Name("PathCount"), expression.Value(paths)).
		Set(expression.Name("InitiativeCount"), expression.Value(initiatives)).
		Set(expression.Name("ModuleCount"), expression.Value(modules)).
		Set(expression.Name("UpdatedAt"), expression.Value(updatedAt)).
		Add(expression.Name("Version"), expression.Value(1))

	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return nil, appErrors.NewInternalError("build roadmap update").WithCause(err)
	}

	result, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       r.key(),
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueUpdatedNew,
	})
	if err != nil {
		r.logger.Error("Failed to save roadmap to DynamoDB",
			zap.Error(err),
			zap.String("documentID", r.documentID),
		)
		return nil, remoteError(err)
	}

	var updated roadmapItem
	if err := attributevalue.UnmarshalMap(result.Attributes, &updated); err != nil {
		return nil, appErrors.NewRemoteStoreError(storeName, 0, "malformed update result", err)
	}

	r.logger.Info("Saved roadmap to DynamoDB",
		zap.String("documentID", r.documentID),
		zap.Int("version", updated.Version),
		zap.Int("modules", modules),
	)

	receipt, err := json.Marshal(SaveReceipt{DocumentID: r.documentID, Version: updated.Version, UpdatedAt: updatedAt})
	if err != nil {
		return nil, appErrors.NewInternalError("encode save receipt").WithCause(err)
	}
	return receipt, nil
}

func remoteError(err error) error {
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		return appErrors.NewRemoteStoreError(storeName, respErr.HTTPStatusCode(), "", err)
	}
	return appErrors.NewRemoteStoreError(storeName, 0, "", err)
}
