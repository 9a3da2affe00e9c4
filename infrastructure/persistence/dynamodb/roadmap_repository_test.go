package dynamodb

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"testing"
	"time"

	"silo-planner/domain/core/aggregates"
	appErrors "silo-planner/pkg/errors"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	setClause = regexp.MustCompile(`(#\w+) = (:\w+)`)
	addClause = regexp.MustCompile(`ADD (#\w+) (:\w+)`)
)

// fakeClient keeps a single table in memory and understands SET/ADD updates
type fakeClient struct {
	items map[string]map[string]types.AttributeValue
	err   error
	gets  int
}

func newFakeClient() *fakeClient {
	return &fakeClient{items: make(map[string]map[string]types.AttributeValue)}
}

func itemKey(key map[string]types.AttributeValue) string {
	return key["PK"].(*types.AttributeValueMemberS).Value + "|" + key["SK"].(*types.AttributeValueMemberS).Value
}

func (f *fakeClient) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.gets++
	if f.err != nil {
		return nil, f.err
	}
	return &dynamodb.GetItemOutput{Item: f.items[itemKey(in.Key)]}, nil
}

func (f *fakeClient) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	k := itemKey(in.Key)
	item, ok := f.items[k]
	if !ok {
		item = map[string]types.AttributeValue{"PK": in.Key["PK"], "SK": in.Key["SK"]}
	}

	expr := *in.UpdateExpression
	for _, m := range addClause.FindAllStringSubmatch(expr, -1) {
		name := in.ExpressionAttributeNames[m[1]]
		delta, _ := strconv.Atoi(in.ExpressionAttributeValues[m[2]].(*types.AttributeValueMemberN).Value)
		current := 0
		if existing, ok := item[name].(*types.AttributeValueMemberN); ok {
			current, _ = strconv.Atoi(existing.Value)
		}
		item[name] = &types.AttributeValueMemberN{Value: strconv.Itoa(current + delta)}
	}
	for _, m := range setClause.FindAllStringSubmatch(expr, -1) {
		item[in.ExpressionAttributeNames[m[1]]] = in.ExpressionAttributeValues[m[2]]
	}

	f.items[k] = item
	return &dynamodb.UpdateItemOutput{Attributes: item}, nil
}

func newTestRepository(client Client) *RoadmapRepository {
	repo := NewRoadmapRepository(client, "silo-planner", "silo-roadmap", zap.NewNop())
	repo.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	return repo
}

func TestRoadmapRepository_LoadMissingItem(t *testing.T) {
	repo := newTestRepository(newFakeClient())

	roadmap, err := repo.Load(context.Background())

	require.NoError(t, err)
	assert.True(t, roadmap.IsEmpty())
}

func TestRoadmapRepository_SaveThenLoad(t *testing.T) {
	client := newFakeClient()
	repo := newTestRepository(client)
	ctx := context.Background()

	raw, err := repo.Save(ctx, aggregates.DefaultRoadmap())
	require.NoError(t, err)

	var receipt SaveReceipt
	require.NoError(t, json.Unmarshal(raw, &receipt))
	assert.Equal(t, SaveReceipt{DocumentID: "silo-roadmap", Version: 1, UpdatedAt: "2026-01-01T00:00:00Z"}, receipt)

	raw, err = repo.Save(ctx, aggregates.DefaultRoadmap())
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &receipt))
	assert.Equal(t, 2, receipt.Version)

	stored := client.items["ROADMAP#silo-roadmap|CURRENT"]
	assert.Equal(t, &types.AttributeValueMemberN{Value: "1"}, stored["ModuleCount"])

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, aggregates.DefaultRoadmap().Paths(), loaded.Paths())
}

func TestRoadmapRepository_Errors(t *testing.T) {
	t.Run("service error keeps status", func(t *testing.T) {
		client := newFakeClient()
		client.err = &awshttp.ResponseError{
			ResponseError: &smithyhttp.ResponseError{
				Response: &smithyhttp.Response{Response: &http.Response{StatusCode: http.StatusBadRequest}},
				Err:      errors.New("ValidationException"),
			},
		}

		_, err := newTestRepository(client).Save(context.Background(), aggregates.NewRoadmap())

		require.True(t, appErrors.IsRemoteStore(err))
		assert.Equal(t, http.StatusBadRequest, appErrors.UpstreamStatus(err))
		assert.Equal(t, "DynamoDB error: 400", appErrors.GetAppError(err).Message)
	})

	t.Run("network error", func(t *testing.T) {
		client := newFakeClient()
		client.err = errors.New("dial tcp: connection refused")

		_, err := newTestRepository(client).Load(context.Background())

		require.True(t, appErrors.IsRemoteStore(err))
		assert.Zero(t, appErrors.UpstreamStatus(err))
	})

	t.Run("corrupt document", func(t *testing.T) {
		client := newFakeClient()
		client.items["ROADMAP#silo-roadmap|CURRENT"] = map[string]types.AttributeValue{
			"PK":       &types.AttributeValueMemberS{Value: "ROADMAP#silo-roadmap"},
			"SK":       &types.AttributeValueMemberS{Value: "CURRENT"},
			"Document": &types.AttributeValueMemberS{Value: "{not json"},
		}

		_, err := newTestRepository(client).Load(context.Background())

		assert.True(t, appErrors.IsRemoteStore(err))
	})
}
