package di

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"silo-planner/application/commands"
	"silo-planner/application/commands/bus"
	commands_handlers "silo-planner/application/commands/handlers"
	"silo-planner/application/ports"
	"silo-planner/application/queries"
	querybus "silo-planner/application/queries/bus"
	queries_handlers "silo-planner/application/queries/handlers"
	"silo-planner/infrastructure/config"
	"silo-planner/infrastructure/github"
	"silo-planner/infrastructure/jsonbin"
	"silo-planner/infrastructure/messaging/eventbridge"
	"silo-planner/infrastructure/persistence/dynamodb"
	"silo-planner/infrastructure/persistence/memory"
	"silo-planner/infrastructure/resilience"
	"silo-planner/interfaces/http/rest"
	"silo-planner/interfaces/http/rest/middleware"
	"silo-planner/pkg/observability"
	"silo-planner/pkg/ratelimit"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const serviceName = "silo-planner"

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}

	if cfg.LogLevel != "" {
		level, err := zap.ParseAtomicLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
		}
		zcfg.Level = level
	}

	return zcfg.Build(zap.Fields(zap.String("service", serviceName)))
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideTracer creates the X-Ray tracer; disabled unless ENABLE_TRACING is set
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer(serviceName, cfg.EnableTracing)
}

// ProvideHTTPClient creates the client used for GitHub and JSONBin calls
func ProvideHTTPClient(cfg *config.Config, tracer *observability.Tracer) *http.Client {
	return tracer.HTTPClient(&http.Client{Timeout: cfg.HTTPTimeout})
}

// Metrics bundles the recorders for one runtime.
// In Lambda the business metrics go to CloudWatch and nothing is scraped.
type Metrics struct {
	Business   ports.Metrics
	Queries    querybus.Metrics
	HTTP       middleware.HTTPObserver
	Handler    http.Handler
	CloudWatch *observability.CloudWatchMetrics
}

// ProvideMetrics picks Prometheus for the server and CloudWatch for Lambda
func ProvideMetrics(cfg *config.Config, client *awscloudwatch.Client) *Metrics {
	if cfg.IsLambda {
		var cwClient observability.CloudWatchClient
		if cfg.EnableMetrics && client != nil {
			cwClient = client
		}
		cw := observability.NewCloudWatchMetrics(fmt.Sprintf("SiloPlanner/%s", cfg.Environment), cwClient)
		return &Metrics{Business: cw, Queries: cw, CloudWatch: cw}
	}

	collector := observability.NewCollector("silo_planner")
	m := &Metrics{Business: collector, Queries: collector, HTTP: collector}
	if cfg.EnableMetrics {
		m.Handler = collector.Handler()
	}
	return m
}

func breakerConfig(cfg *config.Config) resilience.BreakerConfig {
	return resilience.BreakerConfig{
		MaxFailures:   uint32(cfg.BreakerMaxFailures),
		OpenTimeout:   cfg.BreakerOpenTimeout,
		HalfOpenCalls: uint32(cfg.BreakerHalfOpenCalls),
	}
}

// ProvideCommentStore creates the configured comment store.
// Remote stores sit behind a circuit breaker.
func ProvideCommentStore(cfg *config.Config, httpClient *http.Client, metrics *Metrics, logger *zap.Logger) (ports.CommentStore, error) {
	switch cfg.CommentsBackend {
	case config.BackendMemory:
		logger.Warn("Using in-memory comment store; comments are lost on restart")
		return memory.NewCommentStore(), nil
	case config.BackendGitHub:
		store, err := github.NewCommentStore(httpClient, github.Config{
			Token:   cfg.GitHubToken,
			Owner:   cfg.GitHubOwner,
			Repo:    cfg.GitHubRepo,
			Label:   cfg.GitHubLabel,
			BaseURL: cfg.GitHubAPIURL,
		}, logger.Named("github"))
		if err != nil {
			return nil, err
		}
		return resilience.NewCommentStore(store, "GitHub API", breakerConfig(cfg), metrics.Business, logger), nil
	default:
		return nil, fmt.Errorf("unknown comments backend %q", cfg.CommentsBackend)
	}
}

// ProvideRoadmapStore creates the configured roadmap store
func ProvideRoadmapStore(
	cfg *config.Config,
	httpClient *http.Client,
	client *awsdynamodb.Client,
	metrics *Metrics,
	logger *zap.Logger,
) (ports.RoadmapStore, error) {
	switch cfg.RoadmapBackend {
	case config.BackendMemory:
		logger.Warn("Using in-memory roadmap store; the roadmap is lost on restart")
		return memory.NewRoadmapStore(nil), nil
	case config.BackendJSONBin:
		store := jsonbin.NewRoadmapStore(httpClient, jsonbin.Config{
			APIKey:  cfg.JSONBinAPIKey,
			BinID:   cfg.JSONBinBinID,
			BaseURL: cfg.JSONBinURL,
		}, logger.Named("jsonbin"))
		return resilience.NewRoadmapStore(store, "JSONBin", breakerConfig(cfg), metrics.Business, logger), nil
	case config.BackendDynamoDB:
		repo := dynamodb.NewRoadmapRepository(client, cfg.TableName, cfg.RoadmapDocumentID, logger.Named("dynamodb"))
		return resilience.NewRoadmapStore(repo, "DynamoDB", breakerConfig(cfg), metrics.Business, logger), nil
	default:
		return nil, fmt.Errorf("unknown roadmap backend %q", cfg.RoadmapBackend)
	}
}

// ProvideEventPublisher sends domain events to EventBridge, or to the log in development
func ProvideEventPublisher(cfg *config.Config, client *awseventbridge.Client, logger *zap.Logger) ports.EventPublisher {
	if cfg.IsDevelopment() || cfg.EventBusName == "" {
		return eventbridge.NewLogPublisher(logger)
	}
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

// ProvideRedisClient connects to REDIS_URL. It returns nil when Redis is not configured.
func ProvideRedisClient(cfg *config.Config, logger *zap.Logger) (*redis.Client, func(), error) {
	if cfg.RedisURL == "" {
		return nil, func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}

	cleanup := func() {
		if err := client.Close(); err != nil {
			logger.Warn("Failed to close redis client", zap.Error(err))
		}
	}
	return client, cleanup, nil
}

// ProvideRateLimiter shares the write budget through Redis when available
func ProvideRateLimiter(cfg *config.Config, client *redis.Client) ratelimit.RateLimiter {
	if cfg.WriteRateLimit <= 0 {
		return nil
	}
	if client != nil {
		return ratelimit.NewRedisLimiter(client, cfg.WriteRateLimit, cfg.WriteRateLimitWindow, "writes")
	}
	return ratelimit.NewSlidingWindowLimiter(cfg.WriteRateLimit, cfg.WriteRateLimitWindow)
}

// CommandHandlerAdapter adapts specific command handlers to the generic interface
type CommandHandlerAdapter struct {
	handler func(context.Context, bus.Command) (interface{}, error)
}

func (a *CommandHandlerAdapter) Handle(ctx context.Context, cmd bus.Command) (interface{}, error) {
	return a.handler(ctx, cmd)
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(
	cfg *config.Config,
	comments ports.CommentStore,
	roadmaps ports.RoadmapStore,
	publisher ports.EventPublisher,
	metrics *Metrics,
	logger *zap.Logger,
) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus(
		bus.RecoveryMiddleware(),
		bus.LoggingMiddleware(&zapLoggerAdapter{logger}),
	)

	addCommentHandler := commands_handlers.NewAddCommentHandler(comments, publisher, metrics.Business, logger)
	if err := commandBus.Register(commands.AddCommentCommand{}, &CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) (interface{}, error) {
			addCmd, ok := cmd.(commands.AddCommentCommand)
			if !ok {
				return nil, fmt.Errorf("invalid command type")
			}
			return addCommentHandler.Handle(ctx, addCmd)
		},
	}); err != nil {
		return nil, err
	}

	saveRoadmapHandler := commands_handlers.NewSaveRoadmapHandler(roadmaps, publisher, metrics.Business, cfg.RoadmapDocumentID, logger)
	if err := commandBus.Register(commands.SaveRoadmapCommand{}, &CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) (interface{}, error) {
			saveCmd, ok := cmd.(commands.SaveRoadmapCommand)
			if !ok {
				return nil, fmt.Errorf("invalid command type")
			}
			return saveRoadmapHandler.Handle(ctx, saveCmd)
		},
	}); err != nil {
		return nil, err
	}

	return commandBus, nil
}

// QueryHandlerAdapter adapts specific query handlers to the generic interface
type QueryHandlerAdapter struct {
	handler func(context.Context, querybus.Query) (interface{}, error)
}

func (a *QueryHandlerAdapter) Handle(ctx context.Context, query querybus.Query) (interface{}, error) {
	return a.handler(ctx, query)
}

// ProvideQueryBus creates a query bus with registered handlers
func ProvideQueryBus(
	comments ports.CommentStore,
	roadmaps ports.RoadmapStore,
	metrics *Metrics,
	logger *zap.Logger,
) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus().WithMetrics(metrics.Queries)

	listCommentsHandler := queries_handlers.NewListCommentsHandler(comments, logger)
	if err := queryBus.Register(queries.ListCommentsQuery{}, &QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			listQuery, ok := query.(queries.ListCommentsQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return listCommentsHandler.Handle(ctx, listQuery)
		},
	}); err != nil {
		return nil, err
	}

	loadRoadmapHandler := queries_handlers.NewLoadRoadmapHandler(roadmaps)
	if err := queryBus.Register(queries.LoadRoadmapQuery{}, &QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			loadQuery, ok := query.(queries.LoadRoadmapQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return loadRoadmapHandler.Handle(ctx, loadQuery)
		},
	}); err != nil {
		return nil, err
	}

	return queryBus, nil
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	cfg *config.Config,
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	limiter ratelimit.RateLimiter,
	metrics *Metrics,
	tracer *observability.Tracer,
	redisClient *redis.Client,
	logger *zap.Logger,
) *rest.Router {
	checks := map[string]rest.ReadinessCheck{}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}

	return rest.NewRouter(commandBus, queryBus, limiter, metrics.HTTP, tracer, rest.RouterConfig{
		EnableCORS:      cfg.EnableCORS,
		CORSOrigins:     cfg.CORSOrigins,
		WriteLimit:      cfg.WriteRateLimit,
		WriteWindow:     cfg.WriteRateLimitWindow,
		Debug:           cfg.IsDevelopment(),
		MetricsHandler:  metrics.Handler,
		ReadinessChecks: checks,
	}, logger)
}

// zapLoggerAdapter adapts zap.Logger to the bus.Logger interface
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, fields ...interface{}) {
	a.logger.Info(msg, a.fieldsToZap(fields...)...)
}

func (a *zapLoggerAdapter) Error(msg string, fields ...interface{}) {
	a.logger.Error(msg, a.fieldsToZap(fields...)...)
}

func (a *zapLoggerAdapter) fieldsToZap(fields ...interface{}) []zap.Field {
	var zapFields []zap.Field
	for i := 0; i < len(fields); i += 2 {
		if i+1 < len(fields) {
			key, _ := fields[i].(string)
			zapFields = append(zapFields, zap.Any(key, fields[i+1]))
		}
	}
	return zapFields
}
