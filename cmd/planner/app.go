package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"silo-planner/application/feedback"
	"silo-planner/application/ports"
	domainconfig "silo-planner/domain/config"
	"silo-planner/infrastructure/config"
	"silo-planner/infrastructure/di"
	"silo-planner/infrastructure/kvstore"
	"silo-planner/interfaces/http/client"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type options struct {
	apiURL      string
	legacyPaths bool
	dataDir     string
	redisURL    string
	name        string
	timeout     time.Duration
	verbose     bool
}

type app struct {
	opts   options
	out    io.Writer
	errOut io.Writer
	now    func() time.Time

	logger   *zap.Logger
	kv       ports.KeyValueStore
	comments ports.CommentStore
	roadmaps ports.RoadmapStore

	openKV     func(opts options, logger *zap.Logger) (ports.KeyValueStore, error)
	openStores func(ctx context.Context, opts options, logger *zap.Logger) (ports.CommentStore, ports.RoadmapStore, error)
}

func newApp(out, errOut io.Writer) *app {
	return &app{
		out:        out,
		errOut:     errOut,
		now:        time.Now,
		openKV:     openKV,
		openStores: openStores,
	}
}

// run builds a fresh command tree, executes it, and releases whatever it opened
func run(a *app, args []string) error {
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	err := root.ExecuteContext(context.Background())
	if closeErr := a.close(); err == nil {
		err = closeErr
	}
	return err
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "planner",
		Short:         "Comment on the silo architecture and edit the roadmap",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.opts.apiURL, "api", os.Getenv("PLANNER_API_URL"), "planner API base URL (env PLANNER_API_URL); empty talks to the stores directly")
	flags.BoolVar(&a.opts.legacyPaths, "legacy-paths", os.Getenv("PLANNER_LEGACY_PATHS") == "true", "use the /.netlify/functions routes")
	flags.StringVar(&a.opts.dataDir, "data-dir", envOr("PLANNER_DATA_DIR", defaultDataDir()), "directory for the local cache (env PLANNER_DATA_DIR)")
	flags.StringVar(&a.opts.redisURL, "redis-url", os.Getenv("PLANNER_REDIS_URL"), "keep the local cache in Redis instead (env PLANNER_REDIS_URL)")
	flags.StringVar(&a.opts.name, "commenter", os.Getenv("PLANNER_NAME"), "comment as this name without saving it (env PLANNER_NAME)")
	flags.DurationVar(&a.opts.timeout, "timeout", 30*time.Second, "limit for remote calls")
	flags.BoolVarP(&a.opts.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		newNameCmd(a),
		newCommentsCmd(a),
		newExportCmd(a),
		newRoadmapCmd(a),
	)
	return root
}

func (a *app) setup() error {
	zcfg := zap.NewDevelopmentConfig()
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	if a.opts.verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := zcfg.Build()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	a.logger = logger

	kv, err := a.openKV(a.opts, logger)
	if err != nil {
		return fmt.Errorf("open local cache: %w", err)
	}
	a.kv = kv
	return nil
}

// stores connects to the remote stores on first use
func (a *app) stores(ctx context.Context) (ports.CommentStore, ports.RoadmapStore, error) {
	if a.comments == nil {
		comments, roadmaps, err := a.openStores(ctx, a.opts, a.logger)
		if err != nil {
			return nil, nil, err
		}
		a.comments, a.roadmaps = comments, roadmaps
	}
	return a.comments, a.roadmaps, nil
}

func (a *app) session(ctx context.Context) (feedback.Session, error) {
	if a.opts.name != "" {
		return feedback.Session{CommenterName: a.opts.name}, nil
	}
	return feedback.LoadSession(ctx, a.kv, domainconfig.DefaultDomainConfig().CommenterCacheKey)
}

func (a *app) close() error {
	var errs []error
	if a.kv != nil {
		errs = append(errs, a.kv.Close())
		a.kv = nil
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return errors.Join(errs...)
}

func openKV(opts options, logger *zap.Logger) (ports.KeyValueStore, error) {
	if opts.redisURL != "" {
		return kvstore.NewRedisStore(opts.redisURL, "silo-planner:")
	}
	return kvstore.OpenBadger(kvstore.BadgerConfig{
		Path:       filepath.Join(opts.dataDir, "cache"),
		SyncWrites: true,
	}, logger)
}

// openStores talks to the planner API when --api is set, otherwise straight
// to the stores named by the server configuration (GITHUB_TOKEN, JSONBIN_API_KEY...)
func openStores(ctx context.Context, opts options, logger *zap.Logger) (ports.CommentStore, ports.RoadmapStore, error) {
	httpClient := &http.Client{Timeout: opts.timeout}

	if opts.apiURL != "" {
		c, err := client.New(httpClient, client.Config{BaseURL: opts.apiURL, LegacyPaths: opts.legacyPaths}, logger.Named("api"))
		if err != nil {
			return nil, nil, err
		}
		return c, c, nil
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	metrics := di.ProvideMetrics(cfg, nil)

	comments, err := di.ProvideCommentStore(cfg, httpClient, metrics, logger)
	if err != nil {
		return nil, nil, err
	}

	var roadmaps ports.RoadmapStore
	if cfg.RoadmapBackend == config.BackendDynamoDB {
		awsCfg, err := di.ProvideAWSConfig(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		roadmaps, err = di.ProvideRoadmapStore(cfg, httpClient, di.ProvideDynamoDBClient(awsCfg), metrics, logger)
		if err != nil {
			return nil, nil, err
		}
	} else {
		roadmaps, err = di.ProvideRoadmapStore(cfg, httpClient, nil, metrics, logger)
		if err != nil {
			return nil, nil, err
		}
	}
	return comments, roadmaps, nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".silo-planner"
	}
	return filepath.Join(home, ".silo-planner")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
