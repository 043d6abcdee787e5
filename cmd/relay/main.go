// Command relay is the thin process entrypoint (spec.md §5 "Shared-resource
// policy"): it resolves configuration, constructs every process-wide
// singleton in dependency order, and tears them down in reverse order on
// shutdown. Transport wiring (HTTP/WS framing) is out of scope per
// spec.md §1; this binary only proves the singletons start and stop
// cleanly.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	hedera "github.com/hashgraph/hedera-sdk-go/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/cache"
	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/config"
	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/dispatch"
	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/filters"
	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/hbarlimit"
	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/mirrornode"
	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/ratelimit"
	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/sdkclient"
	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/sharedstore"
	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/subscription"
	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/telemetry"
	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/translation/account"
	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/translation/block"
	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/translation/contract"
	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/translation/debug"
	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/translation/fee"
)

func main() {
	if _, err := maxprocs.Set(); err != nil {
		fmt.Fprintln(os.Stderr, "relay: maxprocs:", err)
	}

	app := &cli.App{
		Name:  "relay",
		Usage: "Ethereum JSON-RPC relay for Hedera networks",
		Action: func(*cli.Context) error {
			return run()
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "relay:", err)
		os.Exit(1)
	}
}

// singletons holds every process-wide component constructed at startup,
// torn down in reverse order on shutdown (spec.md §5).
type singletons struct {
	registry     *config.Registry
	metrics      *telemetry.Metrics
	shared       sharedstore.Store
	cacheSvc     *cache.Service
	rateLimit    ratelimit.Store
	mirror       *mirrornode.Client
	hederaClient *hedera.Client
	sdkClient    *sdkclient.Client
	hbarSvc      *hbarlimit.Service
	filterSvc    *filters.Service
	subMgr       *subscription.Manager
	dispatcher   *dispatch.Dispatcher
}

func run() error {
	registry, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	s := &singletons{registry: registry}

	logger := telemetry.NewLogger(telemetry.LoggerConfig{Verbose: false})
	reg := prometheus.NewRegistry()
	s.metrics = telemetry.NewMetrics(reg)

	if registry.Bool("SHARED_CACHE_ENABLED") {
		redisStore, err := sharedstore.NewRedisStore(registry.String("REDIS_URL"))
		if err != nil {
			return fmt.Errorf("construct redis store: %w", err)
		}
		s.shared = redisStore
	}
	s.cacheSvc = cache.New(10_000, time.Duration(registry.Int64("CACHE_TTL"))*time.Millisecond, s.shared, s.metrics)

	if registry.Bool("RATE_LIMIT_DISABLED") {
		s.rateLimit = nil
	} else if registry.String("IP_RATE_LIMIT_STORE") == "shared" && s.shared != nil {
		s.rateLimit = ratelimit.NewSharedStoreBacked(s.shared)
	} else {
		s.rateLimit = ratelimit.NewInProcessStore()
	}

	s.mirror = mirrornode.New(registry.String("MIRROR_NODE_URL"), 10*time.Second, logger, s.metrics)

	if !registry.Bool("READ_ONLY") {
		s.hederaClient, err = newHederaClient(registry)
		if err != nil {
			return fmt.Errorf("construct hedera client: %w", err)
		}
		s.hederaClient.SetMaxExecutionTime(time.Duration(registry.Int64("CONSENSUS_MAX_EXECUTION_TIME")) * time.Millisecond)

		operatorID, _ := hedera.AccountIDFromString(registry.String("OPERATOR_ID_MAIN"))
		executor := sdkclient.NewHederaExecutor(s.hederaClient, operatorID, nil)
		s.sdkClient = sdkclient.New(executor, sdkclient.EventSinkFunc(func(sdkclient.Event) {}), logger)
	}

	s.hbarSvc = hbarlimit.New(func(string, string) *hbarlimit.Plan { return nil }, s.shared)

	blockSvc := block.New(s.mirror)
	_ = account.New(s.mirror, blockSvc)
	_ = contract.New(s.mirror, blockSvc, uint64(registry.Int64("MAX_GAS_PER_SEC")), "")
	_ = fee.New(s.mirror, uint64(registry.Int64("FEE_HISTORY_MAX_RESULTS")), registry.Bool("ETH_FEE_HISTORY_FIXED"))
	_ = debug.New(s.mirror)

	s.filterSvc = filters.New(registry.Bool("FILTER_API_ENABLED"), 5*time.Minute, blockSvc, s.mirror)

	s.subMgr = subscription.New(nil, time.Duration(registry.Int64("WS_POLLING_INTERVAL"))*time.Millisecond, 25)

	s.dispatcher = dispatch.New(registry.Bool("READ_ONLY"), s.rateLimit, s.cacheSvc)
	// Method registration (namespace_method → handler) happens in the
	// transport adapter that owns the translation services above; out of
	// scope here per spec.md §1.

	logger.Info("relay singletons constructed", "mode", registry.Mode())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	teardown(s, logger)
	return nil
}

func newHederaClient(registry *config.Registry) (*hedera.Client, error) {
	var client *hedera.Client
	switch registry.String("HEDERA_NETWORK") {
	case "mainnet":
		client = hedera.ClientForMainnet()
	case "previewnet":
		client = hedera.ClientForPreviewnet()
	default:
		client = hedera.ClientForTestnet()
	}

	operatorID, err := hedera.AccountIDFromString(registry.String("OPERATOR_ID_MAIN"))
	if err != nil {
		return nil, fmt.Errorf("parse OPERATOR_ID_MAIN: %w", err)
	}
	operatorKey, err := hedera.PrivateKeyFromString(registry.String("OPERATOR_KEY_MAIN"))
	if err != nil {
		return nil, fmt.Errorf("parse OPERATOR_KEY_MAIN: %w", err)
	}
	client.SetOperator(operatorID, operatorKey)
	return client, nil
}

// teardown releases singletons in the reverse order they were constructed
// (spec.md §5: "All are initialized at startup and torn down in reverse
// order; no lazy re-initialization after teardown").
func teardown(s *singletons, logger interface{ Info(string, ...any) }) {
	if s.hederaClient != nil {
		s.hederaClient.Close()
	}
	if closer, ok := s.shared.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	logger.Info("relay shutdown complete")
}
