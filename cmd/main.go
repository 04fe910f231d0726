package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/pokt-network/poktroll/pkg/polylog"
	"github.com/pokt-network/poktroll/pkg/polylog/polyzero"
	"github.com/redis/go-redis/v9"

	"github.com/wenex-org/platform-gateway/auth"
	"github.com/wenex-org/platform-gateway/authz"
	"github.com/wenex-org/platform-gateway/backend"
	configpkg "github.com/wenex-org/platform-gateway/config"
	"github.com/wenex-org/platform-gateway/extauthz"
	"github.com/wenex-org/platform-gateway/gateway"
	"github.com/wenex-org/platform-gateway/health"
	"github.com/wenex-org/platform-gateway/ratelimit"
	"github.com/wenex-org/platform-gateway/router"
	"github.com/wenex-org/platform-gateway/stream"
)

// defaultConfigPath will be appended to the location of
// the executable to get the full path to the config file.
const defaultConfigPath = "config/.config.yaml"

func main() {
	configPath, err := getConfigPath(defaultConfigPath)
	if err != nil {
		log.Fatalf("failed to get config path: %v", err)
	}

	config, err := configpkg.LoadGatewayConfigFromYAML(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	loggerOpts := []polylog.LoggerOption{
		polyzero.WithLevel(polyzero.ParseLevel(config.Logger.Level)),
	}

	logger := polyzero.NewLogger(loggerOpts...)

	logger.Info().Msgf("Starting platform gateway using config file: %s", configPath)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     config.Redis.Addr,
		Password: config.Redis.Password,
		DB:       config.Redis.DB,
	})

	resolver := getIdentityResolver(logger, config.Auth, redisClient)

	policyClient := &authz.HTTPPolicyClient{
		EvaluateURL:    config.Policy.EvaluateURL,
		RequestTimeout: config.Policy.RequestTimeout,
	}

	policyGate, err := authz.NewPolicyGate(logger, policyClient, config.Policy.DecisionCacheTTL)
	if err != nil {
		log.Fatalf("failed to create policy gate: %v", err)
	}
	defer policyGate.Close()

	counterStore := &ratelimit.RedisCounterStore{Client: redisClient}
	limiter := &ratelimit.Limiter{
		Logger: logger,
		Store:  counterStore,
		Limit:  config.RateLimit.Limit,
		Window: config.RateLimit.Window,
	}

	metricsReporter, err := setupMetricsServer(logger, prometheusMetricsServerAddr)
	if err != nil {
		log.Fatalf("failed to start metrics server: %v", err)
	}

	setupPprofServer(context.TODO(), logger, pprofAddr)

	pipeline := &gateway.Pipeline{
		Logger: logger,

		Resolver: resolver,
		Policy:   policyGate,
		Limiter:  limiter,
		Reporter: metricsReporter,
	}

	routes := gateway.NewRegistry()
	router.RegisterRoutes(routes)

	providers := getBackendProviders()

	// Until all components are ready, the `/healthz` endpoint will return a 503 Service
	// Unavailable status; once all components are ready, it will return a 200 OK status.
	// health check components must implement the health.Check interface
	// to be able to signal they are ready to service requests.
	healthChecker := &health.Checker{
		Logger:     logger,
		Components: []health.Check{counterStore, policyClient},
	}

	authHandler := &extauthz.AuthHandler{
		Logger: logger,

		Pipeline:      pipeline,
		Routes:        routes,
		RouteResolver: &extauthz.PathResolver{Surface: router.ResourceSurface()},
	}
	go func() {
		if err := extauthz.Serve(logger, extAuthzServerAddr, authHandler); err != nil {
			log.Fatalf("failed to start ext_authz server: %v", err)
		}
	}()

	apiRouter := router.NewRouter(router.RouterParams{
		Pipeline:  pipeline,
		Routes:    routes,
		Providers: providers,
		Bridge:    stream.NewBridge(logger),
		Healthz:   healthChecker.HealthzHandler,
		Config:    config.Router,
		Logger:    logger,
	})

	// log.Printf is used here to ensure this info is printed to the console regardless of the log level.
	log.Printf("platform gateway started.\n  Port: %d\n  Policy engine: %s",
		config.Router.Port, config.Policy.EvaluateURL)

	// Start the API router.
	// This will block until the router is stopped.
	if err := apiRouter.Start(); err != nil {
		log.Fatalf("failed to start API router: %v", err)
	}
}

/* -------------------- Gateway Init Helpers -------------------- */

// getIdentityResolver assembles the identity resolver from the auth config:
// JWKS-backed RS256 validation when a JWKS URL is configured, HS256 from a
// shared secret otherwise. Revocation checks go through the shared redis
// instance in both cases.
func getIdentityResolver(logger polylog.Logger, cfg configpkg.AuthConfig, redisClient *redis.Client) *auth.Resolver {
	resolver := &auth.Resolver{
		Logger: logger,

		Issuer:            cfg.Issuer,
		Audience:          cfg.Audience,
		HMACSecret:        []byte(cfg.HMACSecret),
		Revocation:        &auth.RedisRevocationStore{Client: redisClient},
		RevocationTimeout: cfg.RevocationTimeout,
	}
	if cfg.JWKSURL != "" {
		resolver.Keys = &auth.JWKSKeyProvider{JWKSURL: cfg.JWKSURL}
	}
	return resolver
}

// getBackendProviders registers a provider for every resource class in the
// route table. The in-memory provider backs all resources; deployments with
// real backend services swap providers per resource class here.
func getBackendProviders() *backend.Registry {
	providers := backend.NewRegistry()

	providers.Register("auth.authentication", backend.NewMemoryProvider())
	for _, resource := range router.ResourceSurface() {
		providers.Register(resource, backend.NewMemoryProvider())
	}

	return providers
}

// getConfigPath returns the full path to the config file relative to the executable.
//
// Priority for determining config path:
// - If `-config` flag is set, use its value
// - Otherwise, use defaultConfigPath relative to executable directory
func getConfigPath(defaultConfigPath string) (string, error) {
	var configPath string

	// Check for -config flag override
	flag.StringVar(&configPath, "config", "", "override the default config path")
	flag.Parse()
	if configPath != "" {
		return configPath, nil
	}

	// Get executable directory for default path
	exeDir, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %v", err)
	}

	configPath = filepath.Join(filepath.Dir(exeDir), defaultConfigPath)

	return configPath, nil
}
