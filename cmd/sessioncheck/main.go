package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jobradar-hq/jobradar-feedwatch/internal/config"
	"github.com/jobradar-hq/jobradar-feedwatch/internal/feed"
	"github.com/jobradar-hq/jobradar-feedwatch/internal/logger"
	"github.com/jobradar-hq/jobradar-feedwatch/internal/registry"
	"github.com/jobradar-hq/jobradar-feedwatch/internal/session"
	"github.com/jobradar-hq/jobradar-feedwatch/pkg/httpclient"
)

// sessioncheck is a one-shot credential probe: it acquires the configured
// session credential, connects, and verifies the provider authorizes it.
// Exit code 0 means the watcher can run with this configuration.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "session check failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpClient := httpclient.NewRestyClient(cfg.HTTPTimeout)
	reg := registry.NewClient(httpClient, cfg.ConfigServiceURL, cfg.ConfigServiceToken, cfg.SourcesFile, log)

	dial := func(credential string) (feed.Client, error) {
		return feed.NewGateway(cfg.GatewayURL, cfg.APIID, cfg.APIHash, credential, httpClient, cfg.HTTPTimeout)
	}
	sessions := session.NewManager(reg, cfg.SessionSecretKey, cfg.SessionCredential, dial, nil, log)
	defer sessions.Close()

	client, err := sessions.Ensure(ctx)
	if err != nil {
		return fmt.Errorf("ensure session: %w", err)
	}

	principal, err := client.Authorized(ctx)
	if err != nil {
		return fmt.Errorf("verify authorization: %w", err)
	}

	fmt.Printf("session authorized as %s\n", principal)
	return nil
}
