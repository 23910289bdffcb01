package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/multichat/multichat-go/internal/config"
	"github.com/multichat/multichat-go/internal/guardrails"
	"github.com/multichat/multichat-go/internal/logging"
	"github.com/multichat/multichat-go/internal/observability"
	"github.com/multichat/multichat-go/internal/provider"
	"github.com/multichat/multichat-go/internal/routing"
	"github.com/multichat/multichat-go/internal/server"
	"github.com/multichat/multichat-go/internal/session"
	"github.com/multichat/multichat-go/internal/transport"
)

func main() {
	root := &cobra.Command{
		Use:           "multichat",
		Short:         "Chat with hosted language models",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), chatCmd(), providersCmd(), echoUpstreamCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	// a second signal after the first one terminates the process
	go func() {
		<-ctx.Done()
		stop()
	}()
	if err := root.ExecuteContext(ctx); err != nil {
		log.Fatalf("multichat: %v", err)
	}
}

type app struct {
	cfg     *config.Config
	log     *zap.Logger
	session *session.Session
	close   func()
}

// bootstrap loads configuration and wires one session. Configuration
// errors here are fatal to the command.
func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	reg, err := routing.Load(cfg.ModelsPath)
	if err != nil {
		return nil, fmt.Errorf("load providers: %w", err)
	}

	closers := []func(){func() { _ = logger.Sync() }}
	if cfg.TelemetryURL != "" {
		tp, err := observability.Setup(ctx, cfg.TelemetryURL, cfg.TelemetryInsecure)
		if err != nil {
			return nil, fmt.Errorf("init telemetry: %w", err)
		}
		closers = append(closers, func() { _ = tp.Shutdown(context.Background()) })
	}

	creds := provider.Credentials{
		ChatCompletions:   cfg.Credentials.ChatCompletions,
		AnthropicMessages: cfg.Credentials.AnthropicMessages,
	}
	sess := session.New(reg, transport.New(cfg.Timeout, logger), creds,
		session.WithGuardrails(guardrails.New(cfg.BannedWords...)),
		session.WithLogger(logger),
	)
	return &app{
		cfg:     cfg,
		log:     logger,
		session: sess,
		close: func() {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		},
	}, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat session over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()
			return server.New(a.cfg, a.session, a.log).Start(cmd.Context())
		},
	}
}

func providersCmd() *cobra.Command {
	var modelsPath string
	cmd := &cobra.Command{
		Use:   "providers",
		Short: "List configured providers and their models",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := routing.Load(modelsPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, p := range reg.Providers() {
				fmt.Fprintf(out, "%s\t%s\n", p.Label, p.Family.Name())
				for _, m := range p.Models {
					fmt.Fprintf(out, "  %s\n", m)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&modelsPath, "models", "", "provider table file (defaults to the built-in table)")
	return cmd
}
