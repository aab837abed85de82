// Command agenthost runs a grid hosting node: an HTTP endpoint that accepts
// envelope messages, hosts deployed agents and streams directory events to
// websocket subscribers.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"github.com/hupe1980/agentgrid/directory"
	"github.com/hupe1980/agentgrid/logging"
	"github.com/hupe1980/agentgrid/protocol"
)

// Config is read from the environment under the AGENTHOST prefix.
type Config struct {
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"PORT" default:"8080"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"json"`
	EventBufferSize int           `envconfig:"EVENT_BUFFER_SIZE" default:"64"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

func main() {
	var cfg Config

	rootCmd := &cobra.Command{
		Use:          "agenthost",
		Short:        "Run an AgentGrid hosting node",
		SilenceUsage: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := envconfig.Process("AGENTHOST", &cfg); err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if port, err := cmd.Flags().GetInt("port"); err == nil && cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfg)
		},
	}
	rootCmd.Flags().Int("port", 8080, "listen port (overrides AGENTHOST_PORT)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cfg Config) error {
	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:     logging.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Output:    os.Stdout,
		Component: "agenthost",
	})

	dir := directory.New(func(o *directory.Options) {
		o.EventBufferSize = cfg.EventBufferSize
		o.Logger = logger.WithComponent("directory")
	})

	host := protocol.NewHost(func(o *protocol.HostOptions) {
		o.Serializer = protocol.NewJSONSerializer()
		o.Directory = dir
		o.Logger = logger.WithComponent("host")
	})

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	errCh := make(chan error, 1)
	go func() {
		errCh <- host.Start(addr)
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-done:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return host.Shutdown(ctx)
}
