package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/founderloop/compass/internal/config"
	"github.com/founderloop/compass/internal/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "compass",
		Short: "Context budgeting and prompt assembly for founder helpers",
		Long: `Compass assembles budgeted, persona-aware context for the six
founder helpers and maintains each project's durable memory.`,
		SilenceUsage: true,
	}

	root.AddCommand(ServeCmd())
	root.AddCommand(VersionCmd())
	root.AddCommand(ConfigCmd())
	return root
}

func ServeCmd() *cobra.Command {
	var (
		port        int
		dataDir     string
		tokenBudget int
		quiet       bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the compass HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load()
			if err != nil {
				return err
			}
			if port > 0 {
				c.Port = port
			}
			if dataDir != "" {
				c.DataDir = dataDir
			}
			if tokenBudget > 0 {
				c.TokenBudget = tokenBudget
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				sig := <-sigCh
				fmt.Printf("\nReceived signal: %v - shutting down...\n", sig)
				cancel()
			}()

			return server.Run(ctx, *c, server.ServerOptions{Quiet: quiet})
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP port (overrides config)")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "data directory (overrides config)")
	cmd.Flags().IntVar(&tokenBudget, "token-budget", 0, "context token budget (overrides config)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress request logging")
	return cmd
}

func VersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the compass version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("compass", Version)
		},
	}
}

func ConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load()
			if err != nil {
				return err
			}
			fmt.Printf("port:           %d\n", c.Port)
			fmt.Printf("data_dir:       %s\n", c.DataDir)
			fmt.Printf("token_budget:   %d\n", c.TokenBudget)
			fmt.Printf("retention_days: %d\n", c.RetentionDays)
			fmt.Printf("markers:        %v\n", c.DecisionMarkers)
			fmt.Printf("extractor:      enabled=%v model=%s\n", c.Extractor.Enabled, c.Extractor.Model)
			return nil
		},
	}
}
