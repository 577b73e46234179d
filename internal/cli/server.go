package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ai-search/internal/config"
	"ai-search/internal/jobs"
	"ai-search/internal/server"

	"github.com/spf13/cobra"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the HTTP API server",
	Long:  `Start the HTTP server exposing /search, /contents, /findsimilar, and /crawl.`,
	RunE:  runServer,
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.EmbeddingAPIKey == "" {
		return fmt.Errorf("EMBEDDING_API_KEY is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc, cr, st, err := buildService(ctx, cfg)
	if err != nil {
		return err
	}
	defer cr.Close()
	defer st.Close()

	pool := jobs.NewPool(ctx, svc, cfg.JobWorkers, cfg.JobQueue)
	defer pool.Close()

	srv := server.New(server.Config{Host: cfg.ServerHost, Port: cfg.ServerPort}, svc, pool)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		cancel()
	}()

	fmt.Printf("Server listening on %s:%d\n", cfg.ServerHost, cfg.ServerPort)
	return srv.Start(ctx)
}
