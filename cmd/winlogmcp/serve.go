package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aalejandroaraujo/winlog-mcp/internal/audit"
	"github.com/aalejandroaraujo/winlog-mcp/internal/forward"
	"github.com/aalejandroaraujo/winlog-mcp/internal/query"
	"github.com/aalejandroaraujo/winlog-mcp/internal/server"
	"github.com/aalejandroaraujo/winlog-mcp/internal/source"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.ListenAddr = serveAddr
	}

	trail, err := audit.Open(cfg.AuditPath)
	if err != nil {
		return err
	}
	defer trail.Close()

	src := source.NewPowerShellSource()
	orch := query.NewOrchestrator(cfg.Limits, src, trail)

	var forwarder server.SignalForwarder
	if len(cfg.KafkaBrokers) > 0 {
		kf := forward.NewKafkaForwarder(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kf.Close()
		forwarder = kf
		log.Printf("Forwarding incident signals to %v topic %q", cfg.KafkaBrokers, cfg.KafkaTopic)
	}

	srv := server.NewServer(orch, src, cfg.Limits, forwarder)

	go func() {
		log.Printf("Listening on %s", cfg.ListenAddr)
		if err := srv.Start(cfg.ListenAddr); err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Printf("Received signal: %v. Shutting down...", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("winlogmcp exited gracefully.")
	return nil
}
