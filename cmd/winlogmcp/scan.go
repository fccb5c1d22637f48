package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aalejandroaraujo/winlog-mcp/internal/audit"
	"github.com/aalejandroaraujo/winlog-mcp/internal/guard"
	"github.com/aalejandroaraujo/winlog-mcp/internal/query"
	"github.com/aalejandroaraujo/winlog-mcp/internal/source"
)

var (
	scanHours int
	scanJSON  bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the allowed channels for incident signals",
	RunE:  runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().IntVar(&scanHours, "hours", 24, "Lookback window in hours")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "Emit signals as JSON")
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	trail, err := audit.Open(cfg.AuditPath)
	if err != nil {
		return err
	}
	defer trail.Close()

	src := source.NewPowerShellSource()
	orch := query.NewOrchestrator(cfg.Limits, src, trail)

	signals, err := orch.ScanForIncidents(context.Background(), guard.AllowedChannels(), scanHours, time.Now())
	if err != nil {
		return err
	}

	if scanJSON {
		data, err := json.MarshalIndent(signals, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	if len(signals) == 0 {
		fmt.Printf("No incident signals in the last %d hours.\n", scanHours)
		return nil
	}
	for _, sig := range signals {
		fmt.Printf("%s  %-8s  %-15s  %s/%d  %s",
			sig.Record.TimeCreated.Format(time.RFC3339),
			sig.Severity, sig.Pattern, sig.Record.Provider, sig.Record.EventID,
			firstLine(sig.Record.Message))
		if sig.FaultingApp != "" {
			fmt.Printf("  [%s]", sig.FaultingApp)
		}
		fmt.Println()
	}
	return nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' || r == '\r' {
			return s[:i]
		}
	}
	return s
}
