package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aalejandroaraujo/winlog-mcp/internal/guard"
)

var checkFilterCmd = &cobra.Command{
	Use:   "check-filter <expression>",
	Short: "Validate an XPath filter expression without running it",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheckFilter,
}

func init() {
	rootCmd.AddCommand(checkFilterCmd)
}

func runCheckFilter(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	validated, err := guard.ValidateFilter(args[0], cfg.Limits)
	if err != nil {
		return err
	}
	if validated == "" {
		fmt.Println("ok: empty filter (no filter applied)")
		return nil
	}
	fmt.Printf("ok: %s\n", validated)
	return nil
}
