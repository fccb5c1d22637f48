package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aalejandroaraujo/winlog-mcp/internal/audit"
)

var auditVerifyCmd = &cobra.Command{
	Use:   "audit-verify <path>",
	Short: "Verify the hash chain of an audit trail segment",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuditVerify,
}

func init() {
	rootCmd.AddCommand(auditVerifyCmd)
}

func runAuditVerify(cmd *cobra.Command, args []string) error {
	n, err := audit.Verify(args[0])
	if err != nil {
		return fmt.Errorf("verified %d entries, then: %w", n, err)
	}
	fmt.Printf("ok: %d entries, chain intact\n", n)
	return nil
}
