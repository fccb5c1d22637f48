package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aalejandroaraujo/winlog-mcp/internal/config"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "winlogmcp",
	Short: "Guarded, read-only access to Windows event log channels",
	Long: `winlogmcp gates access to the Application and System event log
channels: every query passes a channel allowlist, an XPath safe-subset
filter validator, and result/time clamps before the log source is
touched. Returned records can be classified into known crash and
incident patterns with a deterministic severity.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to YAML config file")
}

func loadConfig() (config.Config, error) {
	return config.Load(cfgPath)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
