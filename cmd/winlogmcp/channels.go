package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aalejandroaraujo/winlog-mcp/internal/source"
)

var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "List the allowed channels and their status",
	RunE:  runChannels,
}

func init() {
	rootCmd.AddCommand(channelsCmd)
}

func runChannels(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	src := source.NewPowerShellSource()
	for _, ch := range src.Channels() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Limits.QueryTimeout)
		info, err := src.ChannelInfo(ctx, ch)
		cancel()
		if err != nil {
			fmt.Printf("%-12s  disabled  0 records\n", ch)
			continue
		}
		state := "disabled"
		if info.Enabled {
			state = "enabled"
		}
		fmt.Printf("%-12s  %s  %d records\n", info.Name, state, info.RecordCount)
	}
	return nil
}
