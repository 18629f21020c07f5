package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// version can be overridden at build time via:
	// go build -ldflags "-X github.com/deskhand/deskhand/internal/cli.version=1.2.3"
	version = "0.3.0"
	logo    = "\n" +
		"  ____            _    _   _                 _\n" +
		" |  _ \\  ___  ___| | _| | | | __ _ _ __   __| |\n" +
		" | | | |/ _ \\/ __| |/ / |_| |/ _` | '_ \\ / _` |\n" +
		" | |_| |  __/\\__ \\   <|  _  | (_| | | | | (_| |\n" +
		" |____/ \\___||___/_|\\_\\_| |_|\\__,_|_| |_|\\__,_|\n"
)

var rootCmd = &cobra.Command{
	Use:   "deskhand",
	Short: "DeskHand - approval-gated Slack agent",
	Long:  color.CyanString(logo) + "\nA Slack agent that asks before it acts: tool calls pause for human approval in the thread.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "deskhand %s\n", version)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(doctorCmd)
}

func printHeader(title string) {
	color.Cyan(logo)
	fmt.Println(title)
	fmt.Println()
}
