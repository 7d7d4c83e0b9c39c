package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the hostbridge application
var rootCmd = &cobra.Command{
	Use:   "hostbridge",
	Short: "MCP gateway for property-management platforms",
	Long: `hostbridge exposes property-management operations (listings, reservations,
guest messaging) as Model Context Protocol tools for AI assistants.

It authenticates against the upstream platform with OAuth client credentials
and translates each tool call into one or more REST API requests.`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "hostbridge version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
}
