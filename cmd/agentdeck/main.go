package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentdeck/agentdeck/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╔═╗┌─┐┌─┐┌┐┌┌┬┐╔╦╗┌─┐┌─┐┬┌─
  ╠═╣│ ┬├┤ │││ │  ║║├┤ │  ├┴┐
  ╩ ╩└─┘└─┘┘└┘ ┴ ═╩╝└─┘└─┘┴ ┴
`

func main() {
	rootCmd := &cobra.Command{
		Use:   "agentdeck",
		Short: "Session-scoped dashboard servers",
		Long: `AgentDeck serves per-user, token-authenticated dashboards.

Each session gets its own HTTP server on its own port, secured by a
session token and expiring on its own schedule. Features include:

  • Declarative dashboard schemas (lists, tables, stats)
  • Theme and accent resolution from the schema
  • Session extension with owner-side propagation
  • Optional reverse proxy registration with heartbeats`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

// printBanner prints the AgentDeck ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
