package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ssr-sandbox [flags] <chunks-dir> <entry> [props-json]",
	Short: "Confined V8 sandbox for server-side rendering of untrusted JS entries",
	Long: `ssr-sandbox renders a JS entry point inside a V8 isolate with no
filesystem, network, or process access beyond a fixed operation
surface (console, crypto, base64, fetch to an allowlist).

Single-shot mode renders one entry and exits:
  ssr-sandbox ./chunks entry.js '{"id":1}'

Server mode constructs one Host and serves line-framed render
requests from standard input until EOF:
  ssr-sandbox --server ./chunks`,
	Args: cobra.RangeArgs(1, 3),
	RunE: runRoot,
}

func init() {
	rootCmd.Flags().Int("max-heap-size", 64, "max heap size in MB (0 = unlimited)")
	rootCmd.Flags().Int("timeout", 5000, "render timeout in ms (0 = unlimited)")
	rootCmd.Flags().StringSlice("allow-origin", nil, "allow fetch to this origin (repeatable)")
	rootCmd.Flags().Bool("server", false, "run in server mode, reading framed requests from stdin")
	rootCmd.Flags().String("metrics-addr", "", "if set, serve Prometheus metrics on this address in server mode")
}

// Execute runs the root command, exiting nonzero on any ArgumentError,
// BootstrapError, or render error per spec.md §6's exit code table.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runRoot(cmd *cobra.Command, args []string) error {
	server, _ := cmd.Flags().GetBool("server")
	if server {
		return runServe(cmd, args)
	}
	return runRender(cmd, args)
}
