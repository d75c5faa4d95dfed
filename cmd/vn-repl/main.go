// vn-repl is an interactive shell for loading a tree, applying update plans
// to it, and inspecting the result.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/jgraley/inferno-cpp2v-sub002/internal/config"
	"github.com/jgraley/inferno-cpp2v-sub002/internal/observability"
	"github.com/spf13/cobra"
)

var (
	configPath string
	treePath   string

	rootCmd = &cobra.Command{
		Use:   "vn-repl",
		Short: "Interactive shell for the tree update engine",
		Args:  cobra.NoArgs,
		RunE:  runREPL,
	}
)

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "TOML configuration file")
	rootCmd.Flags().StringVar(&treePath, "tree", "", "YAML tree to load at startup")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runREPL(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	log := observability.NewLogger(os.Stderr, "vn-repl", cfg.Log.Level)
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "vn REPL - tree update engine")
	fmt.Fprintln(out, "Type 'help' for available commands, 'quit' to exit")
	fmt.Fprintln(out)

	r := newSession(out, cfg, log)
	if treePath != "" {
		r.handle("load " + treePath)
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "vn> ")
		input, err := reader.ReadString('\n')
		if err != nil {
			fmt.Fprintln(out, "\nGoodbye!")
			return nil
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if !r.handle(input) {
			return nil
		}
	}
}
