// gridctl is the operator command-line tool. It runs the command engine
// locally against an in-memory tree, for trying commands, scripting
// config changes and generating password hashes, without a server.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"gridfx-config-bot/internal/auth"
	"gridfx-config-bot/internal/executor"
	"gridfx-config-bot/internal/logging"
	"gridfx-config-bot/internal/planner"
	"gridfx-config-bot/internal/store"
)

var (
	flagGroups      int
	flagAutoApprove bool
	flagVerbose     bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gridctl",
		Short: "Local operator console for the grid strategy configuration engine",
	}
	rootCmd.PersistentFlags().IntVar(&flagGroups, "groups", 15, "groups per engine in the default tree")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "debug logging")

	execCmd := &cobra.Command{
		Use:   "exec [command...]",
		Short: "Run one or more commands against a fresh default tree",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runExec,
	}
	execCmd.Flags().BoolVar(&flagAutoApprove, "auto-approve", false, "apply plans without staging")

	replCmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactive session against a fresh default tree",
		RunE:  runRepl,
	}

	hashCmd := &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Generate a bcrypt hash for AUTH_PASSWORD_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Println(hash)
			return nil
		},
	}

	rootCmd.AddCommand(execCmd, replCmd, hashCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLocalEngine(autoApprove bool) *executor.Engine {
	level := "warn"
	if flagVerbose {
		level = "debug"
	}
	logger := logging.New(logging.Config{Level: level, Output: "stderr", Pretty: true})

	opts := executor.DefaultOptions()
	opts.DefaultGroups = flagGroups
	opts.AutoApprove = autoApprove
	opts.RateLimit = 0 // no rate limiting for local sessions

	recorder := store.NewMemoryRecorder(200)
	return executor.New(opts, executor.Collaborators{
		Store:     store.NewMemoryStore(),
		Snapshots: recorder,
		Ledger:    recorder,
		Learning:  recorder,
	}, logger)
}

func runExec(cmd *cobra.Command, args []string) error {
	engine := newLocalEngine(flagAutoApprove)
	ctx := context.Background()

	failed := false
	for _, text := range args {
		result := engine.Execute(ctx, text)
		printResult(text, result)
		if !result.Success {
			failed = true
		}
	}
	if failed {
		return fmt.Errorf("one or more commands failed")
	}
	return nil
}

func runRepl(cmd *cobra.Command, args []string) error {
	engine := newLocalEngine(false)
	ctx := context.Background()

	fmt.Printf("gridctl repl: %d groups per engine; 'help' for commands, 'exit' to quit\n", flagGroups)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "exit" || text == "quit" {
			break
		}

		start := time.Now()
		result := engine.Execute(ctx, text)
		printResult(text, result)
		if flagVerbose {
			fmt.Printf("  (%.1fms)\n", float64(time.Since(start).Microseconds())/1000)
		}
	}
	return scanner.Err()
}

func printResult(text string, result executor.Result) {
	marker := "ok"
	if !result.Success {
		marker = "error"
	}
	fmt.Printf("[%s] %s\n", marker, result.Message)

	if result.PendingPlan != nil && result.PendingPlan.Status == planner.StatusPending {
		printPreviews(result.PendingPlan.Preview)
	} else if len(result.Changes) > 0 {
		printPreviews(result.Changes)
	}
	for _, row := range result.QueryResult {
		fmt.Printf("  %s/group %d/%s  %s = %s\n", row.Engine, row.Group, row.Logic, row.Field, row.Value)
	}
}

func printPreviews(previews []planner.ChangePreview) {
	const maxShown = 20
	for i, cp := range previews {
		if i == maxShown {
			fmt.Printf("  ... %d more\n", len(previews)-maxShown)
			break
		}
		fmt.Printf("  %d. %s/group %d/%s  %s: %s -> %s\n",
			i+1, cp.Engine, cp.Group, cp.Logic, cp.Field,
			cp.CurrentValue.String(), cp.NewValue.String())
	}
}
