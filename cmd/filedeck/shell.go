package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/TheMichaelB/filedeck/internal/metrics"
	"github.com/TheMichaelB/filedeck/internal/models"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Browse interactively",
	Long: `Shell keeps one session open and reads commands line by line, the same
commands the CLI offers ("cd Docs", "upload a.txt", "trash", ...).

With changes.enabled the listing follows edits made by other clients, and
with metrics.enabled Prometheus metrics are served on metrics.addr.`,
	Args: cobra.NoArgs,
}

func init() {
	// Set here rather than in the literal: runShell refers back to shellCmd.
	shellCmd.RunE = runShell
	rootCmd.AddCommand(shellCmd)
}

// lineReader abstracts the raw terminal and plain piped input.
type lineReader interface {
	ReadLine() (string, error)
	SetPrompt(prompt string)
}

type scannerReader struct {
	scanner *bufio.Scanner
}

func (r *scannerReader) ReadLine() (string, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.scanner.Text(), nil
}

func (r *scannerReader) SetPrompt(string) {}

func runShell(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	// Stays set so the post-run hook leaves the closed session alone.
	inShell = true
	defer func() {
		if err := apiClient.SaveSession(profile); err != nil {
			logger.WithError(err).Warn("Failed to save session")
		}
		_ = apiClient.Close()
		_ = logger.Sync()
	}()

	var reader lineReader
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		oldState, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("enter raw mode: %w", err)
		}
		defer func() { _ = term.Restore(fd, oldState) }()

		terminal := term.NewTerminal(struct {
			io.Reader
			io.Writer
		}{os.Stdin, os.Stdout}, "")
		if width, height, err := term.GetSize(fd); err == nil {
			_ = terminal.SetSize(width, height)
		}

		stdout, stderr = terminal, terminal
		defer func() { stdout, stderr = os.Stdout, os.Stderr }()
		reader = terminal
	} else {
		reader = &scannerReader{scanner: bufio.NewScanner(os.Stdin)}
	}

	if cfg.Metrics.Enabled {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr); err != nil {
				logger.WithError(err).Warn("Metrics endpoint stopped")
			}
		}()
	}

	if cfg.Changes.Enabled {
		if err := apiClient.WatchChanges(ctx); err != nil {
			printWarning("Change feed unavailable: %s", models.UserMessage(err))
		}
	}

	// Notices raised while a command runs are reported by that command.
	var busy atomic.Bool
	notices := apiClient.Notices.Subscribe()
	defer apiClient.Notices.Unsubscribe(notices)
	go func() {
		for n := range notices {
			if !busy.Load() && n.Kind == models.NoticeError {
				printError("%s", n.Message)
			}
		}
	}()

	printListing(apiClient.State())

	for {
		reader.SetPrompt(formatTrail(apiClient.State().Trail) + "> ")

		line, err := reader.ReadLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read command: %w", err)
		}

		fields := splitArgs(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "exit", "quit":
			return nil
		case "help", "?":
			printShellHelp()
			continue
		}

		busy.Store(true)
		if err := dispatch(ctx, fields); err != nil {
			printFailure(err)
		}
		busy.Store(false)
	}
}

// dispatch runs one shell line through the matching CLI command.
func dispatch(ctx context.Context, fields []string) error {
	target, rest, err := rootCmd.Find(fields)
	if err != nil || target == rootCmd || target == shellCmd || target.RunE == nil {
		return fmt.Errorf("unknown command %q (try \"help\")", fields[0])
	}

	target.LocalNonPersistentFlags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	if err := target.ParseFlags(rest); err != nil {
		return err
	}
	args := target.Flags().Args()
	if err := target.ValidateArgs(args); err != nil {
		return err
	}

	target.SetContext(ctx)
	return target.RunE(target, args)
}

func printShellHelp() {
	for _, c := range rootCmd.Commands() {
		if !c.IsAvailableCommand() || c == shellCmd {
			continue
		}
		printInfo("  %-14s %s", c.Name(), c.Short)
		for _, sub := range c.Commands() {
			printInfo("  %-14s %s", c.Name()+" "+sub.Name(), sub.Short)
		}
	}
	printInfo("  %-14s %s", "exit", "Leave the shell")
}

// splitArgs splits a line on spaces, keeping double-quoted runs together.
func splitArgs(line string) []string {
	var (
		args    []string
		current strings.Builder
		quoted  bool
		pending bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
			pending = true
		case (r == ' ' || r == '\t') && !quoted:
			if pending {
				args = append(args, current.String())
				current.Reset()
				pending = false
			}
		default:
			current.WriteRune(r)
			pending = true
		}
	}
	if pending {
		args = append(args, current.String())
	}
	return args
}
