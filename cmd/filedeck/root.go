package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TheMichaelB/filedeck/internal/client"
	"github.com/TheMichaelB/filedeck/internal/config"
	"github.com/TheMichaelB/filedeck/internal/events"
	"github.com/TheMichaelB/filedeck/internal/state"
)

// Commands carrying this annotation run without a restored session.
const noSessionAnnotation = "filedeck/no-session"

var (
	// Global flags
	configFile string
	jsonOutput bool
	verbose    bool
	apiURL     string
	apiToken   string
	profile    string

	// Initialized in PersistentPreRunE
	cfg       *config.Config
	logger    *events.Logger
	apiClient *client.Session

	// Set while the interactive shell dispatches commands itself.
	inShell bool
)

var rootCmd = &cobra.Command{
	Use:   "filedeck",
	Short: "Browse and manage a remote file store",
	Long: `filedeck navigates a hierarchical file-storage server from the terminal.

Every command resumes where the previous one left off: the current folder,
breadcrumb trail and view are saved per profile between runs.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if inShell || apiClient == nil {
			return nil
		}
		defer func() {
			_ = apiClient.Close()
			_ = logger.Sync()
		}()

		if skipsSession(cmd) {
			return nil
		}
		if err := apiClient.SaveSession(profile); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"Config file path (default: ./filedeck.json or ~/.config/filedeck/)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "",
		"Backend base URL (overrides api.base_url)")
	rootCmd.PersistentFlags().StringVar(&apiToken, "token", "",
		"Bearer token (overrides api.token)")
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", state.DefaultProfile,
		"Saved session to resume")
}

func setup(cmd *cobra.Command, args []string) error {
	if inShell {
		return nil
	}

	loader := config.NewLoader(configFile)
	if apiURL != "" {
		loader.Override("api.base_url", apiURL)
	}
	if apiToken != "" {
		loader.Override("api.token", apiToken)
	}
	if verbose {
		loader.Override("log.level", "debug")
	}

	var err error
	cfg, err = loader.Load()
	if err != nil {
		return err
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	logger, err = events.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	events.SetDefault(logger)

	if path := loader.ConfigFile(); path != "" {
		logger.WithField("path", path).Debug("Loaded config file")
	}

	apiClient, err = client.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	if skipsSession(cmd) {
		return nil
	}

	ctx := commandContext(cmd)
	if err := apiClient.RestoreSession(ctx, profile); err != nil {
		// The command may well move somewhere that loads.
		logger.WithError(err).Debug("Restored location failed to load")
	}
	return nil
}

func skipsSession(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[noSessionAnnotation] == "true" {
			return true
		}
	}
	return false
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
