package main

import (
	"github.com/spf13/cobra"
)

var stateCmd = &cobra.Command{
	Use:         "state",
	Short:       "Manage saved sessions",
	Annotations: map[string]string{noSessionAnnotation: "true"},
}

var stateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List profiles with a saved session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		profiles, err := apiClient.Profiles()
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(map[string]interface{}{"profiles": profiles})
			return nil
		}
		if len(profiles) == 0 {
			printInfo("No saved sessions")
			return nil
		}
		for _, p := range profiles {
			printInfo("%s", p)
		}
		return nil
	},
}

var stateResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget the saved session of --profile",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := apiClient.ResetSession(profile); err != nil {
			return err
		}

		if jsonOutput {
			printJSON(map[string]interface{}{"success": true, "profile": profile})
		} else {
			printSuccess("Session %s reset", profile)
		}
		return nil
	},
}

var stateMigrateCmd = &cobra.Command{
	Use:   "migrate <json|sqlite>",
	Short: "Copy saved sessions into another state backend",
	Long: `Migrate copies every saved session into the named backend under
storage.state_dir. Set storage.state_backend afterwards to switch to it.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"json", "sqlite"},
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := apiClient.MigrateSessions(args[0])
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(map[string]interface{}{"success": true, "backend": args[0], "profiles": n})
		} else {
			printSuccess("Migrated %d session(s) to %s", n, args[0])
		}
		return nil
	},
}

func init() {
	stateCmd.AddCommand(stateListCmd, stateResetCmd, stateMigrateCmd)
	rootCmd.AddCommand(stateCmd)
}
