package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var lsCmd = &cobra.Command{
	Use:     "ls",
	Short:   "List the current location",
	Aliases: []string{"list"},
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if lsRefresh {
			return printLocation(apiClient.Reload(commandContext(cmd)))
		}
		var err error
		if msg := apiClient.State().LastError; msg != "" {
			err = errors.New(msg)
		}
		return printLocation(err)
	},
}

var lsRefresh bool

var cdCmd = &cobra.Command{
	Use:   "cd <folder>",
	Short: "Enter a folder of the current listing",
	Long: `Cd enters a folder listed at the current location, named by id or by
name (case-insensitive). ".." goes up one level and "/" returns to Root.`,
	Example: `  filedeck cd Docs
  filedeck cd 14
  filedeck cd ..`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		switch ref := args[0]; ref {
		case "..":
			return printLocation(apiClient.NavigateUp(ctx))
		case "/", "~":
			return printLocation(apiClient.NavigateHome(ctx))
		default:
			folder, err := apiClient.FindFolder(ref)
			if err != nil {
				return report(err, "")
			}
			return printLocation(apiClient.OpenFolder(ctx, folder))
		}
	},
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Go to the parent folder",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printLocation(apiClient.NavigateUp(commandContext(cmd)))
	},
}

var homeCmd = &cobra.Command{
	Use:   "home",
	Short: "Go to the root folder",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printLocation(apiClient.NavigateHome(commandContext(cmd)))
	},
}

var crumbCmd = &cobra.Command{
	Use:   "crumb <index>",
	Short: "Jump back to a breadcrumb (0 is Root)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid breadcrumb index %q", args[0])
		}
		return printLocation(apiClient.NavigateToBreadcrumb(commandContext(cmd), index))
	},
}

var pwdCmd = &cobra.Command{
	Use:   "pwd",
	Short: "Show the breadcrumb trail",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st := apiClient.State()
		if jsonOutput {
			printJSON(map[string]interface{}{
				"trail":    st.Trail,
				"location": st.Location,
				"viewMode": st.ViewMode,
			})
			return nil
		}
		for i, e := range st.Trail {
			marker := " "
			if i == len(st.Trail)-1 {
				marker = "*"
			}
			printInfo("%s %d  %s", marker, i, trailColor.Sprint(e.Name))
		}
		return nil
	},
}

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Show recently used files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printLocation(apiClient.LoadRecentFiles(commandContext(cmd)))
	},
}

var trashCmd = &cobra.Command{
	Use:     "trash",
	Short:   "Show the recycle bin",
	Aliases: []string{"recycle-bin"},
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printLocation(apiClient.LoadRecycleBin(commandContext(cmd)))
	},
}

var downloadsCmd = &cobra.Command{
	Use:   "downloads",
	Short: "Go to the Downloads folder",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printLocation(apiClient.LoadDownloads(commandContext(cmd)))
	},
}

var searchCmd = &cobra.Command{
	Use:     "search <query>",
	Short:   "Search files and folders by name",
	Example: `  filedeck search "annual report"`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		if strings.TrimSpace(query) == "" {
			return fmt.Errorf("search query must not be blank")
		}
		return printLocation(apiClient.Search(commandContext(cmd), query))
	},
}

var clearSearchCmd = &cobra.Command{
	Use:   "clear-search",
	Short: "Leave search results",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printLocation(apiClient.ClearSearch(commandContext(cmd)))
	},
}

func init() {
	lsCmd.Flags().BoolVarP(&lsRefresh, "refresh", "r", false,
		"Fetch the listing again")

	rootCmd.AddCommand(lsCmd, cdCmd, upCmd, homeCmd, crumbCmd, pwdCmd,
		recentCmd, trashCmd, downloadsCmd, searchCmd, clearSearchCmd)
}
