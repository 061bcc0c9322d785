package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/TheMichaelB/filedeck/internal/models"
)

var localCmd = &cobra.Command{
	Use:         "local",
	Short:       "Manage files in the download directory",
	Annotations: map[string]string{noSessionAnnotation: "true"},
}

var localListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List downloaded files",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := apiClient.LocalDownloads()
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(map[string]interface{}{"dir": apiClient.DownloadDir(), "files": files})
			return nil
		}
		if len(files) == 0 {
			printInfo("No downloads in %s", apiClient.DownloadDir())
			return nil
		}

		nameWidth := listingNameWidth()
		w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
		for _, f := range files {
			if f.IsDir {
				fmt.Fprintf(w, "  %s\t%s\t%s\n", "-", "-", folderColor.Sprint(truncate(f.Path+"/", nameWidth)))
				continue
			}
			hash := f.SHA256
			if len(hash) > 12 {
				hash = hash[:12]
			}
			fmt.Fprintf(w, "  %s\t%s\t%s\n", models.HumanSize(f.Size), hash, truncate(f.Path, nameWidth))
		}
		return w.Flush()
	},
}

var localRemoveCmd = &cobra.Command{
	Use:   "rm <path>",
	Short: "Delete a downloaded file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := apiClient.RemoveDownload(args[0]); err != nil {
			return err
		}

		if jsonOutput {
			printJSON(map[string]interface{}{"success": true, "path": args[0]})
		} else {
			printSuccess("Removed %s", args[0])
		}
		return nil
	},
}

func init() {
	localCmd.AddCommand(localListCmd, localRemoveCmd)
	rootCmd.AddCommand(localCmd)
}
