package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/TheMichaelB/filedeck/internal/models"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <path>...",
	Short: "Upload local files into the current folder",
	Long: `Upload sends every path concurrently. The listing is refreshed once
all of them succeed; if any fails, the failures are reported and the
listing is left as it was.`,
	Example: `  filedeck upload notes.txt photos/*.png`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(commandContext(cmd))
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt)
		defer signal.Stop(sigChan)
		go func() {
			select {
			case <-sigChan:
				printWarning("\nUpload interrupted, cancelling...")
				cancel()
			case <-ctx.Done():
			}
		}()

		result, err := apiClient.UploadFiles(ctx, args)

		if jsonOutput {
			failed := make([]map[string]string, 0, len(result.Failed))
			for _, f := range result.Failed {
				failed = append(failed, map[string]string{"name": f.Name, "error": models.UserMessage(f.Err)})
			}
			out := map[string]interface{}{
				"success":   err == nil,
				"batch_id":  result.BatchID,
				"uploaded":  result.Succeeded,
				"failed":    failed,
				"completed": result.Completed,
			}
			if err != nil {
				out["error"] = models.UserMessage(err)
			}
			printJSON(out)
			if err != nil {
				return reportedError{err}
			}
			return nil
		}

		for _, f := range result.Succeeded {
			printSuccess("Uploaded %s (%s)", f.Name, f.HumanSize())
		}
		for _, f := range result.Failed {
			printError("Failed to upload %s: %s", f.Name, models.UserMessage(f.Err))
		}
		if err != nil {
			if len(result.Failed) == 0 {
				printError("%s", models.UserMessage(err))
			}
			return reportedError{err}
		}
		printListing(apiClient.State())
		return nil
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download <file> [dest]",
	Short: "Download a file into the download directory",
	Long: `Download writes a listed file under storage.download_dir. A name that
already exists is handled according to storage.on_conflict.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := apiClient.FindFile(args[0])
		if err != nil {
			return report(err, "")
		}

		var dest string
		if len(args) == 2 {
			dest = args[1]
		}

		path, err := apiClient.DownloadFile(commandContext(cmd), file, dest)
		if jsonOutput {
			out := map[string]interface{}{"success": err == nil, "file": file, "path": path}
			if err != nil {
				out["error"] = models.UserMessage(err)
			}
			printJSON(out)
		} else if err == nil {
			printSuccess("Saved %s to %s", file.Name, path)
		} else {
			printError("Failed to download file: %s", models.UserMessage(err))
		}
		if err != nil {
			return reportedError{err}
		}
		return nil
	},
}

var previewCmd = &cobra.Command{
	Use:   "preview <file>",
	Short: "Show a file's content or preview kind",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := apiClient.FindFile(args[0])
		if err != nil {
			return report(err, "")
		}

		preview, err := apiClient.PreviewFile(commandContext(cmd), file)
		if err != nil {
			return report(err, "")
		}

		if jsonOutput {
			out := map[string]interface{}{"file": preview.File, "kind": preview.Kind, "size": len(preview.Content)}
			if preview.Kind == models.PreviewText {
				out["content"] = string(preview.Content)
			}
			printJSON(out)
			return nil
		}

		if preview.Kind == models.PreviewText {
			fmt.Fprint(stdout, string(preview.Content))
			if n := len(preview.Content); n > 0 && preview.Content[n-1] != '\n' {
				fmt.Fprintln(stdout)
			}
			return nil
		}
		printInfo("%s: %s preview, %s", file.Name, preview.Kind, models.HumanSize(int64(len(preview.Content))))
		printInfo("Use `filedeck download %s` to open it locally.", file.Name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd, downloadCmd, previewCmd)
}
