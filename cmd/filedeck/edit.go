package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/TheMichaelB/filedeck/internal/models"
)

// item is a folder or a file picked from the current listing.
type item struct {
	folder *models.Folder
	file   *models.FileMetadata
}

func (it item) name() string {
	if it.folder != nil {
		return it.folder.Name
	}
	return it.file.Name
}

var onlyFiles bool

// findItem resolves ref against the listing, folders first unless --file.
func findItem(ref string) (item, error) {
	if !onlyFiles {
		if folder, err := apiClient.FindFolder(ref); err == nil {
			return item{folder: &folder}, nil
		}
	}
	file, err := apiClient.FindFile(ref)
	if err != nil {
		return item{}, fmt.Errorf("nothing named %q here: %w", ref, models.ErrNotFound)
	}
	return item{file: &file}, nil
}

var mkdirCmd = &cobra.Command{
	Use:   "mkdir <name>",
	Short: "Create a folder in the current folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		folder, err := apiClient.CreateFolder(commandContext(cmd), args[0])
		return report(err, "Created folder %s", folder.Name)
	},
}

var renameCmd = &cobra.Command{
	Use:   "rename <folder> <new-name>",
	Short: "Rename a folder",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		folder, err := apiClient.FindFolder(args[0])
		if err != nil {
			return report(err, "")
		}

		err = apiClient.RenameFolder(commandContext(cmd), folder, args[1])
		if errors.Is(err, models.ErrNoChange) {
			printWarning("Name unchanged")
			return nil
		}
		return report(err, "Renamed %s to %s", folder.Name, args[1])
	},
}

var mvCmd = &cobra.Command{
	Use:   "mv <file|folder> <target-folder-id>",
	Short: "Move a file or folder into another folder",
	Example: `  filedeck mv report.pdf 14
  filedeck mv --file 10 1`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		it, err := findItem(args[0])
		if err != nil {
			return report(err, "")
		}
		target, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid target folder id %q", args[1])
		}

		ctx := commandContext(cmd)
		if it.folder != nil {
			err = apiClient.MoveFolder(ctx, *it.folder, target)
		} else {
			err = apiClient.MoveFile(ctx, *it.file, target)
		}
		return report(err, "Moved %s", it.name())
	},
}

// itemCommand builds rm, restore and purge, which differ only in the call.
func itemCommand(use, short, done string,
	onFolder func(context.Context, models.Folder) error,
	onFile func(context.Context, models.FileMetadata) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <file|folder>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			it, err := findItem(args[0])
			if err != nil {
				return report(err, "")
			}

			ctx := commandContext(cmd)
			if it.folder != nil {
				err = onFolder(ctx, *it.folder)
			} else {
				err = onFile(ctx, *it.file)
			}
			return report(err, "%s %s", done, it.name())
		},
	}
}

var rmCmd = itemCommand("rm", "Move a file or folder to the recycle bin", "Deleted",
	func(ctx context.Context, f models.Folder) error { return apiClient.DeleteFolder(ctx, f) },
	func(ctx context.Context, f models.FileMetadata) error { return apiClient.DeleteFile(ctx, f) })

var restoreCmd = itemCommand("restore", "Restore an item listed in the recycle bin", "Restored",
	func(ctx context.Context, f models.Folder) error { return apiClient.RestoreFolder(ctx, f) },
	func(ctx context.Context, f models.FileMetadata) error { return apiClient.RestoreFile(ctx, f) })

var purgeCmd = itemCommand("purge", "Permanently erase an item listed in the recycle bin", "Purged",
	func(ctx context.Context, f models.Folder) error { return apiClient.PurgeFolder(ctx, f) },
	func(ctx context.Context, f models.FileMetadata) error { return apiClient.PurgeFile(ctx, f) })

func init() {
	for _, cmd := range []*cobra.Command{mvCmd, rmCmd, restoreCmd, purgeCmd} {
		cmd.Flags().BoolVarP(&onlyFiles, "file", "f", false,
			"Treat the argument as a file even if a folder matches")
	}

	rootCmd.AddCommand(mkdirCmd, renameCmd, mvCmd, rmCmd, restoreCmd, purgeCmd)
}
