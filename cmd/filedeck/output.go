package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/TheMichaelB/filedeck/internal/models"
)

// Output destinations. The shell swaps both for its terminal.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

var (
	folderColor = color.New(color.FgBlue, color.Bold)
	trailColor  = color.New(color.FgCyan)
	dimColor    = color.New(color.Faint)
)

func printJSON(v interface{}) {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		printError("encode output: %v", err)
	}
}

func printSuccess(format string, args ...interface{}) {
	fmt.Fprintln(stdout, color.GreenString(format, args...))
}

func printInfo(format string, args ...interface{}) {
	fmt.Fprintf(stdout, format+"\n", args...)
}

func printWarning(format string, args ...interface{}) {
	fmt.Fprintln(stderr, color.YellowString(format, args...))
}

func printError(format string, args ...interface{}) {
	fmt.Fprintln(stderr, color.RedString(format, args...))
}

// reportedError marks an error already shown to the user.
type reportedError struct {
	error
}

func (e reportedError) Unwrap() error { return e.error }

// printFailure shows err unless a command already did.
func printFailure(err error) {
	var reported reportedError
	if errors.As(err, &reported) {
		return
	}
	if jsonOutput {
		printJSON(map[string]interface{}{
			"success": false,
			"error":   models.UserMessage(err),
		})
		return
	}
	printError("Error: %s", models.UserMessage(err))
}

// report prints the outcome of a command that changes the listing.
func report(err error, success string, args ...interface{}) error {
	if err != nil {
		if jsonOutput {
			printJSON(map[string]interface{}{
				"success": false,
				"error":   models.UserMessage(err),
			})
		} else {
			printError("%s", models.UserMessage(err))
		}
		return reportedError{err}
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"success": true,
			"state":   apiClient.State(),
		})
		return nil
	}
	if success != "" {
		printSuccess(success, args...)
	}
	printListing(apiClient.State())
	return nil
}

// printLocation reports where the session is after a navigation.
func printLocation(err error) error {
	st := apiClient.State()
	if jsonOutput {
		result := map[string]interface{}{
			"success": err == nil,
			"state":   st,
		}
		if err != nil {
			result["error"] = models.UserMessage(err)
		}
		printJSON(result)
		if err != nil {
			return reportedError{err}
		}
		return nil
	}

	printListing(st)
	if err != nil {
		printError("Failed to load: %s", models.UserMessage(err))
		return reportedError{err}
	}
	return nil
}

func formatTrail(trail models.Trail) string {
	names := make([]string, len(trail))
	for i, e := range trail {
		names[i] = e.Name
		if names[i] == "" {
			names[i] = fmt.Sprintf("#%d", e.ID)
		}
	}
	return strings.Join(names, " / ")
}

func printListing(st models.NavigationState) {
	fmt.Fprintln(stdout, trailColor.Sprint(formatTrail(st.Trail)))

	if len(st.Folders) == 0 && len(st.Files) == 0 {
		if st.LastError == "" {
			fmt.Fprintln(stdout, dimColor.Sprint("  (empty)"))
		}
		return
	}

	nameWidth := listingNameWidth()
	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	// Names go last so color escapes do not upset the column widths.
	for _, f := range st.Folders {
		fmt.Fprintf(w, "  %d\t%s\t%s\n", f.ID, "-", folderColor.Sprint(truncate(f.Name+"/", nameWidth)))
	}
	for _, f := range st.Files {
		fmt.Fprintf(w, "  %d\t%s\t%s\n", f.ID, f.HumanSize(), truncate(f.Name, nameWidth))
	}
	_ = w.Flush()
}

// listingNameWidth leaves room for the id and size columns on a terminal.
func listingNameWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 0
	}
	if width -= 24; width < 16 {
		width = 16
	}
	return width
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if limit <= 0 || len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}
