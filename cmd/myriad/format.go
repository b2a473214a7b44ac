package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
)

func printSummary(tasks []taskView) {
	counts := map[string]int{}
	for _, t := range tasks {
		counts[t.Status]++
	}
	active := counts["queued"] + counts["in_progress"]
	done := counts["completed"] + counts["failed"]
	fmt.Printf("Tasks: %d total | active: %d (queued %d, in_progress %d, paused %d) | done: %d (completed %d, failed %d)\n",
		len(tasks), active, counts["queued"], counts["in_progress"], counts["paused"], done, counts["completed"], counts["failed"])
}

func printTasks(tasks []taskView) {
	if len(tasks) == 0 {
		fmt.Println("No tasks.")
		return
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tGROUP\tUNITS\tSTATUS\tPROGRESS")
	for _, t := range tasks {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", t.ID, displayGroup(t), len(t.UnitIDs), t.Status, formatProgress(t))
		if t.ErrorMessage != "" {
			fmt.Fprintf(tw, " \t \t \t \t  error: %s\n", t.ErrorMessage)
		}
	}
	_ = tw.Flush()
}

func displayGroup(t taskView) string {
	if t.GroupTitle != "" {
		return t.GroupTitle
	}
	return t.GroupID
}

func formatProgress(t taskView) string {
	if t.TotalBytes > 0 {
		return fmt.Sprintf("%s / %s (%.0f%%)",
			humanize.IBytes(uint64(t.DownloadedBytes)), humanize.IBytes(uint64(t.TotalBytes)), t.Progress*100)
	}
	if t.DownloadedBytes > 0 {
		return humanize.IBytes(uint64(t.DownloadedBytes))
	}
	return "-"
}

func hasActiveTasks(tasks []taskView) bool {
	for _, t := range tasks {
		if t.Status == "queued" || t.Status == "in_progress" {
			return true
		}
	}
	return false
}

func isTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}
