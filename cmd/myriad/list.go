package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"
)

func cmdList(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	api := fs.String("api", apiBase(), "api base URL")
	status := fs.String("status", "", "filter by status")
	watch := fs.Bool("watch", false, "refresh until downloads settle")
	interval := fs.Int("interval", 1, "refresh interval in seconds")
	fs.Parse(args)
	if *interval <= 0 {
		*interval = 1
	}
	clearScreen := *watch && isTerminal()
	for {
		var tasks []taskView
		if err := doJSON(http.MethodGet, *api+"/tasks", nil, &tasks); err != nil {
			fmt.Println("error:", err)
			os.Exit(1)
		}
		shown := tasks
		if *status != "" {
			shown = make([]taskView, 0, len(tasks))
			for _, t := range tasks {
				if t.Status == *status {
					shown = append(shown, t)
				}
			}
		}
		if clearScreen {
			fmt.Print("\033[H\033[2J")
		}
		printSummary(tasks)
		printTasks(shown)
		if !*watch || !hasActiveTasks(tasks) {
			return
		}
		time.Sleep(time.Duration(*interval) * time.Second)
	}
}

func cmdProgress(args []string) {
	fs := flag.NewFlagSet("progress", flag.ExitOnError)
	api := fs.String("api", apiBase(), "api base URL")
	fs.Parse(args)
	var p progressView
	if err := doJSON(http.MethodGet, *api+"/progress", nil, &p); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	fmt.Printf("overall: %.1f%% | active: %v\n", p.OverallProgress*100, p.Active)
	for status, n := range p.Counts {
		fmt.Printf("  %s: %d\n", status, n)
	}
}
