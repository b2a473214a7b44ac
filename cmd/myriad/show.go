package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
)

func cmdShow(args []string) {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	api := fs.String("api", apiBase(), "api base URL")
	fs.Parse(args)
	if fs.NArg() < 1 {
		fmt.Println("usage: myriad show <task_id>")
		return
	}
	var task taskView
	if err := doJSON(http.MethodGet, *api+"/tasks/"+fs.Arg(0), nil, &task); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	fmt.Printf("id:       %s\n", task.ID)
	fmt.Printf("group:    %s\n", displayGroup(task))
	fmt.Printf("units:    %s\n", strings.Join(task.UnitIDs, ", "))
	fmt.Printf("status:   %s\n", task.Status)
	fmt.Printf("progress: %s\n", formatProgress(task))
	fmt.Printf("enqueued: %s\n", task.EnqueuedAt)
	if task.StartedAt != "" {
		fmt.Printf("started:  %s\n", task.StartedAt)
	}
	if task.CompletedAt != "" {
		fmt.Printf("finished: %s\n", task.CompletedAt)
	}
	if task.ErrorMessage != "" {
		fmt.Printf("error:    %s\n", task.ErrorMessage)
	}
}

func cmdEvents(args []string) {
	fs := flag.NewFlagSet("events", flag.ExitOnError)
	api := fs.String("api", apiBase(), "api base URL")
	limit := fs.Int("limit", 50, "number of events")
	fs.Parse(args)
	if fs.NArg() < 1 {
		fmt.Println("usage: myriad events <task_id>")
		return
	}
	var events []eventView
	url := fmt.Sprintf("%s/tasks/%s/events?limit=%d", *api, fs.Arg(0), *limit)
	if err := doJSON(http.MethodGet, url, nil, &events); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	for _, e := range events {
		fmt.Printf("%s  %-5s  %s\n", e.CreatedAt, e.Level, e.Message)
	}
}
