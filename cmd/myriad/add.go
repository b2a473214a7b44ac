package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
)

func cmdAdd(args []string) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	group := fs.String("group", "", "group (series) id")
	title := fs.String("title", "", "human readable group title")
	api := fs.String("api", apiBase(), "api base URL")
	fs.Parse(args)
	if *group == "" || fs.NArg() == 0 {
		fmt.Println("usage: myriad add -group <group_id> [-title <title>] <unit_id> [<unit_id> ...]")
		return
	}
	payload := map[string]any{
		"group_id":    *group,
		"group_title": *title,
		"unit_ids":    fs.Args(),
	}
	var task taskView
	if err := doJSON(http.MethodPost, *api+"/tasks", payload, &task); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	fmt.Printf("queued task %s (%d units)\n", task.ID, len(task.UnitIDs))
}
