package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
)

func cmdAction(action string, args []string) {
	fs := flag.NewFlagSet(action, flag.ExitOnError)
	api := fs.String("api", apiBase(), "api base URL")
	fs.Parse(args)
	if fs.NArg() < 1 {
		fmt.Printf("usage: myriad %s <task_id>\n", action)
		return
	}
	url := fmt.Sprintf("%s/tasks/%s/%s", *api, fs.Arg(0), action)
	if err := doJSON(http.MethodPost, url, nil, nil); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	fmt.Println("ok")
}

func cmdClear(args []string) {
	fs := flag.NewFlagSet("clear", flag.ExitOnError)
	api := fs.String("api", apiBase(), "api base URL")
	fs.Parse(args)
	if err := doJSON(http.MethodPost, *api+"/tasks/clear", nil, nil); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	fmt.Println("ok")
}

func cmdSettings(args []string) {
	fs := flag.NewFlagSet("settings", flag.ExitOnError)
	api := fs.String("api", apiBase(), "api base URL")
	maxConcurrent := fs.Int("max-concurrent", 0, "max tasks downloading at once")
	networkRestricted := fs.String("network-restricted", "", "hold queued tasks while the network is restricted (true|false)")
	fs.Parse(args)

	if *maxConcurrent == 0 && *networkRestricted == "" {
		var doc settingsDoc
		if err := doJSON(http.MethodGet, *api+"/settings", nil, &doc); err != nil {
			fmt.Println("error:", err)
			os.Exit(1)
		}
		printSettings(doc)
		return
	}

	payload := map[string]any{}
	if *maxConcurrent != 0 {
		payload["max_concurrent"] = *maxConcurrent
	}
	if *networkRestricted != "" {
		v, err := strconv.ParseBool(*networkRestricted)
		if err != nil {
			fmt.Println("error: -network-restricted must be true or false")
			os.Exit(1)
		}
		payload["network_restricted"] = v
	}
	var doc settingsDoc
	if err := doJSON(http.MethodPut, *api+"/settings", payload, &doc); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	printSettings(doc)
}

func printSettings(doc settingsDoc) {
	fmt.Printf("max_concurrent: %d\n", doc.MaxConcurrent)
	fmt.Printf("network_restricted: %v\n", doc.NetworkRestricted)
}
