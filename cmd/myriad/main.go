package main

import (
	"fmt"
	"os"
)

const defaultAPI = "http://127.0.0.1:8844"

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}
	switch os.Args[1] {
	case "--version", "version":
		cmdVersion()
	case "add":
		cmdAdd(os.Args[2:])
	case "list":
		cmdList(os.Args[2:])
	case "show":
		cmdShow(os.Args[2:])
	case "events":
		cmdEvents(os.Args[2:])
	case "progress":
		cmdProgress(os.Args[2:])
	case "pause":
		cmdAction("pause", os.Args[2:])
	case "resume":
		cmdAction("resume", os.Args[2:])
	case "cancel":
		cmdAction("cancel", os.Args[2:])
	case "retry":
		cmdAction("retry", os.Args[2:])
	case "clear":
		cmdClear(os.Args[2:])
	case "settings":
		cmdSettings(os.Args[2:])
	case "help":
		usage()
	default:
		usage()
	}
}

func usage() {
	fmt.Println("myriad - background download scheduler CLI")
	fmt.Println("")
	fmt.Println("Usage:")
	fmt.Println("  myriad add -group <group_id> [-title <title>] <unit_id> [<unit_id> ...]")
	fmt.Println("  myriad list [-watch] [-interval 1] [-status <state>]")
	fmt.Println("  myriad show <task_id>")
	fmt.Println("  myriad events <task_id> [-limit 50]")
	fmt.Println("  myriad progress")
	fmt.Println("  myriad pause <task_id>")
	fmt.Println("  myriad resume <task_id>")
	fmt.Println("  myriad cancel <task_id>")
	fmt.Println("  myriad retry <task_id>")
	fmt.Println("  myriad clear")
	fmt.Println("  myriad settings [-max-concurrent <n>] [-network-restricted true|false]")
	fmt.Println("  myriad version")
	fmt.Println("")
	fmt.Println("Env:")
	fmt.Println("  MYRIAD_API=http://127.0.0.1:8844")
}

func apiBase() string {
	if v := os.Getenv("MYRIAD_API"); v != "" {
		return v
	}
	return defaultAPI
}
