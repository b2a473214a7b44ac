package main

import (
	"fmt"
	"net/http"
)

// Set at build time via -ldflags "-X main.version=v1.2.3".
var version string

func versionString() string {
	if version == "" {
		return "myriad (dev)"
	}
	return "myriad " + version
}

func cmdVersion() {
	fmt.Println(versionString())
	var meta map[string]string
	if err := doJSON(http.MethodGet, apiBase()+"/meta", nil, &meta); err == nil {
		fmt.Println("server", meta["version"])
	}
}
