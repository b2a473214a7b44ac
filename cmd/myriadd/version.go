package main

// Set at build time via -ldflags "-X main.version=v1.2.3".
var version string

func versionString() string {
	if version == "" {
		return "dev"
	}
	return version
}
