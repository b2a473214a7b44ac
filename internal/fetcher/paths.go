package fetcher

import (
	"net/url"
	"path"
	"strings"
)

const maxNameLen = 120

// unitFilename builds the on-disk name for a unit: the sanitized unit id
// plus the extension carried by its source URL. Unit ids are unique within
// a task, so names never collide inside a task directory.
func unitFilename(unitID, rawURL string) string {
	name := sanitizeName(unitID)
	if name == "" {
		name = "unit"
	}
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}
	return name + urlExt(rawURL)
}

func urlExt(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	ext := path.Ext(u.Path)
	if len(ext) > 16 || strings.ContainsAny(ext, "/\\") {
		return ""
	}
	return ext
}

// sanitizeName strips path separators and control characters so a unit id
// can never escape its task directory.
func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*' || r == '?' || r == '"' || r == '<' || r == '>' || r == '|':
			b.WriteRune('_')
		case r < 0x20:
		default:
			b.WriteRune(r)
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "." || out == ".." {
		return ""
	}
	return out
}
