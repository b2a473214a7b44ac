package source

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var ErrUnknownGroup = errors.New("unknown_group")

// Locator maps a work unit to the URL it can be fetched from. Locators for
// specific content sources are registered by the embedding application.
type Locator interface {
	Name() string
	CanHandle(groupID string) bool
	Resolve(ctx context.Context, groupID, unitID string) (string, error)
}

type Registry struct {
	locators []Locator
}

func NewRegistry(locators ...Locator) *Registry {
	return &Registry{locators: locators}
}

func (r *Registry) Register(l Locator) {
	if l == nil {
		return
	}
	r.locators = append(r.locators, l)
}

// Resolve asks the first locator that claims the group.
func (r *Registry) Resolve(ctx context.Context, groupID, unitID string) (string, error) {
	for _, l := range r.locators {
		if l.CanHandle(groupID) {
			return l.Resolve(ctx, groupID, unitID)
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownGroup, groupID)
}

// NewLibraryLocator serves every group from a base URL laid out as
// <base>/<group>/<unit><ext>.
func NewLibraryLocator(baseURL, ext string) Locator {
	return &libraryLocator{
		base: strings.TrimRight(baseURL, "/"),
		ext:  ext,
	}
}

type libraryLocator struct {
	base string
	ext  string
}

func (l *libraryLocator) Name() string { return "library" }

func (l *libraryLocator) CanHandle(groupID string) bool { return true }

func (l *libraryLocator) Resolve(ctx context.Context, groupID, unitID string) (string, error) {
	if l.base == "" {
		return "", errors.New("library base url not configured")
	}
	return l.base + "/" + url.PathEscape(groupID) + "/" + url.PathEscape(unitID) + l.ext, nil
}
