package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/lukman83/pricehub/internal/apperr"
)

// ErrUnknownSource is wrapped by Get when no source has the requested name.
var ErrUnknownSource = errors.New("unknown catalog source")

var (
	mu      sync.RWMutex
	sources = make(map[string]Source)
)

// Register makes a source available under name. Names are case-insensitive;
// registering a name again replaces the earlier source.
func Register(name string, source Source) {
	key := sourceKey(name)
	if key == "" || source == nil {
		panic("catalog: Register needs a name and a source")
	}
	mu.Lock()
	defer mu.Unlock()
	sources[key] = source
}

// Get returns the source registered under name. The error lists the names
// that are registered so a mistyped --source is easy to fix.
func Get(name string) (Source, error) {
	mu.RLock()
	s, ok := sources[sourceKey(name)]
	mu.RUnlock()
	if ok {
		return s, nil
	}
	return nil, &apperr.Error{
		Kind:    apperr.Validation,
		Code:    "UNKNOWN_SOURCE",
		Message: fmt.Sprintf("Unknown catalog source %q (available: %s)", name, strings.Join(List(), ", ")),
		Err:     ErrUnknownSource,
	}
}

// List returns the registered names in order.
func List() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func sourceKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
