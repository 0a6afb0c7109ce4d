package provider

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/armadaproject/arrayjob/internal/common/arrayerrors"
)

// Options are passed to every Factory.
type Options struct {
	// Silent suppresses informational output. Set inside spawned ranks,
	// where every rank would otherwise repeat the same messages.
	Silent bool
	// WorkDir is the directory relative paths produced by the provider are resolved against.
	WorkDir string
}

// Factory constructs a Provider.
type Factory func(opts Options) (Provider, error)

// Registry maps provider names to factories.
// Job templates and the control dispatcher refer to providers by these names.
type Registry struct {
	factories map[string]Factory
	lock      sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under name and any number of aliases. Registering a name twice replaces the factory.
func (r *Registry) Register(name string, factory Factory, aliases ...string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	for _, n := range append([]string{name}, aliases...) {
		r.factories[n] = factory
	}
}

// New creates the provider ref refers to. ref is either a registered name or a path
// whose file name without extension is a registered name, e.g. "./providers/simdb.py".
func (r *Registry) New(ref string, opts Options) (Provider, error) {
	name := Name(ref)

	r.lock.RLock()
	factory, ok := r.factories[name]
	r.lock.RUnlock()
	if !ok {
		return nil, errors.WithStack(&arrayerrors.ErrNotFound{
			Type:    "provider",
			Value:   name,
			Message: "known providers are " + strings.Join(r.Names(), ", "),
		})
	}

	if opts.WorkDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "error getting working directory")
		}
		opts.WorkDir = wd
	}

	p, err := factory(opts)
	if err != nil {
		return nil, errors.WithMessagef(err, "error creating provider %s", name)
	}
	return p, nil
}

// Names returns the registered names and aliases in sorted order.
func (r *Registry) Names() []string {
	r.lock.RLock()
	defer r.lock.RUnlock()
	names := maps.Keys(r.factories)
	slices.Sort(names)
	return names
}

// Name reduces a provider reference to its registry name by expanding environment variables
// and stripping directories and the file extension.
func Name(ref string) string {
	base := filepath.Base(os.ExpandEnv(strings.TrimSpace(ref)))
	return strings.TrimSuffix(base, filepath.Ext(base))
}
