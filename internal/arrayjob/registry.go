package arrayjob

import (
	"github.com/armadaproject/arrayjob/internal/arrayjob/provider"
	"github.com/armadaproject/arrayjob/internal/arrayjob/simdb"
)

// DefaultRegistry returns a registry holding the built-in providers.
// The aliases match the file names job templates historically referred to.
func DefaultRegistry() *provider.Registry {
	r := provider.NewRegistry()
	r.Register("stub", provider.StubFactory, "provide")
	r.Register("simdb", simdb.Factory, "provide_mocsim")
	return r
}
