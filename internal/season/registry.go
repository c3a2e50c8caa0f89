package season

import (
	"fmt"
	"sort"

	"github.com/san-kum/fieldsim/internal/arena"
	"github.com/san-kum/fieldsim/internal/dynamo"
	"github.com/san-kum/fieldsim/internal/gamepiece"
)

// Registry builds seasons by name. Every Get returns a fresh season so that
// per-match state is never shared between arenas.
type Registry struct {
	seasons  map[string]func() arena.Season
	variants map[string]gamepiece.Variant
}

func NewRegistry() *Registry {
	r := &Registry{
		seasons:  make(map[string]func() arena.Season),
		variants: make(map[string]gamepiece.Variant),
	}

	r.seasons["empty"] = func() arena.Season { return arena.Empty{} }
	r.seasons["crescendo"] = func() arena.Season { return NewCrescendo() }

	r.variants["note"] = Note
	return r
}

func (r *Registry) Get(name string) (arena.Season, error) {
	fn, ok := r.seasons[name]
	if !ok {
		return nil, fmt.Errorf("season %q: %w", name, dynamo.ErrUnknownSeason)
	}
	return fn(), nil
}

func (r *Registry) Variant(name string) (gamepiece.Variant, error) {
	v, ok := r.variants[name]
	if !ok {
		return gamepiece.Variant{}, fmt.Errorf("game piece variant %q: %w", name, dynamo.ErrUnknownPreset)
	}
	return v, nil
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.seasons))
	for name := range r.seasons {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Variants() []string {
	names := make([]string, 0, len(r.variants))
	for name := range r.variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
