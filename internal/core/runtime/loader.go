// Package runtime wires the adt evaluator to the outside world: the
// default file-system ImportResolver (spec.md §6 "Import resolver"), its
// process-local module cache (spec.md §5), and the ModuleParser glue that
// lets adt.ImportLoad hand raw bytes to internal/encoding/yaml without adt
// importing the decoder directly.
package runtime

import (
	"fmt"
	"os"
	"sync"

	digest "github.com/opencontainers/go-digest"
	"golang.org/x/sync/singleflight"

	"yamlet.dev/go/internal/core/adt"
	"yamlet.dev/go/internal/encoding/yaml"
	"yamlet.dev/go/pkg/path"
)

// index is the process-local cache of loaded modules, guarded by a single
// RWMutex: get reads under RLock, while enter/leave/store each take the
// write lock for their own update. A miss is not re-checked under the
// write lock.
type index struct {
	mu      sync.RWMutex
	tuples  map[string]*adt.Tuple
	loading map[string]bool

	group singleflight.Group
}

func newIndex() *index {
	return &index{
		tuples:  map[string]*adt.Tuple{},
		loading: map[string]bool{},
	}
}

func (x *index) get(key string) (*adt.Tuple, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	t, ok := x.tuples[key]
	return t, ok
}

func (x *index) enter(key string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.loading[key] {
		return fmt.Errorf("%q is imported while it is still being loaded", key)
	}
	x.loading[key] = true
	return nil
}

func (x *index) leave(key string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.loading, key)
}

func (x *index) store(key string, t *adt.Tuple) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.tuples[key] = t
}

// Loader is the default ImportResolver: `!import` strings are resolved
// as paths relative to the directory of the file that issued them,
// read from disk, and parsed through the registered ModuleParser
// (spec.md §4.C "ImportLoad", §6). One Loader's index is shared by
// every module it loads, however deep the import chain, so two modules
// that import the same file share one parsed *adt.Tuple (spec.md §5).
type Loader struct {
	os    path.OS
	opts  *adt.Options
	index *index
}

// NewLoader returns a Loader whose modules are parsed with opts; the
// directory top-level relative imports resolve against is given later, to
// RootResolver. Each module's own ImportResolver and ParseModule are set to
// resolvers scoped to each module's own directory as loading descends;
// the opts value passed here is never mutated.
func NewLoader(goos path.OS, opts *adt.Options) *Loader {
	return &Loader{os: goos, opts: opts, index: newIndex()}
}

// RootResolver returns the ImportResolver to install on the Options used
// to parse the entry-point document (whose own base directory is root).
func (l *Loader) RootResolver(root string) adt.ImportResolver {
	return &dirResolver{loader: l, baseDir: root}
}

// dirResolver is an ImportResolver scoped to one module's directory. A
// fresh one is handed to each module's child Options by ParseModule, so
// `./sibling.yml` always resolves relative to the file that wrote it
// rather than to whatever module happened to start the load.
type dirResolver struct {
	loader  *Loader
	baseDir string
}

func (r *dirResolver) Resolve(requested string) (adt.ImportInfo, error) {
	canonical := path.Join(r.loader.os, r.baseDir, requested)

	if t, ok := r.loader.index.get(canonical); ok {
		return adt.ImportInfo{CanonicalKey: canonical, Tuple: t}, nil
	}

	raw, err, _ := r.loader.index.group.Do(canonical, func() (any, error) {
		return os.ReadFile(canonical)
	})
	if err != nil {
		return adt.ImportInfo{}, fmt.Errorf("reading %q: %w", canonical, err)
	}

	return adt.ImportInfo{
		CanonicalKey: canonical,
		Raw:          raw.([]byte),
	}, nil
}

// ParseModule is installed as adt.Options.ParseModule: it is the single
// place a module's raw bytes become a tuple, so it is also the single
// place results are cached and import cycles are caught (spec.md §4.I,
// §5). name is the CanonicalKey a dirResolver computed for this module.
func (l *Loader) ParseModule(ctx *adt.Context, raw []byte, name string) (*adt.Tuple, error) {
	if t, ok := l.index.get(name); ok {
		return t, nil
	}
	// A module can only re-enter its own parse synchronously: construction
	// never resolves a `!import` cell eagerly, so the only way name shows
	// up here while still loading is a self-referential import chain that
	// was forced during its own construction (spec.md §4.I).
	if err := l.index.enter(name); err != nil {
		return nil, ctx.Errorf(adt.ImportCycle, "%v", err)
	}
	defer l.index.leave(name)

	childOpts := *l.opts
	childOpts.ImportResolver = &dirResolver{loader: l, baseDir: path.Dir(name)}
	childOpts.ParseModule = l.ParseModule

	t, err := yaml.Decode(ctx, &childOpts, raw, name)
	if err != nil {
		return nil, err
	}
	l.index.store(name, t)
	return t, nil
}

// ContentKey derives a cache key from raw content rather than a
// filesystem path, for embedding callers whose ImportResolver returns
// bytes sourced from somewhere other than disk (e.g. an in-memory bundle
// or a fetched archive) but that still want modules de-duplicated when
// two distinct requested strings happen to name identical content.
func ContentKey(raw []byte) string {
	return digest.FromBytes(raw).String()
}
