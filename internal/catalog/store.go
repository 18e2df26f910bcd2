package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"
	"sync/atomic"
)

//go:embed data/*.json
var builtin embed.FS

// Store provides read access to the loaded collections. The set of
// collections can be replaced atomically.
type Store struct {
	collections atomic.Pointer[map[string]*Collection]
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{}
}

// LoadBuiltin creates a Store holding the embedded collections.
func LoadBuiltin(logger *slog.Logger) (*Store, error) {
	s := NewStore()
	if err := s.Load(builtin, "data", logger); err != nil {
		return nil, err
	}
	return s, nil
}

// Load parses every *.json file in dir of fsys and replaces the current set.
func (s *Store) Load(fsys fs.FS, dir string, logger *slog.Logger) error {
	matches, err := fs.Glob(fsys, path.Join(dir, "*.json"))
	if err != nil {
		return fmt.Errorf("listing collections: %w", err)
	}

	next := make(map[string]*Collection, len(matches))
	for _, name := range matches {
		f, err := fsys.Open(name)
		if err != nil {
			return fmt.Errorf("opening %s: %w", name, err)
		}
		c, err := Parse(f, logger)
		f.Close()
		if err != nil {
			return fmt.Errorf("parsing %s: %w", name, err)
		}
		if _, dup := next[c.Name]; dup {
			return fmt.Errorf("duplicate collection %q in %s", c.Name, name)
		}
		next[c.Name] = c
		logger.Debug("loaded site collection", "collection", c.Name, "sites", len(c.Sites))
	}

	s.collections.Store(&next)
	return nil
}

func (s *Store) all() map[string]*Collection {
	m := s.collections.Load()
	if m == nil {
		return nil
	}
	return *m
}

// List returns a summary of every collection, sorted by name.
func (s *Store) List() []Summary {
	all := s.all()
	out := make([]Summary, 0, len(all))
	for _, c := range all {
		out = append(out, Summary{Name: c.Name, Title: c.Title, SiteCount: len(c.Sites)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Collection returns a copy of the named collection. When selected names a
// site in it, that site is flagged and the map centres on it.
func (s *Store) Collection(name, selected string) (*Collection, bool) {
	c, ok := s.all()[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	cp := *c
	cp.Sites = make([]Site, len(c.Sites))
	copy(cp.Sites, c.Sites)
	if selected == "" {
		return &cp, true
	}
	for i := range cp.Sites {
		if matches(cp.Sites[i], selected) {
			cp.Sites[i].Selected = true
			cp.Center = cp.Sites[i].Location
			break
		}
	}
	return &cp, true
}

// Site finds a site by ID or by case-insensitive name.
func (s *Store) Site(collection, key string) (Site, bool) {
	c, ok := s.all()[strings.ToLower(collection)]
	if !ok {
		return Site{}, false
	}
	for _, site := range c.Sites {
		if matches(site, key) {
			return site, true
		}
	}
	return Site{}, false
}

func matches(s Site, key string) bool {
	key = strings.TrimSpace(key)
	return s.ID == strings.ToLower(key) || strings.EqualFold(s.Name, key) || (s.LocalName != "" && s.LocalName == key)
}
