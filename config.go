package autowire

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// legacyPositionSeparator marks fully qualified parameter positions ("Class:method:param") that older
// configuration formats used.
const legacyPositionSeparator = ":"

// TypeRef is a configured parameter value that forces a type injection instead of a literal.
type TypeRef struct {
	Name TypeName
}

// Ref builds a forced-type binding for a configured parameter.
//
//	cfg.SetParameter("ReportService", "store", autowire.Ref("S3Store"))
func Ref(name TypeName) TypeRef {
	return TypeRef{Name: name}
}

// TypeEntry holds the configuration for one type name. An entry with TypeOf set is an alias.
type TypeEntry struct {
	TypeOf      TypeName
	Preferences map[TypeName]TypeName
	Parameters  map[string]any
}

func (e *TypeEntry) clone() *TypeEntry {
	c := &TypeEntry{
		TypeOf:      e.TypeOf,
		Preferences: make(map[TypeName]TypeName, len(e.Preferences)),
		Parameters:  make(map[string]any, len(e.Parameters)),
	}
	for k, v := range e.Preferences {
		c.Preferences[k] = v
	}
	for k, v := range e.Parameters {
		c.Parameters[k] = v
	}
	return c
}

// Preferences is the read side of the type preference model. Both *Config and *Snapshot
// implement it.
type Preferences interface {
	ResolveAlias(name TypeName) (TypeName, error)
	IsAlias(name TypeName) bool
	PreferenceFor(owner, declared TypeName) TypeName
	LiteralParameterFor(owner TypeName, key string) (any, bool)
	ForcedTypeFor(owner TypeName, key string) (TypeName, bool)
}

// Snapshot is an immutable view of a Config. A construction call tree reads one snapshot from start
// to finish.
type Snapshot struct {
	preferences map[TypeName]TypeName
	types       map[TypeName]*TypeEntry
}

var emptySnapshot = &Snapshot{
	preferences: map[TypeName]TypeName{},
	types:       map[TypeName]*TypeEntry{},
}

// Config is the layered type preference model: aliases, global preferences and per-type overrides.
//
// Every mutation publishes a new Snapshot. Constructions that are already running keep the
// snapshot they started with, so configuration changes never interleave with an in-flight
// construction.
type Config struct {
	current atomic.Pointer[Snapshot]
	// serializes writers
	mu     sync.Mutex
	logger *slog.Logger
}

// ConfigOption configures a Config.
type ConfigOption func(*Config)

// WithConfigLogger sets the logger used for configuration diagnostics.
func WithConfigLogger(logger *slog.Logger) ConfigOption {
	return func(c *Config) {
		c.logger = logger
	}
}

// NewConfig creates an empty configuration.
func NewConfig(opts ...ConfigOption) *Config {
	c := &Config{}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.current.Store(emptySnapshot)
	return c
}

// Snapshot returns the current immutable view.
func (c *Config) Snapshot() *Snapshot {
	return c.current.Load()
}

// mutate copies the current snapshot, applies fn and publishes the result if fn succeeds.
func (c *Config) mutate(fn func(s *Snapshot) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.current.Load().clone()
	if err := fn(next); err != nil {
		return err
	}
	c.current.Store(next)
	return nil
}

// SetAlias makes name an alias of target. A chain that would lead back to name is rejected.
func (c *Config) SetAlias(name, target TypeName) error {
	return c.mutate(func(s *Snapshot) error {
		if name == target {
			return invalidConfig(name, "type is aliased to itself")
		}
		entry := s.entryForWrite(name)
		entry.TypeOf = target
		if _, err := s.ResolveAlias(name); err != nil {
			return err
		}
		return nil
	})
}

// SetTypePreference configures which type to inject when a parameter declares the type declared.
// Without an owner the preference is global; with an owner it only applies while constructing that
// type. A global preference that closes a cycle is rejected.
func (c *Config) SetTypePreference(declared, preferred TypeName, owner ...TypeName) error {
	return c.mutate(func(s *Snapshot) error {
		if len(owner) == 0 || owner[0] == "" {
			s.preferences[declared] = preferred
			return s.checkGlobalPreferenceChain(declared)
		}
		entry := s.entryForWrite(owner[0])
		entry.Preferences[declared] = preferred
		return nil
	})
}

// SetParameters merges parameter bindings into the entry for owner. Values of type TypeRef force a
// type injection; any other value is a literal. Keys using the legacy fully qualified position
// format are not supported any more: they are reported and skipped.
func (c *Config) SetParameters(owner TypeName, params map[string]any) error {
	return c.mutate(func(s *Snapshot) error {
		entry := s.entryForWrite(owner)
		for key, value := range params {
			if strings.Contains(key, legacyPositionSeparator) {
				c.logger.Warn("fully qualified parameter positions are no longer supported",
					"type", owner, "parameter", key)
				continue
			}
			entry.Parameters[key] = value
		}
		return nil
	})
}

// SetParameter binds a single parameter. See SetParameters.
func (c *Config) SetParameter(owner TypeName, key string, value any) error {
	return c.SetParameters(owner, map[string]any{key: value})
}

// SetEntry replaces the whole entry for name, validating it the same way the individual setters do.
func (c *Config) SetEntry(name TypeName, entry TypeEntry) error {
	if entry.TypeOf != "" {
		if err := c.SetAlias(name, entry.TypeOf); err != nil {
			return err
		}
	}
	for declared, preferred := range entry.Preferences {
		if err := c.SetTypePreference(declared, preferred, name); err != nil {
			return err
		}
	}
	if len(entry.Parameters) > 0 {
		return c.SetParameters(name, entry.Parameters)
	}
	return nil
}

// ResolveAlias resolves name against the current snapshot.
func (c *Config) ResolveAlias(name TypeName) (TypeName, error) {
	return c.Snapshot().ResolveAlias(name)
}

// IsAlias reports whether name is an alias in the current snapshot.
func (c *Config) IsAlias(name TypeName) bool {
	return c.Snapshot().IsAlias(name)
}

// PreferenceFor looks up a preference in the current snapshot.
func (c *Config) PreferenceFor(owner, declared TypeName) TypeName {
	return c.Snapshot().PreferenceFor(owner, declared)
}

// LiteralParameterFor looks up a configured literal in the current snapshot.
func (c *Config) LiteralParameterFor(owner TypeName, key string) (any, bool) {
	return c.Snapshot().LiteralParameterFor(owner, key)
}

// ForcedTypeFor looks up a forced type in the current snapshot.
func (c *Config) ForcedTypeFor(owner TypeName, key string) (TypeName, bool) {
	return c.Snapshot().ForcedTypeFor(owner, key)
}

// Status returns a sorted textual dump of the configuration.
func (c *Config) Status() string {
	return c.Snapshot().Status()
}

func (s *Snapshot) clone() *Snapshot {
	c := &Snapshot{
		preferences: make(map[TypeName]TypeName, len(s.preferences)),
		types:       make(map[TypeName]*TypeEntry, len(s.types)),
	}
	for k, v := range s.preferences {
		c.preferences[k] = v
	}
	for k, v := range s.types {
		c.types[k] = v
	}
	return c
}

// entryForWrite returns a private copy of the entry for name, creating it if needed. Entries are
// shared between snapshots, so they must be copied before they are changed.
func (s *Snapshot) entryForWrite(name TypeName) *TypeEntry {
	var entry *TypeEntry
	if existing, ok := s.types[name]; ok {
		entry = existing.clone()
	} else {
		entry = &TypeEntry{
			Preferences: map[TypeName]TypeName{},
			Parameters:  map[string]any{},
		}
	}
	s.types[name] = entry
	return entry
}

func (s *Snapshot) checkGlobalPreferenceChain(start TypeName) error {
	visited := map[TypeName]bool{start: true}
	current := start
	for {
		next, ok := s.preferences[current]
		if !ok || next == current {
			return nil
		}
		if visited[next] {
			return invalidConfig(start, fmt.Sprintf("cyclic type preference chain through %v", next))
		}
		visited[next] = true
		current = next
	}
}

// IsAlias reports whether name is configured as an alias.
func (s *Snapshot) IsAlias(name TypeName) bool {
	entry, ok := s.types[name]
	return ok && entry.TypeOf != ""
}

// ResolveAlias follows the alias chain starting at name. A name that is not an alias resolves to
// itself. A chain that revisits a name is invalid.
func (s *Snapshot) ResolveAlias(name TypeName) (TypeName, error) {
	current := name
	// A valid chain cannot be longer than the number of configured names.
	for steps := 0; steps <= len(s.types); steps++ {
		entry, ok := s.types[current]
		if !ok || entry.TypeOf == "" {
			return current, nil
		}
		current = entry.TypeOf
	}
	return "", invalidConfig(name, "cyclic alias chain")
}

// PreferenceFor returns the type to inject for a parameter declaring declared while constructing
// owner: the owner's own preference first, then the global preference, then declared itself.
// For an alias the alias entry is consulted before the entries of the types it stands for, like
// LiteralParameterFor does. The result is not alias-resolved.
func (s *Snapshot) PreferenceFor(owner, declared TypeName) TypeName {
	visited := map[TypeName]bool{}
	for current := owner; current != "" && !visited[current]; {
		visited[current] = true
		entry, ok := s.types[current]
		if !ok {
			break
		}
		if preferred, ok := entry.Preferences[declared]; ok {
			return preferred
		}
		current = entry.TypeOf
	}
	if preferred, ok := s.preferences[declared]; ok {
		return preferred
	}
	return declared
}

// LiteralParameterFor returns a configured literal for the parameter key of owner. For an alias the
// alias entry is consulted before the entry of the type it stands for.
func (s *Snapshot) LiteralParameterFor(owner TypeName, key string) (any, bool) {
	value, ok := s.parameterFor(owner, key)
	if !ok {
		return nil, false
	}
	if _, forced := value.(TypeRef); forced {
		return nil, false
	}
	return value, true
}

// ForcedTypeFor returns a configured forced-type binding for the parameter key of owner.
func (s *Snapshot) ForcedTypeFor(owner TypeName, key string) (TypeName, bool) {
	value, ok := s.parameterFor(owner, key)
	if !ok {
		return "", false
	}
	ref, forced := value.(TypeRef)
	if !forced {
		return "", false
	}
	return ref.Name, true
}

func (s *Snapshot) parameterFor(owner TypeName, key string) (any, bool) {
	visited := map[TypeName]bool{}
	current := owner
	for current != "" && !visited[current] {
		visited[current] = true
		entry, ok := s.types[current]
		if !ok {
			return nil, false
		}
		if value, ok := entry.Parameters[key]; ok {
			return value, true
		}
		current = entry.TypeOf
	}
	return nil, false
}

// ConfiguredTypes returns the sorted names of every configured type entry.
func (s *Snapshot) ConfiguredTypes() []TypeName {
	names := make([]TypeName, 0, len(s.types))
	for name := range s.types {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Entry returns a copy of the entry for name.
func (s *Snapshot) Entry(name TypeName) (TypeEntry, bool) {
	entry, ok := s.types[name]
	if !ok {
		return TypeEntry{}, false
	}
	return *entry.clone(), true
}

// Status returns a sorted textual dump of the snapshot.
func (s *Snapshot) Status() string {
	var lines []string
	for declared, preferred := range s.preferences {
		lines = append(lines, fmt.Sprintf("preference %v -> %v", declared, preferred))
	}
	for _, name := range s.ConfiguredTypes() {
		entry := s.types[name]
		if entry.TypeOf != "" {
			lines = append(lines, fmt.Sprintf("alias %v -> %v", name, entry.TypeOf))
		}
		for declared, preferred := range entry.Preferences {
			lines = append(lines, fmt.Sprintf("type %v - preference %v -> %v", name, declared, preferred))
		}
		for key, value := range entry.Parameters {
			if ref, ok := value.(TypeRef); ok {
				lines = append(lines, fmt.Sprintf("type %v - parameter %s: type %v", name, key, ref.Name))
			} else {
				lines = append(lines, fmt.Sprintf("type %v - parameter %s: %v", name, key, value))
			}
		}
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}

func invalidConfig(name TypeName, message string) *DependencyError {
	return &DependencyError{
		Kind:     KindInvalidConfiguration,
		Message:  message,
		TypeName: name,
	}
}
