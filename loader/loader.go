// Package loader reads autowire configuration documents (YAML or JSON) and applies them to an
// autowire.Config.
//
// A document looks like this:
//
//	aliases:
//	  Store.Primary: github.com/acme/store.S3Store
//	preferences:
//	  github.com/acme/store.Store: Store.Primary
//	types:
//	  github.com/acme/report.Service:
//	    preferences:
//	      github.com/acme/store.Store: github.com/acme/store.MemoryStore
//	    parameters:
//	      bucket: reports
//	      cache: {$type: github.com/acme/cache.Redis}
//
// Type entries may also be given at the top level. Keys that are neither recognised nor look like a
// type entry are ignored.
package loader

import (
	"context"
	"log/slog"
	"sort"

	"github.com/gburgyan/go-autowire"
	"github.com/pkg/errors"
	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

const (
	keyAliases     = "aliases"
	keyPreferences = "preferences"
	keyTypes       = "types"
	keyTypeOf      = "typeOf"
	keyParameters  = "parameters"
	// typeRefKey marks a parameter value that forces a type injection.
	typeRefKey = "$type"
)

// Loader downloads configuration documents and applies them.
type Loader struct {
	fs     afs.Service
	logger *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger used for ignored keys.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// New creates a Loader reading through fs. A nil fs uses afs.New().
func New(fs afs.Service, opts ...Option) *Loader {
	l := &Loader{fs: fs}
	for _, opt := range opts {
		opt(l)
	}
	if l.fs == nil {
		l.fs = afs.New()
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l
}

// Load downloads the document at URL and applies it to cfg.
func (l *Loader) Load(ctx context.Context, URL string, cfg *autowire.Config) error {
	data, err := l.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return errors.Wrapf(err, "failed to load configuration: %v", URL)
	}
	doc, err := Parse(data)
	if err != nil {
		return errors.Wrapf(err, "failed to parse configuration: %v", URL)
	}
	if err := l.Apply(doc, cfg); err != nil {
		return errors.Wrapf(err, "invalid configuration: %v", URL)
	}
	return nil
}

// Parse decodes a YAML or JSON document.
func Parse(data []byte) (map[string]any, error) {
	doc := map[string]any{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "failed to decode document")
	}
	return doc, nil
}

// Apply applies a decoded document to cfg. Aliases are applied first, then global preferences, then
// type entries in name order. The first invalid setting stops the load.
func (l *Loader) Apply(doc map[string]any, cfg *autowire.Config) error {
	if raw, ok := doc[keyAliases]; ok {
		aliases, err := stringMap(raw, keyAliases)
		if err != nil {
			return err
		}
		for _, name := range sortedKeys(aliases) {
			if err := cfg.SetAlias(autowire.TypeName(name), autowire.TypeName(aliases[name])); err != nil {
				return errors.Wrapf(err, "alias %v", name)
			}
		}
	}

	if raw, ok := doc[keyPreferences]; ok {
		preferences, err := stringMap(raw, keyPreferences)
		if err != nil {
			return err
		}
		for _, declared := range sortedKeys(preferences) {
			err := cfg.SetTypePreference(autowire.TypeName(declared), autowire.TypeName(preferences[declared]))
			if err != nil {
				return errors.Wrapf(err, "preference %v", declared)
			}
		}
	}

	entries := map[string]map[string]any{}
	if raw, ok := doc[keyTypes]; ok {
		types, ok := raw.(map[string]any)
		if !ok {
			return errors.Errorf("%v must be a mapping, got %T", keyTypes, raw)
		}
		for name, value := range types {
			entry, ok := value.(map[string]any)
			if !ok {
				return errors.Errorf("type entry %v must be a mapping, got %T", name, value)
			}
			entries[name] = entry
		}
	}
	for key, value := range doc {
		switch key {
		case keyAliases, keyPreferences, keyTypes:
			continue
		}
		entry, ok := value.(map[string]any)
		if !ok || !isTypeEntry(entry) {
			l.logger.Debug("ignoring unrecognised configuration key", "key", key)
			continue
		}
		entries[key] = entry
	}

	for _, name := range sortedKeys(entries) {
		entry, err := l.typeEntry(name, entries[name])
		if err != nil {
			return err
		}
		if err := cfg.SetEntry(autowire.TypeName(name), entry); err != nil {
			return errors.Wrapf(err, "type %v", name)
		}
	}
	return nil
}

func isTypeEntry(entry map[string]any) bool {
	for _, key := range []string{keyTypeOf, keyParameters, keyPreferences} {
		if _, ok := entry[key]; ok {
			return true
		}
	}
	return false
}

func (l *Loader) typeEntry(name string, raw map[string]any) (autowire.TypeEntry, error) {
	entry := autowire.TypeEntry{}
	for key, value := range raw {
		switch key {
		case keyTypeOf:
			typeOf, ok := value.(string)
			if !ok {
				return entry, errors.Errorf("%v of %v must be a string, got %T", keyTypeOf, name, value)
			}
			entry.TypeOf = autowire.TypeName(typeOf)
		case keyPreferences:
			preferences, err := stringMap(value, name+"."+keyPreferences)
			if err != nil {
				return entry, err
			}
			entry.Preferences = map[autowire.TypeName]autowire.TypeName{}
			for declared, preferred := range preferences {
				entry.Preferences[autowire.TypeName(declared)] = autowire.TypeName(preferred)
			}
		case keyParameters:
			params, ok := value.(map[string]any)
			if !ok {
				return entry, errors.Errorf("%v of %v must be a mapping, got %T", keyParameters, name, value)
			}
			entry.Parameters = map[string]any{}
			for param, v := range params {
				entry.Parameters[param] = parameterValue(v)
			}
		default:
			l.logger.Debug("ignoring unrecognised type entry key", "type", name, "key", key)
		}
	}
	return entry, nil
}

// parameterValue turns a {$type: Name} mapping into a forced type binding. Everything else is a
// literal.
func parameterValue(value any) any {
	m, ok := value.(map[string]any)
	if !ok || len(m) != 1 {
		return value
	}
	name, ok := m[typeRefKey].(string)
	if !ok {
		return value
	}
	return autowire.Ref(autowire.TypeName(name))
}

func stringMap(raw any, what string) (map[string]string, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, errors.Errorf("%v must be a mapping, got %T", what, raw)
	}
	result := make(map[string]string, len(m))
	for k, v := range m {
		s, ok := v.(string)
		if !ok {
			return nil, errors.Errorf("%v.%v must be a type name, got %T", what, k, v)
		}
		result[k] = s
	}
	return result, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
