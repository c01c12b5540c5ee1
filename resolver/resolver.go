// Package resolver provides the value sources consulted when a name is not
// bound in the root scope of a render.
package resolver

import (
	"io"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/robfig/hashtpl/data"
	"github.com/robfig/hashtpl/errortypes"
)

// Resolver supplies values for names not bound by the caller.
type Resolver interface {
	Get(name string) (data.Value, bool)
}

// Func adapts a function to the Resolver interface.
type Func func(name string) (data.Value, bool)

func (fn Func) Get(name string) (data.Value, bool) { return fn(name) }

// Map resolves names from a fixed set of values, such as the engine's
// configured properties.
type Map data.Map

func (m Map) Get(name string) (data.Value, bool) {
	v, ok := m[name]
	return v, ok
}

// Env resolves names from the process environment.  The name is looked up
// with Prefix prepended.
type Env struct {
	Prefix string
}

func (e Env) Get(name string) (data.Value, bool) {
	if v, ok := os.LookupEnv(e.Prefix + name); ok {
		return data.String(v), true
	}
	return nil, false
}

// Store is a resolver whose values may be changed while templates render.
// The zero value is empty and ready to use.
type Store struct {
	values sync.Map
}

func (s *Store) Get(name string) (data.Value, bool) {
	v, ok := s.values.Load(name)
	if !ok {
		return nil, false
	}
	return v.(data.Value), true
}

// Set binds name to v.
func (s *Store) Set(name string, v data.Value) {
	s.values.Store(name, v)
}

// Delete removes the binding of name.
func (s *Store) Delete(name string) {
	s.values.Delete(name)
}

// YAML decodes a YAML mapping into a Map resolver.
func YAML(r io.Reader) (Map, error) {
	var raw map[string]interface{}
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil && err != io.EOF {
		return nil, err
	}
	var v, err = data.Convert(raw)
	if err != nil {
		return nil, err
	}
	if m, ok := v.(data.Map); ok {
		return Map(m), nil
	}
	return Map{}, nil
}

// YAMLFile reads a YAML mapping from the named file.
func YAMLFile(filename string) (Map, error) {
	var f, err = os.Open(filename)
	switch {
	case os.IsNotExist(err):
		return nil, errortypes.NewNotFound(filename)
	case err != nil:
		return nil, &errortypes.ResourceError{Name: filename, Kind: errortypes.IO, Err: err}
	}
	defer f.Close()
	m, err := YAML(f)
	if err != nil {
		return nil, &errortypes.ResourceError{Name: filename, Kind: errortypes.Encoding, Err: err}
	}
	return m, nil
}
