package loader

import (
	"sync"
	"time"

	"golang.org/x/text/language"

	"github.com/robfig/hashtpl/errortypes"
)

// Memory holds templates in memory.  It is safe for concurrent use.
type Memory struct {
	mu        sync.RWMutex
	templates map[string]memoryEntry
	now       func() time.Time
}

type memoryEntry struct {
	source  string
	modTime time.Time
}

// NewMemory returns a loader holding the given sources.
func NewMemory(templates map[string]string) *Memory {
	var m = &Memory{templates: make(map[string]memoryEntry), now: time.Now}
	for name, source := range templates {
		m.Set(name, source)
	}
	return m
}

// Set adds or replaces a template.  A replaced template is always newer than
// the one it replaces.
func (m *Memory) Set(name, source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var t = m.now()
	if prev, ok := m.templates[name]; ok && !t.After(prev.modTime) {
		t = prev.modTime.Add(time.Nanosecond)
	}
	m.templates[name] = memoryEntry{source, t}
}

// Remove deletes a template.
func (m *Memory) Remove(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.templates, name)
}

func (m *Memory) resolve(name string, locale language.Tag) (string, memoryEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, candidate := range Candidates(name, locale) {
		if e, ok := m.templates[candidate]; ok {
			return candidate, e, true
		}
	}
	return "", memoryEntry{}, false
}

func (m *Memory) Exists(name string, locale language.Tag) bool {
	var _, _, ok = m.resolve(name, locale)
	return ok
}

func (m *Memory) LastModified(name string, locale language.Tag) (time.Time, error) {
	var _, e, ok = m.resolve(name, locale)
	if !ok {
		return time.Time{}, errortypes.NewNotFound(name)
	}
	return e.modTime, nil
}

// Load returns the stored source.  Memory sources are already decoded, so
// the encoding is only recorded.
func (m *Memory) Load(name string, locale language.Tag, encoding string) (*Resource, error) {
	var found, e, ok = m.resolve(name, locale)
	if !ok {
		return nil, errortypes.NewNotFound(name)
	}
	return &Resource{
		Name:         found,
		Locale:       locale,
		Encoding:     encoding,
		LastModified: e.modTime,
		Source:       e.source,
	}, nil
}
