// Package store holds the transient state of one build, isolated per build
// handle. A scope is created before its first use and discarded when the
// build finishes; nothing survives a process restart.
package store

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Handle identifies one build's scope. Distinct handles never share data.
type Handle struct {
	id string
}

// NewHandle returns a fresh, globally unique build handle.
func NewHandle() Handle {
	return Handle{id: uuid.NewString()}
}

// String returns the handle identity for logging and event records.
func (h Handle) String() string { return h.id }

// Namespace partitions keys within one build scope.
type Namespace string

const (
	NamespaceTemplate Namespace = "template"
	NamespaceNavStub  Namespace = "navstub"
	NamespacePages    Namespace = "pages_file"
)

// Well-known keys inside namespaces.
const (
	KeyNavStub = "nav"
	KeyPages   = "pages"
	KeyPosts   = "posts"
)

// NotFoundError reports a lookup miss: either an unknown handle or an
// absent (namespace, key) entry.
type NotFoundError struct {
	Handle    Handle
	Namespace Namespace
	Key       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("store: no entry for build %s under %s/%s", e.Handle, e.Namespace, e.Key)
}

// Store maps (handle, namespace, key) to values.
//
// The handle map is guarded so scopes can be created and destroyed from
// different goroutines. Writes to the same key within one scope are not
// guarded: pipeline stages commit only after all their child tasks have
// joined, so within-stage writes are single-writer by construction.
type Store struct {
	mu     sync.RWMutex
	scopes map[Handle]map[Namespace]map[string]any
}

// New returns an empty store.
func New() *Store {
	return &Store{scopes: make(map[Handle]map[Namespace]map[string]any)}
}

// Create initializes the scope for a handle. Creating an existing scope is
// a no-op so a retried build setup stays idempotent.
func (s *Store) Create(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.scopes[h]; !ok {
		s.scopes[h] = make(map[Namespace]map[string]any)
	}
}

// Put stores a value under (handle, namespace, key). The scope must exist.
func (s *Store) Put(h Handle, ns Namespace, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	scope, ok := s.scopes[h]
	if !ok {
		return &NotFoundError{Handle: h, Namespace: ns, Key: key}
	}
	bucket, ok := scope[ns]
	if !ok {
		bucket = make(map[string]any)
		scope[ns] = bucket
	}
	bucket[key] = value
	return nil
}

// Get returns the value under (handle, namespace, key), or a NotFoundError.
func (s *Store) Get(h Handle, ns Namespace, key string) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	scope, ok := s.scopes[h]
	if !ok {
		return nil, &NotFoundError{Handle: h, Namespace: ns, Key: key}
	}
	value, ok := scope[ns][key]
	if !ok {
		return nil, &NotFoundError{Handle: h, Namespace: ns, Key: key}
	}
	return value, nil
}

// Destroy discards the entire scope for a handle. Destroying an unknown
// handle is a no-op.
func (s *Store) Destroy(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.scopes, h)
}
