package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is one registered asset.
type Entry struct {
	// ID is the opaque identifier returned by Register.
	ID string
	// Name is the asset name given at registration.
	Name string
	// Asset is the registered value.
	Asset any
	// Registered is the registration time.
	Registered time.Time
}

// assetRegistry is the implementation of the AssetRegistry interface.
type assetRegistry struct {
	mu      sync.RWMutex
	entries map[string]Entry
	now     func() time.Time
}

// AssetRegistry stores imported models and materials under opaque identifiers.
// It is safe for concurrent use.
type AssetRegistry interface {
	// Register stores an asset and returns its new identifier.
	//
	// Parameters:
	//   - name: the asset name
	//   - asset: the asset
	//
	// Returns:
	//   - string: the identifier
	Register(name string, asset any) string

	// Get retrieves an asset by identifier.
	//
	// Parameters:
	//   - id: the identifier
	//
	// Returns:
	//   - Entry: the entry
	//   - bool: true if the identifier is registered
	Get(id string) (Entry, bool)

	// FindByName returns every entry registered under name, oldest first.
	//
	// Parameters:
	//   - name: the asset name
	//
	// Returns:
	//   - []Entry: the entries
	FindByName(name string) []Entry

	// Remove forgets an asset.
	//
	// Parameters:
	//   - id: the identifier
	//
	// Returns:
	//   - bool: true if the identifier was registered
	Remove(id string) bool

	// Len returns the number of registered assets.
	//
	// Returns:
	//   - int: the count
	Len() int
}

var _ AssetRegistry = &assetRegistry{}

// RegistryBuilderOption is a functional option for configuring an AssetRegistry via NewAssetRegistry.
type RegistryBuilderOption func(*assetRegistry)

// WithClock is an option builder that sets the clock used to stamp registrations.
//
// Parameters:
//   - now: the clock
//
// Returns:
//   - RegistryBuilderOption: a function that applies the clock option to a registry
func WithClock(now func() time.Time) RegistryBuilderOption {
	return func(r *assetRegistry) {
		r.now = now
	}
}

// NewAssetRegistry creates an empty AssetRegistry.
//
// Parameters:
//   - options: a variadic list of RegistryBuilderOption functions
//
// Returns:
//   - AssetRegistry: the registry
func NewAssetRegistry(options ...RegistryBuilderOption) AssetRegistry {
	r := &assetRegistry{
		entries: make(map[string]Entry),
		now:     time.Now,
	}
	for _, option := range options {
		option(r)
	}
	return r
}

func (r *assetRegistry) Register(name string, asset any) string {
	id := uuid.NewString()

	r.mu.Lock()
	r.entries[id] = Entry{ID: id, Name: name, Asset: asset, Registered: r.now()}
	r.mu.Unlock()

	return id
}

func (r *assetRegistry) Get(id string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return e, ok
}

func (r *assetRegistry) FindByName(name string) []Entry {
	r.mu.RLock()
	var found []Entry
	for _, e := range r.entries {
		if e.Name == name {
			found = append(found, e)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(found, func(i, j int) bool {
		return found[i].Registered.Before(found[j].Registered)
	})
	return found
}

func (r *assetRegistry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		return false
	}
	delete(r.entries, id)
	return true
}

func (r *assetRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Lookup retrieves an asset by identifier and asserts its type.
//
// Parameters:
//   - r: the registry
//   - id: the identifier
//
// Returns:
//   - T: the asset
//   - bool: true if the identifier is registered with a T
func Lookup[T any](r AssetRegistry, id string) (T, bool) {
	var zero T
	e, ok := r.Get(id)
	if !ok {
		return zero, false
	}
	v, ok := e.Asset.(T)
	if !ok {
		return zero, false
	}
	return v, true
}
