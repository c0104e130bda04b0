// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/gogpu/rendergraph/rhi"
)

// Factory opens a device for a registered backend.
type Factory func(opts Options) (rhi.Device, error)

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)
	// Priority order for backend selection (first that opens wins).
	backendPriority = []string{BackendNative, BackendRecording}
	// aliases maps graphics API names accepted on the command line to
	// registered backends.
	aliases = map[string]string{
		"vulkan": BackendNative,
		"v":      BackendNative,
		"vk":     BackendNative,
		"gpu":    BackendNative,
		"null":   BackendRecording,
		"none":   BackendRecording,
	}
)

// Register registers a backend factory with the given name.
// This is called from init() functions in backend packages, so selecting a
// backend is a matter of importing it:
//
//	import _ "github.com/gogpu/rendergraph/backend/native"
//
// Register panics if factory is nil or the name is already registered.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if factory == nil {
		panic("backend: Register factory is nil")
	}
	if _, dup := factories[name]; dup {
		panic("backend: Register called twice for " + name)
	}
	factories[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, name)
}

// Resolve maps an API name or alias to a backend name. Unknown names are
// returned lower-cased so "DX12" and "dx12" resolve alike.
func Resolve(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if target, ok := aliases[n]; ok {
		return target
	}
	return n
}

// Available returns the registered backend names, sorted.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered reports whether name (or its alias) is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := factories[Resolve(name)]
	return ok
}

// Get opens a device on the named backend. name may be an alias such as
// "vulkan"; opts.API is set to the requested name when empty.
func Get(name string, opts Options) (rhi.Device, error) {
	resolved := Resolve(name)

	registryMu.RLock()
	factory, ok := factories[resolved]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q (forgotten import?)", ErrBackendNotAvailable, name)
	}
	if opts.API == "" {
		opts.API = name
	}
	dev, err := factory(opts.WithDefaults())
	if err != nil {
		return nil, fmt.Errorf("backend %s: %w", resolved, err)
	}
	return dev, nil
}

// Default opens the first backend in priority order that succeeds.
// Priority order: native > recording, then any other registered backend.
// The returned error joins every failure when none succeeds.
func Default(opts Options) (rhi.Device, error) {
	registryMu.RLock()
	order := make([]string, 0, len(factories))
	seen := make(map[string]bool, len(factories))
	for _, name := range backendPriority {
		if _, ok := factories[name]; ok {
			order = append(order, name)
			seen[name] = true
		}
	}
	var rest []string
	for name := range factories {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	registryMu.RUnlock()

	sort.Strings(rest)
	order = append(order, rest...)
	if len(order) == 0 {
		return nil, ErrNoBackends
	}

	var errs []error
	for _, name := range order {
		dev, err := Get(name, opts)
		if err == nil {
			return dev, nil
		}
		errs = append(errs, err)
	}
	return nil, fmt.Errorf("%w: %w", ErrBackendNotAvailable, errors.Join(errs...))
}

// Open resolves name and opens the backend, falling back to Default when
// name is empty.
func Open(name string, opts Options) (rhi.Device, error) {
	if strings.TrimSpace(name) == "" {
		return Default(opts)
	}
	return Get(name, opts)
}
