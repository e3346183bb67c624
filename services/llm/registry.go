// Copyright (C) 2026 Inkwell AI (dev@inkwell-ai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import (
	"fmt"
	"sync"
)

// Registry resolves a provider name to a generation client. Agents are
// configured with (provider, model) pairs; the registry maps the
// provider half and passes the model through to the client.
//
// Thread Safety:
//
//	Registry is safe for concurrent use.
type Registry struct {
	mu              sync.RWMutex
	clients         map[string]Client
	defaultProvider string
}

// NewRegistry creates an empty registry with a default provider name.
func NewRegistry(defaultProvider string) *Registry {
	return &Registry{
		clients:         make(map[string]Client),
		defaultProvider: defaultProvider,
	}
}

// Register adds or replaces a provider's client.
func (r *Registry) Register(provider string, c Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[provider] = c
}

// Resolve returns the client for a provider. An empty provider means
// the registry's default.
func (r *Registry) Resolve(provider string) (Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if provider == "" {
		provider = r.defaultProvider
	}
	c, ok := r.clients[provider]
	if !ok {
		return nil, fmt.Errorf("no client registered for provider %q", provider)
	}
	return c, nil
}

// Providers returns the registered provider names.
func (r *Registry) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	return names
}
