// Package middleware wraps session stores with storage-side protections:
// PII masking of the conversation history and AES-GCM encryption at rest.
package middleware

import "github.com/aretw0/becas/pkg/ports"

// Middleware allows wrapping a SessionStore to add behavior.
type Middleware func(ports.SessionStore) ports.SessionStore

// Chain applies middlewares so that the first one listed sees the session first.
func Chain(store ports.SessionStore, mws ...Middleware) ports.SessionStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
