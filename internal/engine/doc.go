// Package engine drives identities and module lifecycles for the management
// simulator. It validates status transitions against the runtime state
// machine and persists every change through the store.
package engine
