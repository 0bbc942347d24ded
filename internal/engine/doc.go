// Package engine is the in-process batch host. It resolves processes from the
// registry, binds and validates positional inputs against their signatures,
// bounds concurrent runs, enforces timeouts via context deadlines, stores
// outputs in the value database, and records each run's lifecycle in the
// store as it happens.
package engine
