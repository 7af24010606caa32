// Package file provides file-based configuration adapters: the typed
// TOML application config, the versioned synonym table, and the
// user-editable prompt store.
package file
