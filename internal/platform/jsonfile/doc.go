// Package jsonfile implements store.DeckStore on top of a single JSON file
// holding the entire deck collection. Read-modify-write cycles are serialized
// by an in-process mutex plus an OS-level file lock, and each deck carries a
// version counter so stale writes surface as conflicts instead of silently
// overwriting newer state.
package jsonfile
