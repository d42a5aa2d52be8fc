// Package task holds the in-process task ledger: the mapping from opaque
// provider task identifiers to the deck/card context each submission was made
// for. The ledger is ephemeral; after a restart its entries are reconstructed
// from the persisted card on demand.
package task
