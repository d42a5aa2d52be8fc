// Package store defines the persistence interfaces and sentinel errors used
// by the services. The deck collection is a flat, full-collection resource:
// implementations load and save the whole set of decks and serialize
// read-modify-write cycles through Update.
package store
