// Package domain defines the core business entities of the deck video
// generation system: decks, cards, their lifecycle statuses, and the pure
// derivation rules that map generation outcomes onto those statuses.
package domain
