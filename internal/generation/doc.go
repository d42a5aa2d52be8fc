// Package generation defines the abstraction over the third-party video
// generation provider: the request and status types exchanged with it and
// the sentinel errors used to classify provider responses.
package generation
