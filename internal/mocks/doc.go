// Package mocks provides hand-written test doubles shared across package
// tests: a scriptable video generator, an in-memory deck store, and a
// recording video publisher.
package mocks
