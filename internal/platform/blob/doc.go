// Package blob implements the blob-store collaborator: fetching generated
// videos from the provider's transient result URLs and republishing them
// under durable, publicly served URLs.
package blob
