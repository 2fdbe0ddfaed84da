// Package store defines the persistence contract for tasks. Implementations
// live under internal/platform; business logic depends only on these
// interfaces and sentinel errors.
package store
