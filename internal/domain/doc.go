// Package domain contains the task entity, its priority levels, and the
// field rules every stored task must satisfy. It has no knowledge of how
// tasks are persisted or delivered.
package domain
