// Package events carries notifications about task changes.
//
// The task service emits a TaskEvent after every mutation that reached the
// backing file. Handlers registered with an EventEmitter receive the event
// synchronously; the emitter never rolls back the change when a handler fails.
//
// The primary components are:
// - TaskEvent: a created, updated or deleted notification with the task as payload
// - EventHandler: interface for components that react to events
// - EventEmitter: interface for components that dispatch events
package events
