// Package events defines the roster events emitted on the event bus.
//
// AssignmentEvent covers assignments, blocks, rollbacks, partial writes,
// status changes and reassignment plans; Action tells them apart.
package events
