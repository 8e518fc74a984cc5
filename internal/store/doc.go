// Package store provides an in-memory widget display with pub/sub.
//
// This package is internal to livecounter. [MemoryStore] implements
// livecounter.Display so a Counter can render into it, and fans every change
// out to subscribers such as the SSE handler of the widget server.
//
// The main components are:
//
//   - [Store]: Interface combining the display with read and subscribe operations
//   - [MemoryStore]: In-memory implementation of Store
//   - [FieldState]: JSON representation of one widget field
//   - [Event]: Message delivered to subscribers
//
// Subscribers receive events via channels with non-blocking sends (slow
// subscribers will miss animation frames rather than block the counter).
package store
