// Package server provides the HTTP server for the live counter widget.
//
// This package is internal to livecounter and handles all HTTP concerns:
//
//   - Widget serving: Serves the embedded HTML/CSS/JS widget at "/"
//   - REST API: JSON endpoint at "/api/counter" for the current field values
//   - Server-Sent Events: Real-time field updates at "/api/sse"
//   - Visibility: "/api/visibility" relays the page's visibilitychange events
//
// Routing uses chi with the Recoverer and RequestID middleware; the /api
// routes carry CORS headers so the widget can be embedded on another origin.
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
package server
