// Package connection implements the Connection Manager for the Dreo cloud
// WebSocket endpoint.
//
// The Connection Manager:
//   - Builds the regional login URL from an access token and timestamp
//   - Owns one WebSocket and one worker goroutine per Connect
//   - Forwards open, message, error and close events to user handlers
//   - Recovers panics raised by user handlers so the receive loop survives
//   - Does not reconnect; callers decide what to do on close
package connection
