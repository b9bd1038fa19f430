// Package metrics provides Prometheus metrics for a Dreo WebSocket session.
//
// Key metrics:
//   - Connect attempts and current connection state
//   - Message and byte rates on the receive loop
//   - Transport errors and close codes
//   - Panics recovered from user callbacks
package metrics
