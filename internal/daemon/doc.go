// Package daemon provides the main orchestration for the toastify server.
// It wires the toast stack to history, metrics, the HTTP/WebSocket server
// and configuration hot-reload.
package daemon
