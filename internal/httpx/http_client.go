// Package httpx holds the shared HTTP client for backend calls. One client,
// one timeout: every request in the process is bounded the same way.
package httpx

import (
	"net/http"
	"time"
)

const defaultBackendTimeout = 30 * time.Second

var backendHTTPClient = &http.Client{
	Timeout: defaultBackendTimeout,
}

// Client returns the shared backend HTTP client.
func Client() *http.Client {
	return backendHTTPClient
}

// Configure sets the shared client timeout from a config value in seconds.
// Zero or negative keeps the default. Returns the effective timeout.
func Configure(seconds int) time.Duration {
	if seconds <= 0 {
		backendHTTPClient.Timeout = defaultBackendTimeout
		return defaultBackendTimeout
	}
	d := time.Duration(seconds) * time.Second
	backendHTTPClient.Timeout = d
	return d
}
