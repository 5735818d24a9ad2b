package httpx

import (
	"testing"
	"time"
)

func TestBackendClientTimeout(t *testing.T) {
	if backendHTTPClient == nil {
		t.Fatal("backendHTTPClient must not be nil")
	}
	if backendHTTPClient.Timeout != defaultBackendTimeout {
		t.Fatalf("backendHTTPClient timeout = %s, want %s", backendHTTPClient.Timeout, defaultBackendTimeout)
	}
}

func TestConfigure(t *testing.T) {
	original := backendHTTPClient.Timeout
	t.Cleanup(func() {
		backendHTTPClient.Timeout = original
	})

	got := Configure(0)
	if got != defaultBackendTimeout {
		t.Fatalf("Configure(0) = %s, want %s", got, defaultBackendTimeout)
	}

	got = Configure(120)
	if got != 120*time.Second {
		t.Fatalf("Configure(120) = %s, want %s", got, 120*time.Second)
	}
	if backendHTTPClient.Timeout != 120*time.Second {
		t.Fatalf("configured timeout = %s, want %s", backendHTTPClient.Timeout, 120*time.Second)
	}
}
