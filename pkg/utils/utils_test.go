package utils

import (
	"fmt"
	"net"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFreePort(t *testing.T) {
	port, err := FreePort()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if port <= 0 {
		t.Fatalf("unexpected port: %d", port)
	}

	l, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", port))
	if err != nil {
		t.Fatalf("expected port %d to be free: %s", port, err)
	}
	defer l.Close()

	taken := l.Addr().(*net.TCPAddr).Port

	other, err := FreePort(taken)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if other == taken {
		t.Fatalf("expected a different port to %d", taken)
	}
}

func TestCRC32Hash(t *testing.T) {
	if got, exp := CRC32Hash([]byte("hello")), "3610a686"; got != exp {
		t.Fatalf("expected %s, got %s", exp, got)
	}
}

func TestCacheFor(t *testing.T) {
	testCases := map[string]struct {
		d    time.Duration
		want string
	}{
		"a minute":      {d: time.Minute, want: "public, max-age=60"},
		"partial":       {d: 90*time.Second + 500*time.Millisecond, want: "public, max-age=90"},
		"under second":  {d: 10 * time.Millisecond, want: "no-store"},
		"zero duration": {d: 0, want: "no-store"},
	}

	for description, tc := range testCases {
		t.Run(description, func(t *testing.T) {
			rr := httptest.NewRecorder()

			CacheFor(rr, tc.d)

			if got := rr.Header().Get("Cache-Control"); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestNoStore(t *testing.T) {
	rr := httptest.NewRecorder()

	NoStore(rr)

	if got, exp := rr.Header().Get("Cache-Control"), "no-store"; got != exp {
		t.Fatalf("expected %s, got %s", exp, got)
	}
}

func TestHumanizeBytes(t *testing.T) {
	testCases := map[string]struct {
		bytes int64
		want  string
	}{
		"zero":       {bytes: 0, want: "0B"},
		"bytes":      {bytes: 512, want: "512B"},
		"kilobytes":  {bytes: 1536, want: "1.5KB"},
		"megabytes":  {bytes: 25 << 20, want: "25MB"},
		"gigabytes":  {bytes: 3 << 30, want: "3.0GB"},
		"large kb":   {bytes: 10 * 1024, want: "10KB"},
		"negative":   {bytes: -1, want: "0B"},
		"small unit": {bytes: 1, want: "1B"},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			if got := HumanizeBytes(tc.bytes); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}
