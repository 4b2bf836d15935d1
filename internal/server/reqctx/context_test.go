package reqctx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/maruel/ksid"
)

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		xRealIP    string
		remoteAddr string
		want       string
	}{
		{name: "RemoteAddrWithPort", remoteAddr: "192.168.1.1:12345", want: "192.168.1.1"},
		{name: "RemoteAddrNoPort", remoteAddr: "192.168.1.1", want: "192.168.1.1"},
		{name: "IPv6RemoteAddr", remoteAddr: "[::1]:8080", want: "::1"},
		{name: "ForwardedFor", xff: "203.0.113.195", remoteAddr: "127.0.0.1:80", want: "203.0.113.195"},
		{name: "ForwardedForChain", xff: "203.0.113.195, 70.41.3.18", remoteAddr: "127.0.0.1:80", want: "203.0.113.195"},
		{name: "ForwardedForPadded", xff: "  203.0.113.195  ", remoteAddr: "127.0.0.1:80", want: "203.0.113.195"},
		{name: "RealIP", xRealIP: "203.0.113.195", remoteAddr: "127.0.0.1:80", want: "203.0.113.195"},
		{name: "ForwardedForBeatsRealIP", xff: "203.0.113.195", xRealIP: "10.0.0.1", remoteAddr: "127.0.0.1:80", want: "203.0.113.195"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xRealIP != "" {
				req.Header.Set("X-Real-IP", tt.xRealIP)
			}
			if got := GetClientIP(req); got != tt.want {
				t.Errorf("GetClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestContextAccessors(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		ctx := context.Background()
		if ClientIP(ctx) != "" || UserAgent(ctx) != "" || TokenString(ctx) != "" {
			t.Error("empty context returned values")
		}
		if !SessionID(ctx).IsZero() {
			t.Error("empty context has a session ID")
		}
	})

	t.Run("RoundTrip", func(t *testing.T) {
		id := ksid.NewID()
		ctx := WithClientIP(context.Background(), "10.1.2.3")
		ctx = WithUserAgent(ctx, "shelf-test/1.0")
		ctx = WithSessionID(ctx, id)
		ctx = WithTokenString(ctx, "tok")

		if got := ClientIP(ctx); got != "10.1.2.3" {
			t.Errorf("ClientIP() = %q", got)
		}
		if got := UserAgent(ctx); got != "shelf-test/1.0" {
			t.Errorf("UserAgent() = %q", got)
		}
		if got := SessionID(ctx); got != id {
			t.Errorf("SessionID() = %v, want %v", got, id)
		}
		if got := TokenString(ctx); got != "tok" {
			t.Errorf("TokenString() = %q", got)
		}
	})
}
