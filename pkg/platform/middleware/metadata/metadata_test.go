package metadata

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostguard/pkg/requestcontext"
)

func TestClientMetadata(t *testing.T) {
	var got requestcontext.Device
	var ip string
	proxies, err := ParseTrustedProxies([]string{"10.0.0.0/8"})
	require.NoError(t, err)
	h := ClientMetadata(proxies)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = requestcontext.DeviceInfo(r.Context())
		ip = requestcontext.ClientIP(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/verify", nil)
	req.RemoteAddr = "10.0.0.2:40000"
	req.Header.Set("X-Forwarded-For", "41.90.1.2, 10.0.0.1")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Linux; Android 13; SM-A536E) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "41.90.1.2", ip)
	assert.Equal(t, "Chrome", got.Browser)
	assert.Equal(t, "Android", got.OS)
	assert.True(t, got.Mobile)
	assert.False(t, got.Bot)
}

func TestParseDevice_Empty(t *testing.T) {
	assert.Equal(t, requestcontext.Device{}, ParseDevice("   "))
}

func TestClientIPFromRequest(t *testing.T) {
	proxies, err := ParseTrustedProxies([]string{"10.0.0.0/8", "192.0.2.10"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		remote  string
		xff     string
		realIP  string
		trusted bool
		want    string
	}{
		{name: "direct peer", remote: "198.51.100.9:53122", want: "198.51.100.9"},
		{name: "direct peer ignores forwarded for", remote: "198.51.100.9:53122", xff: "1.2.3.4", want: "198.51.100.9"},
		{name: "direct peer ignores real ip", remote: "198.51.100.9:53122", realIP: "1.2.3.4", want: "198.51.100.9"},
		{name: "trusted proxy forwards client", remote: "10.0.0.2:80", xff: "41.90.1.2", trusted: true, want: "41.90.1.2"},
		{name: "spoofed leftmost hop skipped", remote: "10.0.0.2:80", xff: "1.1.1.1, 41.90.1.2", trusted: true, want: "41.90.1.2"},
		{name: "chained trusted proxies", remote: "10.0.0.2:80", xff: "41.90.1.2, 192.0.2.10", trusted: true, want: "41.90.1.2"},
		{name: "all hops trusted", remote: "10.0.0.2:80", xff: "10.1.1.1", trusted: true, want: "10.0.0.2"},
		{name: "trusted real ip", remote: "10.0.0.2:80", realIP: " 41.90.1.3 ", trusted: true, want: "41.90.1.3"},
		{name: "ipv6 peer", remote: "[2001:db8::1]:443", want: "2001:db8::1"},
		{name: "no port", remote: "198.51.100.9", want: "198.51.100.9"},
		{name: "empty remote", remote: "", want: "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			var trusted []netip.Prefix
			if tt.trusted {
				trusted = proxies
			}
			assert.Equal(t, tt.want, ClientIPFromRequest(req, trusted))
		})
	}
}

func TestParseTrustedProxies(t *testing.T) {
	got, err := ParseTrustedProxies([]string{"10.1.2.3/8", " 192.0.2.10 ", "2001:db8::/32"})
	require.NoError(t, err)
	assert.Equal(t, []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("192.0.2.10/32"),
		netip.MustParsePrefix("2001:db8::/32"),
	}, got)

	_, err = ParseTrustedProxies([]string{"not-an-ip"})
	assert.Error(t, err)
}
