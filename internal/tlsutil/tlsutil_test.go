package tlsutil

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTLSConfig(t *testing.T) {
	cfg := DefaultTLSConfig()
	assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinVersion)
	assert.ElementsMatch(t, aeadSuites, cfg.CipherSuites)
	assert.Equal(t, tls.X25519, cfg.CurvePreferences[0])

	// 每次返回独立副本
	cfg.CipherSuites[0] = 0
	assert.NotEqual(t, uint16(0), DefaultTLSConfig().CipherSuites[0])
}

func TestRedisTLSConfig(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{"redis.internal:6380", "redis.internal"},
		{"10.0.0.5:6379", "10.0.0.5"},
		{"[::1]:6379", "::1"},
		{"cache.example.com", "cache.example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			cfg := RedisTLSConfig(tt.addr)
			assert.Equal(t, tt.want, cfg.ServerName)
			assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinVersion)
		})
	}
}

func TestSecureTransport(t *testing.T) {
	tr := SecureTransport(0)
	assert.Equal(t, defaultMaxIdlePerHost, tr.MaxIdleConnsPerHost)
	assert.True(t, tr.ForceAttemptHTTP2)
	require.NotNil(t, tr.TLSClientConfig)
	assert.NotNil(t, tr.Proxy)

	assert.Equal(t, 2, SecureTransport(2).MaxIdleConnsPerHost)
}

func TestSecureHTTPClient(t *testing.T) {
	c := SecureHTTPClient(3 * time.Second)
	assert.Equal(t, 3*time.Second, c.Timeout)
	_, ok := c.Transport.(*http.Transport)
	assert.True(t, ok)
}

func TestSecureHTTPClient_TLSHandshake(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := SecureHTTPClient(5 * time.Second)
	tr := c.Transport.(*http.Transport)
	// 信任测试服务器的自签名证书，保留其余设置
	tr.TLSClientConfig.RootCAs = srv.Client().Transport.(*http.Transport).TLSClientConfig.RootCAs

	resp, err := c.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, resp.TLS)
	assert.GreaterOrEqual(t, resp.TLS.Version, uint16(tls.VersionTLS12))
}
