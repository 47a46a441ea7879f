package tlsutil

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// 补全端点只有一个上游主机，空闲连接按主机计
const (
	defaultMaxIdlePerHost = 8
	dialTimeout           = 15 * time.Second
	handshakeTimeout      = 10 * time.Second
	idleTimeout           = 90 * time.Second
)

// aeadSuites TLS 1.2 下允许的密码套件，TLS 1.3 套件由 Go 固定
var aeadSuites = []uint16{
	tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305,
	tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
}

// DefaultTLSConfig returns the client TLS settings: TLS 1.2 minimum,
// AEAD suites only, X25519 preferred.
func DefaultTLSConfig() *tls.Config {
	return &tls.Config{
		MinVersion:       tls.VersionTLS12,
		CipherSuites:     append([]uint16(nil), aeadSuites...),
		CurvePreferences: []tls.CurveID{tls.X25519, tls.CurveP256},
	}
}

// RedisTLSConfig returns DefaultTLSConfig with ServerName taken from a
// "host:port" address. An address without a port is used as the host.
func RedisTLSConfig(addr string) *tls.Config {
	cfg := DefaultTLSConfig()
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	cfg.ServerName = host
	return cfg
}

// SecureTransport returns a transport for a single upstream. maxIdlePerHost
// <= 0 selects the default.
func SecureTransport(maxIdlePerHost int) *http.Transport {
	if maxIdlePerHost <= 0 {
		maxIdlePerHost = defaultMaxIdlePerHost
	}
	return &http.Transport{
		Proxy:           http.ProxyFromEnvironment,
		TLSClientConfig: DefaultTLSConfig(),
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          maxIdlePerHost,
		MaxIdleConnsPerHost:   maxIdlePerHost,
		IdleConnTimeout:       idleTimeout,
		TLSHandshakeTimeout:   handshakeTimeout,
		ExpectContinueTimeout: time.Second,
	}
}

// SecureHTTPClient returns the client used for completion requests.
// timeout 0 leaves the request deadline to the caller's context.
func SecureHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: SecureTransport(0),
	}
}
