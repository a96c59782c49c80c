package utils

import (
	"net"
	"net/http"
	"syscall"
	"time"
)

type HTTPClientConfig struct {
	Timeout        time.Duration
	UserAgent      string
	HighThreadMode bool // larger socket receive buffers for many parallel segments
}

type HTTPClient struct {
	client *http.Client
	config HTTPClientConfig
}

func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	transport := &http.Transport{
		Proxy:              http.ProxyFromEnvironment,
		DisableCompression: true, // byte ranges must address the raw entity
	}
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	if cfg.HighThreadMode {
		dialer.Control = func(network, address string, c syscall.RawConn) error {
			return c.Control(func(fd uintptr) {
				tuneSocket(fd)
			})
		}
	}
	transport.DialContext = dialer.DialContext
	// Timeout covers the header phase only; bodies are bounded by the request context.
	transport.ResponseHeaderTimeout = cfg.Timeout
	return &HTTPClient{
		client: &http.Client{Transport: transport},
		config: cfg,
	}
}

// WrapHTTPClient reuses an existing client, e.g. an httptest server's.
func WrapHTTPClient(client *http.Client, cfg HTTPClientConfig) *HTTPClient {
	return &HTTPClient{client: client, config: cfg}
}

func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	} else {
		req.Header.Set("User-Agent", ToolUserAgent)
	}
	return c.client.Do(req)
}
