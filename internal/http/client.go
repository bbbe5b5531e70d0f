// Package http builds the proxy-aware HTTP transport used for all calls to
// the new-api deployment.
package http

import (
	"crypto/tls"
	"net"
	nethttp "net/http"
	"os"

	"golang.org/x/net/http2"

	"github.com/RainInQAQ/new-api-admin/internal/config"
	"github.com/RainInQAQ/new-api-admin/internal/constants"
)

// NewClient creates an HTTP client configured from cfg.
//
// The transport honors the configured proxy mode (see ConfigureProxy) and
// enables HTTP/2 where the path to the server allows it. HTTP/2 is turned
// off when a proxy is active unless FORCE_HTTP2=true: proxies frequently
// mishandle HTTP/2 multiplexing and fail mid-request.
func NewClient(cfg *config.Config) (*nethttp.Client, error) {
	transport := &nethttp.Transport{
		DialContext: (&net.Dialer{
			Timeout:   constants.HTTPDialTimeout,
			KeepAlive: constants.HTTPDialKeepAlive,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		MaxIdleConns:          16,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       constants.HTTPIdleConnTimeout,
		TLSHandshakeTimeout:   constants.HTTPTLSHandshakeTimeout,
		ExpectContinueTimeout: constants.HTTPExpectContinueTimeout,
	}

	client, err := ConfigureProxy(transport, cfg)
	if err != nil {
		return nil, err
	}

	if tr, ok := client.Transport.(*nethttp.Transport); ok {
		tr.ForceAttemptHTTP2 = true
		_ = http2.ConfigureTransport(tr)

		if proxyActive(cfg) && os.Getenv("FORCE_HTTP2") != "true" {
			tr.ForceAttemptHTTP2 = false
			tr.TLSNextProto = make(map[string]func(string, *tls.Conn) nethttp.RoundTripper)
		}
	}
	// When the transport is wrapped (NTLM negotiator), leave it alone: the
	// wrapper owns the round-trip behavior.

	client.Timeout = constants.HTTPRequestTimeout
	return client, nil
}

func proxyActive(cfg *config.Config) bool {
	switch cfg.Proxy.Mode {
	case "no-proxy", "":
		return false
	case "system":
		return os.Getenv("HTTP_PROXY") != "" || os.Getenv("HTTPS_PROXY") != "" ||
			os.Getenv("http_proxy") != "" || os.Getenv("https_proxy") != ""
	default:
		return true
	}
}
