package http

import (
	"fmt"
	nethttp "net/http"
	"net/url"
	"strings"

	ntlmssp "github.com/Azure/go-ntlmssp"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http/httpproxy"

	"github.com/RainInQAQ/new-api-admin/internal/config"
)

// ConfigureProxy applies the configured proxy mode to transport and returns
// the client to use.
//
// Modes:
//   - "no-proxy" (default): direct connection
//   - "system": proxy settings from HTTP_PROXY/HTTPS_PROXY/NO_PROXY
//   - "basic": explicit proxy with optional basic-auth credentials
//   - "ntlm": explicit proxy with NTLM negotiation
//
// basic and ntlm fall back to no-proxy when the host is missing, so an
// incomplete saved config still lets the console start and be reconfigured.
func ConfigureProxy(transport *nethttp.Transport, cfg *config.Config) (*nethttp.Client, error) {
	switch strings.ToLower(cfg.Proxy.Mode) {
	case "no-proxy", "":
		transport.Proxy = nil
		return &nethttp.Client{Transport: transport}, nil

	case "system":
		transport.Proxy = nethttp.ProxyFromEnvironment
		return &nethttp.Client{Transport: transport}, nil

	case "ntlm":
		if cfg.Proxy.Host == "" {
			log.Warn().Msg("proxy mode is ntlm but host is missing, falling back to no-proxy")
			transport.Proxy = nil
			return &nethttp.Client{Transport: transport}, nil
		}
		transport.Proxy = proxyFuncWithBypass(buildProxyURL(&cfg.Proxy), cfg.Proxy.NoProxy)
		return &nethttp.Client{
			Transport: ntlmssp.Negotiator{
				RoundTripper: transport,
			},
		}, nil

	case "basic":
		if cfg.Proxy.Host == "" {
			log.Warn().Msg("proxy mode is basic but host is missing, falling back to no-proxy")
			transport.Proxy = nil
			return &nethttp.Client{Transport: transport}, nil
		}
		if cfg.Proxy.User != "" && cfg.Proxy.Password == "" {
			log.Warn().Msg("proxy user configured but password missing, proxy auth disabled")
		}
		transport.Proxy = proxyFuncWithBypass(buildProxyURL(&cfg.Proxy), cfg.Proxy.NoProxy)
		return &nethttp.Client{Transport: transport}, nil

	default:
		return nil, fmt.Errorf("unsupported proxy mode: %s", cfg.Proxy.Mode)
	}
}

// buildProxyURL constructs a proxy URL from config. Credentials are only
// embedded when both user and password are present; an empty password in
// the URL trips auth failures on some proxies.
func buildProxyURL(p *config.ProxyConfig) *url.URL {
	port := p.Port
	if port == 0 {
		port = 8080
	}

	proxyURL := &url.URL{
		Scheme: "http",
		Host:   fmt.Sprintf("%s:%d", p.Host, port),
	}
	if p.User != "" && p.Password != "" {
		proxyURL.User = url.UserPassword(p.User, p.Password)
	}
	return proxyURL
}

// proxyFuncWithBypass returns a proxy function that respects the NoProxy
// bypass list. With an empty list it behaves identically to
// nethttp.ProxyURL; otherwise golang.org/x/net/http/httpproxy matches
// hosts and CIDRs.
func proxyFuncWithBypass(proxyURL *url.URL, noProxy string) func(*nethttp.Request) (*url.URL, error) {
	if noProxy == "" {
		return nethttp.ProxyURL(proxyURL)
	}
	pc := httpproxy.Config{
		HTTPProxy:  proxyURL.String(),
		HTTPSProxy: proxyURL.String(),
		NoProxy:    noProxy,
	}
	proxyFunc := pc.ProxyFunc()
	return func(req *nethttp.Request) (*url.URL, error) {
		result, err := proxyFunc(req.URL)
		if result == nil {
			log.Debug().Str("host", req.URL.Host).Msg("proxy bypass, direct connection")
		}
		return result, err
	}
}

// NeedsProxyPassword reports whether the proxy configuration requires a
// password that has not been provided. The CLI uses this to decide whether
// to prompt interactively.
func NeedsProxyPassword(cfg *config.Config) bool {
	mode := strings.ToLower(cfg.Proxy.Mode)
	if mode != "basic" && mode != "ntlm" {
		return false
	}
	return cfg.Proxy.User != "" && cfg.Proxy.Password == ""
}
