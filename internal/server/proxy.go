package server

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/auth-front/auth-front/internal/cookie"
	"github.com/auth-front/auth-front/internal/flow"
	jsonwriter "github.com/auth-front/auth-front/internal/json"
	"github.com/auth-front/auth-front/internal/log"
)

// UpstreamProxy forwards every request that no authentication endpoint
// claimed to the configured upstream, injecting the browser's bearer token
// when one is available. Cookies never cross to the upstream.
type UpstreamProxy struct {
	upstream *url.URL
	flow     *flow.Controller
	client   *http.Client
}

// NewUpstreamProxy creates the fallback proxy handler
func NewUpstreamProxy(upstreamURL string, flowController *flow.Controller, timeout time.Duration) (*UpstreamProxy, error) {
	u, err := url.Parse(upstreamURL)
	if err != nil {
		return nil, fmt.Errorf("parsing upstream URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("upstream URL must be absolute, got %q", upstreamURL)
	}

	return &UpstreamProxy{
		upstream: u,
		flow:     flowController,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

// ServeHTTP implements http.Handler
func (p *UpstreamProxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	jar, token := p.flow.CredentialForRequest(r.Context(), cookie.FromRequest(r))
	jar.Write(w)

	target := *p.upstream
	target.Path = joinProxyPath(p.upstream.Path, r.URL.Path)
	target.RawQuery = r.URL.RawQuery

	req, err := http.NewRequestWithContext(r.Context(), r.Method, target.String(), r.Body)
	if err != nil {
		log.LogErrorWithFields("proxy", "Failed to build upstream request", map[string]any{
			"error": err.Error(),
		})
		jsonwriter.WriteInternalServerError(w, "Failed to build upstream request")
		return
	}

	copyRequestHeaders(req.Header, r.Header)
	setForwardedHeaders(req, r)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		log.LogErrorWithFields("proxy", "Upstream request failed", map[string]any{
			"error":  err.Error(),
			"method": r.Method,
			"path":   r.URL.Path,
		})
		jsonwriter.WriteBadGateway(w, "Upstream unavailable")
		return
	}
	defer resp.Body.Close()

	copyResponseHeaders(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		log.LogDebugWithFields("proxy", "Failed to copy upstream response", map[string]any{
			"error": err.Error(),
		})
	}
}

func joinProxyPath(base, request string) string {
	if base == "" || base == "/" {
		return request
	}
	joined := path.Join(base, request)
	if strings.HasSuffix(request, "/") && !strings.HasSuffix(joined, "/") {
		joined += "/"
	}
	return joined
}

// copyRequestHeaders copies relevant headers from the client request to the
// upstream request, excluding hop-by-hop headers (per RFC 9110) and the
// browser's credentials.
func copyRequestHeaders(dst, src http.Header) {
	for k, v := range src {
		switch k {
		case "Connection", "Upgrade", "Host",
			"Keep-Alive", "Transfer-Encoding", "TE", "Trailer",
			"Proxy-Authorization", "Proxy-Authenticate",
			"Authorization", "Cookie",
			"Accept-Encoding":
			continue
		}
		dst[k] = v
	}
}

// copyResponseHeaders copies upstream response headers to the client,
// excluding hop-by-hop headers. Appends rather than overwrites so the
// proxy's own Set-Cookie headers survive.
func copyResponseHeaders(dst, src http.Header) {
	for k, v := range src {
		switch k {
		case "Connection", "Upgrade",
			"Keep-Alive", "Transfer-Encoding", "TE", "Trailer",
			"Proxy-Authenticate":
			continue
		}
		dst[k] = append(dst[k], v...)
	}
}

func setForwardedHeaders(req *http.Request, r *http.Request) {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		prior := r.Header.Get("X-Forwarded-For")
		if prior != "" {
			host = prior + ", " + host
		}
		req.Header.Set("X-Forwarded-For", host)
	}

	req.Header.Set("X-Forwarded-Host", r.Host)

	proto := "http"
	if r.TLS != nil {
		proto = "https"
	}
	req.Header.Set("X-Forwarded-Proto", proto)
}
