// Package resolver turns arbitrary image references (raw keys, bucket URLs,
// nested thumbnail-endpoint URLs, data URIs) into canonical storage keys and
// back into public URLs. Every function here is a pure function of the input
// and the storage configuration: no I/O, never an error, safe to call from
// render paths.
package resolver

import (
	"net/url"
	"strings"

	"image-pipeline/internal/config"
	"image-pipeline/internal/domain"
)

// ThumbnailPath is the request path of the on-demand thumbnail endpoint.
// References pointing back at it are unwrapped rather than stored.
const ThumbnailPath = "/api/images/thumbnail"

type Resolver struct {
	publicBase   string
	cdnBase      string
	bucket       string
	allowedHosts map[string]struct{}
}

func New(cfg config.StorageConfig) *Resolver {
	r := &Resolver{
		publicBase:   strings.TrimRight(cfg.PublicBaseURL, "/"),
		cdnBase:      strings.TrimRight(cfg.CDNBaseURL, "/"),
		bucket:       cfg.Bucket,
		allowedHosts: make(map[string]struct{}),
	}

	for _, h := range cfg.AllowedHosts {
		r.addHost(h)
	}
	r.addHost(cfg.PublicHost)
	r.addHost(hostOf(cfg.PublicBaseURL))
	r.addHost(hostOf(cfg.CDNBaseURL))
	r.addHost(cfg.Endpoint())

	return r
}

func (r *Resolver) addHost(h string) {
	h = strings.ToLower(strings.TrimSpace(h))
	if h == "" {
		return
	}
	r.allowedHosts[h] = struct{}{}
}

// Normalize collapses percent-encoding (up to 3 passes, stopping at a
// fixpoint) and nested thumbnail-endpoint URLs (up to 5 unwraps). Data URIs
// are opaque and returned unchanged. Both caps exist so malicious or
// self-referential input always terminates.
func (r *Resolver) Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	s = decode(s)
	if strings.HasPrefix(s, "data:") {
		return s
	}

	for i := 0; i < domain.MaxThumbnailUnwraps; i++ {
		inner, ok := innerThumbnailRef(s)
		if !ok {
			break
		}
		inner = decode(strings.TrimSpace(inner))
		if inner == "" || inner == s {
			break
		}
		s = inner
		if strings.HasPrefix(s, "data:") {
			return s
		}
	}

	return s
}

// Source collapses a reference into either a canonical storage key
// (remote=false) or a remote URL that must be fetched (remote=true). URLs
// pointing at our own storage or public hosts are converted back to keys so
// the store is addressed in one canonical form.
func (r *Resolver) Source(raw string) (ref string, remote bool) {
	s := r.Normalize(raw)
	if s == "" || strings.HasPrefix(s, "data:") {
		return s, false
	}

	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return strings.TrimPrefix(s, "/"), false
	}

	if r.ownsHost(u.Hostname()) {
		return r.canonicalKey(u.Path), false
	}

	return s, true
}

// KeyFromURL derives the canonical storage key for a reference. Foreign
// absolute URLs and data URIs come back unchanged; this never fabricates a
// key it cannot justify.
func (r *Resolver) KeyFromURL(raw string) string {
	ref, _ := r.Source(raw)
	return ref
}

// PublicURL is the inverse of KeyFromURL: the string a browser <img src>
// should use. Without a configured public base the input is returned
// unchanged, degrading to broken-but-visible rather than crashing callers.
func (r *Resolver) PublicURL(ref string) string {
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "data:") {
		return ref
	}
	if u, err := url.Parse(ref); err == nil && u.Scheme != "" && u.Host != "" {
		return ref
	}
	if r.publicBase == "" {
		return ref
	}
	return r.publicBase + "/" + strings.TrimPrefix(ref, "/")
}

// CDNURL returns the CDN-fronted URL for a key, or "" when no CDN base is
// configured.
func (r *Resolver) CDNURL(key string) string {
	if r.cdnBase == "" {
		return ""
	}
	return r.cdnBase + "/" + strings.TrimPrefix(key, "/")
}

// HostAllowed reports whether the host of an absolute URL is a permitted
// remote image source. The set is built from the explicit allow-list plus the
// hosts of the public bucket URL, CDN base, storage endpoint and site host.
func (r *Resolver) HostAllowed(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false
	}
	_, ok := r.allowedHosts[strings.ToLower(u.Hostname())]
	return ok
}

// canonicalKey strips the configured bucket segment exactly once from the
// front of an object path, plus the legacy "images/" convention segment, so
// keys compare equal regardless of how the URL was constructed.
func (r *Resolver) canonicalKey(p string) string {
	p = strings.TrimPrefix(p, "/")
	if r.bucket != "" {
		p = strings.TrimPrefix(p, r.bucket+"/")
	}
	p = strings.TrimPrefix(p, "images/")
	return p
}

func (r *Resolver) ownsHost(host string) bool {
	h := strings.ToLower(host)
	if h == "" {
		return false
	}
	if b := hostOf(r.publicBase); b != "" && h == b {
		return true
	}
	if c := hostOf(r.cdnBase); c != "" && h == c {
		return true
	}
	return strings.HasSuffix(h, ".r2.cloudflarestorage.com")
}

func decode(s string) string {
	for i := 0; i < domain.MaxDecodePasses; i++ {
		dec, err := url.QueryUnescape(s)
		if err != nil || dec == s {
			break
		}
		s = dec
	}
	return s
}

// innerThumbnailRef extracts the url/key parameter when s points at the
// thumbnail endpoint itself.
func innerThumbnailRef(s string) (string, bool) {
	u, err := url.Parse(s)
	if err != nil {
		return "", false
	}
	if !strings.HasSuffix(u.Path, ThumbnailPath) {
		return "", false
	}
	q := u.Query()
	if v := q.Get("url"); v != "" {
		return v, true
	}
	if v := q.Get("key"); v != "" {
		return v, true
	}
	return "", false
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
