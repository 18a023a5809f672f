package tokenstore

import (
	"net/http"
	"strings"
)

// CookieOptions control how tokens are written to and expired from cookies.
type CookieOptions struct {
	// Domain is the shared parent domain (e.g. ".corp.example.com").
	// Clear always expires the exact-host scope too, because older desks
	// wrote host-scoped cookies.
	Domain   string
	Secure   bool
	MaxAge   int // seconds; 0 means session cookie
	HTTPOnly bool
}

// CookieStore is a request-scoped Store over HTTP cookies. Construct one
// per request; writes go to the response immediately, so they are complete
// before any redirect is issued — no flush delay is needed.
type CookieStore struct {
	r    *http.Request
	w    http.ResponseWriter
	opts CookieOptions
}

// NewCookieStore creates a CookieStore bound to one request/response pair.
func NewCookieStore(w http.ResponseWriter, r *http.Request, opts CookieOptions) *CookieStore {
	if opts.MaxAge == 0 {
		opts.MaxAge = 8 * 60 * 60
	}
	return &CookieStore{r: r, w: w, opts: opts}
}

// Get returns the first usable token among the known cookie names, then the
// legacy key names (older desks reused storage keys as cookie names), then
// a user_data cookie blob. Missing cookies are not an error.
func (s *CookieStore) Get() string {
	for _, name := range CookieNames {
		if v := s.cookieValue(name); usable(v) {
			return v
		}
	}
	for _, name := range LegacyKeys {
		if v := s.cookieValue(name); usable(v) {
			return v
		}
	}
	return tokenFromUserData(s.cookieValue(userDataKey))
}

// Set writes the token under the canonical cookie name.
func (s *CookieStore) Set(token string) error {
	http.SetCookie(s.w, &http.Cookie{
		Name:     CanonicalKey,
		Value:    token,
		Path:     "/",
		Domain:   s.opts.Domain,
		MaxAge:   s.opts.MaxAge,
		HttpOnly: s.opts.HTTPOnly,
		Secure:   s.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires every known cookie name in both the exact-host scope and
// the configured parent-domain scope. Best effort and idempotent: expiring
// an absent cookie is a no-op.
func (s *CookieStore) Clear() error {
	names := make([]string, 0, len(CookieNames)+len(LegacyKeys)+1)
	names = append(names, CookieNames...)
	for _, k := range LegacyKeys {
		if !contains(names, k) {
			names = append(names, k)
		}
	}
	names = append(names, userDataKey)

	for _, name := range names {
		s.expire(name, "") // exact host
		if s.opts.Domain != "" {
			s.expire(name, s.opts.Domain)
		}
	}
	return nil
}

func (s *CookieStore) expire(name, domain string) {
	http.SetCookie(s.w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   domain,
		MaxAge:   -1,
		HttpOnly: s.opts.HTTPOnly,
		Secure:   s.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *CookieStore) cookieValue(name string) string {
	c, err := s.r.Cookie(name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(c.Value)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
