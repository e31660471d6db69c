package conversion

import (
	"net"
	"net/http"
	"strings"
)

// trackingCookie is the provider's first-party cookie name.
const trackingCookie = "_ttp"

// RequestContext carries the request-derived enrichment fields.
type RequestContext struct {
	IP        string
	UserAgent string
	TTCLID    string
	TTP       string
}

// ContextFromRequest extracts client context: IP from the first entry of the
// forwarded-for chain (falling back to the peer address), the ad click id
// from the query string and the tracking cookie from the cookie header.
func ContextFromRequest(r *http.Request) RequestContext {
	rc := RequestContext{
		UserAgent: r.UserAgent(),
		TTCLID:    r.URL.Query().Get("ttclid"),
	}

	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		rc.IP = strings.TrimSpace(strings.Split(forwarded, ",")[0])
	} else if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		rc.IP = host
	} else {
		rc.IP = r.RemoteAddr
	}

	if cookie, err := r.Cookie(trackingCookie); err == nil {
		rc.TTP = cookie.Value
	}

	return rc
}
