package sabik

import "net/http"

// IdentityHeaders returns the headers every outbound request carries: the
// referrer as both User-Agent and Referer.
func IdentityHeaders(referrer string) map[string]string {
	if referrer == "" {
		return nil
	}
	return map[string]string{
		"User-Agent": referrer,
		"Referer":    referrer,
	}
}

// identityTransport stamps IdentityHeaders onto each request.
type identityTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *identityTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		r.Header.Set(k, v)
	}
	return t.base.RoundTrip(r)
}

// identityClient returns a copy of base (or a fresh client) whose transport
// adds the identity headers. The client has no overall timeout; tools and
// the model client bound their own requests and feed streams are
// long-lived.
func identityClient(base *http.Client, referrer string) *http.Client {
	c := &http.Client{}
	if base != nil {
		*c = *base
	}
	rt := c.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	headers := IdentityHeaders(referrer)
	if len(headers) > 0 {
		rt = &identityTransport{base: rt, headers: headers}
	}
	c.Transport = rt
	return c
}
