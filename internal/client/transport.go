package client

import "net/http"

// TokenSource yields the credential to attach to the next request.
type TokenSource interface {
	Token() string
}

// Transport attaches "Authorization: Bearer <token>" to outgoing requests.
// The token is read at dispatch time, so a request sent right after login
// carries the new credential and one sent after logout carries none.
type Transport struct {
	Tokens TokenSource
	// Base defaults to http.DefaultTransport.
	Base http.RoundTripper
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	token := ""
	if t.Tokens != nil {
		token = t.Tokens.Token()
	}
	if token == "" {
		return base.RoundTrip(req)
	}

	// RoundTrippers must not modify the caller's request.
	authed := req.Clone(req.Context())
	authed.Header.Set("Authorization", "Bearer "+token)
	return base.RoundTrip(authed)
}
