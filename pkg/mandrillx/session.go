package mandrillx

import (
	"net/http"
	"time"
)

// Session is a reusable HTTP connection handle. It is not safe for
// concurrent use.
type Session interface {
	Do(req *http.Request) (*http.Response, error)
	Close()
}

// SessionFactory creates a new Session each time the client opens one.
type SessionFactory func() Session

type httpSession struct {
	client *http.Client
}

func (s *httpSession) Do(req *http.Request) (*http.Response, error) {
	return s.client.Do(req)
}

// Close drops the pooled keep-alive connections.
func (s *httpSession) Close() {
	s.client.CloseIdleConnections()
}

// NewHTTPSession returns a Session with its own connection pool.
func NewHTTPSession(timeout time.Duration) Session {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	return &httpSession{client: &http.Client{Timeout: timeout, Transport: transport}}
}

// HTTPClientSession wraps an existing client; closing it only releases idle
// connections.
func HTTPClientSession(client *http.Client) Session {
	return &httpSession{client: client}
}
