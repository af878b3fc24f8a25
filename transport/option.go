package transport

import "net/http"

type Option func(*HTTP)

// WithClient substitutes the underlying HTTP client.
func WithClient(client *http.Client) Option {
	return func(h *HTTP) {
		h.client = client
	}
}

// WithCookieJar installs the jar applied to credentialed requests.
func WithCookieJar(jar http.CookieJar) Option {
	return func(h *HTTP) {
		h.jar = jar
	}
}

// WithBasicAuth sets credentials applied to credentialed requests.
func WithBasicAuth(username, password string) Option {
	return func(h *HTTP) {
		h.username = username
		h.password = password
	}
}
