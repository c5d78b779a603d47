package middleware

import "net/http"

// Middleware is a function that wraps an http.Handler. The signature matches
// chi's Use, so the same pieces compose at the router and at the server root.
type Middleware func(http.Handler) http.Handler

// Chain applies middleware in order: the first middleware is the outermost wrapper.
func Chain(handler http.Handler, mw ...Middleware) http.Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		handler = mw[i](handler)
	}
	return handler
}
