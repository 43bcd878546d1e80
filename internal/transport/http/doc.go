// Package http contains the chi HTTP handlers of the API surface. Handlers
// translate between the wire format and the service layer; all error
// responses follow RFC 7807.
package http
