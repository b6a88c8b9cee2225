// Package http implements the REST API of the server.
//
// It exposes route wiring, request handlers, and middleware. Cross-cutting
// concerns such as authentication, request tracing, access logging, response
// compression, and upload integrity checks are handled in this package before
// requests are delegated to the service layer.
package http
