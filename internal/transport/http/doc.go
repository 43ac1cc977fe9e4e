// Package http provides the HTTP transport layer for the workbook API.
//
// Handlers follow a consistent pattern: chi routers mounted per resource,
// request decoding through go-chi/render, struct validation through
// go-playground/validator, and RFC 7807 problem responses for every error
// path. Handlers depend on consumer-side service interfaces so tests can
// substitute stubs.
package http
