// Package services implements the business logic layer between the HTTP
// handlers and the transformation pipeline.
//
// The central type is WorkbookService, which owns upload sessions and
// coordinates the reader, pipeline, and exporters on their behalf. Handlers
// never touch the pipeline directly; every user action maps to one service
// method.
//
// Services follow these conventions:
//
//	1. Context propagation on every operation that does work
//	2. Dependency injection through a config struct on the constructor
//	3. Structured logging with a component attribute
//	4. Sentinel errors for conditions handlers map to problem responses
package services
