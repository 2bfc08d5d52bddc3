// Package handler implements the HTTP API for vlanislands.
//
// # Routes
//
//	GET    /healthz
//	GET    /api/formats
//	POST   /api/analyze              body: topology document
//	GET    /api/runs                 ?limit= &source= &unhealthy=
//	GET    /api/runs/latest          ?source=
//	GET    /api/runs/{id}
//	DELETE /api/runs/{id}
//	GET    /api/runs/{id}/report     ?format=json|yaml|text|mermaid
//	POST   /api/runs/{id}/ask        body: {query, history}
//	POST   /api/ask                  body: {query, history, report}
//
// POST /api/analyze takes the input format from ?format= or the request
// Content-Type, persists the run when ?save=true, and renders the report
// instead of the run when ?output= names a non-JSON report format.
//
// # Errors
//
// Errors are returned as JSON {error, details, kind}. Invalid topology
// documents answer 422 with kind malformed_input or dangling_reference,
// unknown runs 404, an unreachable assistant 503 and rejected assistant
// credentials 502.
//
// Middleware provides panic recovery, request logging, CORS and
// Prometheus request metrics.
package handler
