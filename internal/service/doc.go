// Package service implements the application layer of vlanislands.
//
// Services coordinate the pure detection pipeline (loader, graph, detect,
// report) with the optional run store, metrics and the assistant bridge.
// HTTP handlers, the MCP server and the CLI all go through this package.
//
// # Services
//
// AnalysisService turns a topology document into a report. It records the
// input and report digests, optionally persists the result as a run, and
// serves stored runs back.
//
// AssistantService answers natural-language questions about a report,
// either one supplied by the caller or a stored run.
//
// # Event System
//
// Services publish events via EventBus. Event types cover finished and
// failed analyses, deleted runs and answered questions.
package service
