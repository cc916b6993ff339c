/*
Package observability provides tools for monitoring the scholarship assistant.

It turns the engine lifecycle hooks into Prometheus metrics and structured
audit logs, and lets several hook sets observe the same engine.
*/
package observability
