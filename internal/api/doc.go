// Package api hosts the operator HTTP listener that runs alongside a crawl:
//   - GET /healthz and /readyz for probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /v1/run for the live progress of the current run.
package api
