// Package metrics exposes Prometheus collectors for the unpdf bindings.
//
// Collectors:
//
//	unpdf_owned_allocations_total{kind}  owned payloads received
//	unpdf_owned_releases_total{kind}     owned payloads released
//	unpdf_native_failures_total{op}      engine-reported failures
//	unpdf_live_documents                 parsed documents not yet released
//	unpdf_call_duration_seconds{op}      engine call latency
//
// In steady state allocations and releases are equal for every kind.
package metrics
