// Package testdoubles provides spy implementations of the circulation
// observability interfaces:
//   - LoggerSpy captures plain log calls
//   - MetricsCollectorSpy captures metric recordings
//   - TracingCollectorSpy captures spans with status and attributes
//   - NotifierSpy captures published notifications
//
// They allow asserting on instrumentation without a telemetry backend.
package testdoubles
