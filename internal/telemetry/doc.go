// Package telemetry provides write-only logging sinks and logger construction.
//
// A [Sink] accepts named values and never reports failure back to the caller;
// simulation correctness must not depend on telemetry. Available sinks:
//
//   - [Nop]: discards everything
//   - [Recorder]: in-memory latest values and time series, stamped with sim time
//   - [GaugeSink]: exports numeric values as a prometheus GaugeVec
//   - [SQLiteSink]: batches rows into a sqlite database
//
// [Scope] prefixes keys and [Multi] fans out to several sinks. Values that
// implement [Fielder] are expanded into one entry per field.
//
// [NewLogger] builds the zap logger used for diagnostics.
package telemetry
