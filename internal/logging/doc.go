// Package logging provides structured logging for rendezvous participants.
//
// It wraps Go's log/slog to emit JSON lines that can be aggregated after a
// test run. Every participant of a shared resource logs to the same file, so
// entries carry the resource name, the watcher ID and the participant role:
//
//	logger, err := logging.NewLogger("/var/log/rendezvous", "INFO")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	log := logger.WithResource("upgrade").WithWatcher(id).WithRole("leader")
//	log.Info("action started")
//
// Output:
//
//	{"time":"...","level":"INFO","msg":"action started","resource":"upgrade","watcher_id":"...","role":"leader"}
//
// # Log Rotation
//
// [NewLoggerWithRotation] writes through a [RotatingWriter]. Rotated files are
// named rendezvous.log.1 (newest) to rendezvous.log.N, with a .gz suffix when
// compression is enabled.
//
// # Aggregation
//
// [AggregateLogs] reads the active log and all rotated backups, [FilterLogs]
// narrows them down, and [ExportLogEntries] renders them as json, text or csv.
//
// # Testing
//
// Use [NopLogger] to discard output.
package logging
