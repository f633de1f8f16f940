// Package logger provides structured logging for imagegrab on top of zerolog.
//
// Diagnostic output goes to stderr with colored levels, and optionally to a
// log file. The per-image progress lines shown to the user are not written
// here; they go through the downloader's output log.
//
//	logger.Initialize(&cfg.Logging)
//	log := logger.GetLogger().WithField("component", "reddit")
//	log.InfoWithFields("Listing page fetched", map[string]interface{}{"page": 2})
//
// Tests use NewTestLogger to capture messages or NewNopLogger to discard them.
package logger
