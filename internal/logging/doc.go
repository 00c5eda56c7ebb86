// Package logging provides a simple leveled logging interface for the
// course-frames tools.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the process
//
// The log level is configured via the LOG_LEVEL environment variable, or
// DEBUG=true as a shortcut. Output goes to stderr through a zap console
// logger so that stdout stays free for reports.
package logging
