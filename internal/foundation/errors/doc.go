// Package errors provides the classified error primitives used across slidebuilder.
//
// Every failure that can abort a build is expressed as a ClassifiedError carrying a
// category (what kind of failure), a severity and optional structured context. The CLI
// adapter maps categories to process exit codes and renders a user-facing message.
//
// Key features:
//   - ErrorCategory: missing input, metadata, external tool, filesystem, config, validation
//   - ErrorSeverity: Impact level (fatal, error, warning, info)
//   - ClassifiedError: Structured error with category, severity, cause and context
//   - ErrorBuilder: Fluent API for creating classified errors
//   - CLIErrorAdapter: exit codes and presentation for the command line
//
// Example usage:
//
//	err := errors.ExternalToolFailure("reveal-md exited with status 1").
//		WithContext("command", cmdline).
//		WithCause(runErr).
//		Build()
package errors
