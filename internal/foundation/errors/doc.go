// Package errors provides foundational, type-safe error primitives used across sitegen.
//
// Key features:
//   - ErrorCategory: broad classification (config, layout, frontmatter, filesystem, build, ...)
//   - ErrorSeverity: impact level (fatal, error, warning, info)
//   - RetryStrategy: retry behavior (never, immediate, backoff, user action)
//   - ClassifiedError: structured error with category, severity, and context
//   - ErrorBuilder: fluent API for creating classified errors
//   - CLIErrorAdapter: exit codes and user-facing messages
//
// Example usage:
//
//	err := errors.WrapError(err, errors.CategoryCache, "open build cache").
//		WithContext("path", dbPath).
//		Build()
package errors
