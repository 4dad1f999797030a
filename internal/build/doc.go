// Package build provides the site build pipeline.
//
// A Builder loads layouts, discovers documents and assets, renders every
// document through a bounded worker pool and writes one HTML page per
// document to the output directory. All execution paths (CLI build, the
// preview server, tests) route through Builder.Build.
//
// A document that fails never leaves an output file behind; the failure is
// reported as a DocumentError and the build as a whole returns a
// BuildFailure from internal/build/errors.
package build
