// Package observability builds the structured zap logger shared by the
// auth service binaries.
package observability
