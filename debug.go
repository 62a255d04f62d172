package stacklayout

// These consts gate debug tracing across the package. Keeping them in one
// file answers "where do we have debug logging" without grepping every file;
// flip one to true locally when chasing a layout bug, never in committed code.
const (
	LivenessLoggingEnabled = false
	ColoringLoggingEnabled = false
	AllocLoggingEnabled    = false
	ManifestLoggingEnabled = false
)

// Validation gates are enabled by default: this package is young enough that
// the cost of re-checking the core invariants on every call is worth paying
// until it has seen more mileage.
const (
	LivenessValidationEnabled = true
	AllocValidationEnabled    = true
)
