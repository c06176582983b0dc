package ir

// Version constants for the model schema and generator.
const (
	// IRVersion is the declaration model schema version.
	IRVersion = "1"

	// GeneratorVersion is the flatbind generator version.
	GeneratorVersion = "0.1.0"
)
