package ir

// Version constants.
const (
	// Version is the structq release.
	Version = "0.1.0"
)
