// Package config loads the optional .asmsurface.kdl project file: the
// attribute-filter override, glob exclusions for assembly discovery,
// and the watch-mode debounce interval.
package config

// Config holds everything .asmsurface.kdl can set. Zero value is the
// built-in default, matching CLI flag defaults.
type Config struct {
	// IncludeAllAttributes disables the well-known attribute whitelist
	// and folds every custom attribute into the surface hash.
	IncludeAllAttributes bool

	// Exclude holds doublestar glob patterns; a discovered assembly
	// path matching any of these is skipped by cmd/asmsurface.
	Exclude []string

	// WatchDebounceMs is how long --watch waits after the last file
	// event on an assembly before re-hashing it.
	WatchDebounceMs int
}

// Default returns the configuration used when no .asmsurface.kdl file
// is present.
func Default() Config {
	return Config{
		WatchDebounceMs: 200,
		Exclude: []string{
			"**/obj/**",
			"**/bin/**/ref/**",
		},
	}
}
