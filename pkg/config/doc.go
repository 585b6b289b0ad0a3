// Package config holds the analysis options and loads them from a
// pomgraph.yaml (or .toml, .json) file, POMGRAPH_* environment variables
// and command-line flags, in increasing order of precedence.
//
// It also loads plugin table extensions: TOML files that add plugins to
// the known-plugin table so their goals are never discovered at runtime.
package config
