// Package config loads tally's configuration file.
//
// # Resolution
//
// Load reads the given path, or ~/.config/tally/config.toml when the path is
// empty. A missing file is not an error: Default is returned instead, so tally
// works against a local node without any setup. Empty or non-positive fields
// in an existing file also fall back to their defaults.
//
// # Formats
//
// TOML is the primary format. Paths ending in .yaml or .yml are parsed as
// YAML with the same keys:
//
//	api_bind = "127.0.0.1:8080"
//	collection_path = "/voting/polls"
//	item_path = "/voting/poll"
//	node_path = "/id"
//	poll_interval_ms = 100
//	node_interval_ms = 5000
//	request_timeout_ms = 5000
//	log_file = "~/.local/state/tally/tally.log"
//	log_level = "info"
//	metrics_addr = "127.0.0.1:9464"
//
// Tilde expansion applies to the config path and to log_file.
//
// # Errors
//
// Load fails only when the home directory cannot be resolved, the file cannot
// be read, or it does not parse. Parse errors mention "parse config".
package config
