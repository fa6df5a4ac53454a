// Package config loads the scratchpad TOML configuration.
//
// Load reads ~/.config/scratchpad/config.toml unless another path is given.
// A missing file is not an error; every field has a default:
//
//	backend = "file"                         # memory | file | firestore
//	data_dir = "~/.local/share/scratchpad"   # used by the file backend
//	firestore_project = ""                   # required by the firestore backend
//	listen_addr = "127.0.0.1:8080"           # serve command
//	quiet_period = "1s"                      # autosave debounce window
//	retry_failed_saves = true
//
// Tilde paths are expanded against the user's home directory.
package config
