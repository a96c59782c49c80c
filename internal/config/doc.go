// Package config holds the CLI settings for splitdl and the checks that run
// before any network activity.
//
// Settings are layered: Default, then a YAML file, then SPLITDL_ environment
// variables, then command-line flags. Later layers win; zero values never
// override an earlier layer.
package config
