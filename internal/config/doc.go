// Package config defines the release-packager settings and provides helpers
// to load, validate and save them in YAML format.
//
// Every field is optional: Validate fills defaults (product "oclhelpers",
// configurations Debug and Release, cmake and tar from PATH, native archiver)
// and command-line flags override whatever the file sets.
package config
