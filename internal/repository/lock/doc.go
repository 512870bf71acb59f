// Package lock guards a destination directory against concurrent packaging
// runs with a marker file.
//
// The marker records pid, hostname and start time in YAML. A marker left by
// a process that no longer exists on this host is treated as stale and
// replaced.
package lock
