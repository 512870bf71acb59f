// Package packager implements the release packaging workflow.
//
// A run installs the already configured build tree into the destination,
// then for every build configuration configures a fresh tree in a temporary
// workspace, builds it, installs it and compresses the install prefix into
// <product>-v<version>-<configuration>.tar.gz in the destination. The
// workspace is removed on every exit path.
package packager
