// Package version exposes build metadata of the release-packager binary.
//
// Version, Commit and BuildTime are injected via -ldflags and are recorded in
// release manifests as the generator version. This is unrelated to the
// version of the product being packaged, which is a command-line argument.
package version
