// Package buildsys drives the external build orchestrator.
//
// Orchestrator is the configure/build/install lifecycle the packager needs;
// CMake implements it by invoking the cmake CLI through an executor.Runner.
// The package also reads CMakeCache.txt to find the source tree of an
// already configured build directory.
package buildsys
