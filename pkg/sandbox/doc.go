// Package sandbox provisions ephemeral, isolated execution
// environments for generated fragments. A Provisioner drives the
// strictly sequential steps (create, install, write, derive URL)
// against an EnvironmentCreator backend; failures are fail-fast with no
// retry, and a created environment is reclaimed by its own lifetime
// ceiling rather than explicit teardown.
package sandbox
