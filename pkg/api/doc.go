// Package api defines the core types exchanged between the skizze
// components: execution templates, generated fragments, sandbox
// execution results, persisted artifacts, and the error taxonomy used
// across transport boundaries.
//
// Types in this package are plain data with no behavior beyond
// validation. They are shared by the generation pipeline, the sandbox
// provisioner, the artifact store, and the HTTP transport.
package api
