// Package driving provides interfaces for application entry points
// (primary/inbound ports). The CLI and the directory watcher drive the
// pipeline through these.
package driving
