// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports). Services depend on these interfaces;
// adapters implement them.
package driven
