// Package backend defines the host execution capability: the interface every
// executor (Starlark interpreter, restricted command set) implements, the
// error type that carries an execution diagnostic, and a registry for picking
// an executor by name.
package backend
