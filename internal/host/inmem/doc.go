// Package inmem provides thread-safe, in-memory implementations of the host
// services. The CLI uses them when running plugins outside the desktop shell and
// tests use them as recording fakes.
package inmem
