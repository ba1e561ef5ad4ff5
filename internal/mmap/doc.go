// Package mmap maps immutable table files read-only into memory.
//
// A Mapping exposes the file both as a byte slice, which lets table readers
// decode blocks without copying, and as an io.ReaderAt for code that only
// needs positional reads. The slice must not be used after Close.
package mmap
