// Package localfs wraps a go-billy filesystem with the operations the transfer
// engine needs on the local side: stat, whole-file reads and writes, chunked
// reads and depth-limited walking.
package localfs
