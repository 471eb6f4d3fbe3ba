// Package httpfile provides a file handle over a presigned artifact URL.
//
// The URL is resolved lazily on the first operation that needs the network.
// Reads issue byte-range requests, writes are buffered in memory and
// uploaded in a single request when the handle is closed.
package httpfile
