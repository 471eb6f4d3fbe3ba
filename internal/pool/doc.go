// Package pool provides memory management optimizations.
// This includes buffer pooling for multipart chunks to reduce allocations.
//
// The pool package helps optimize performance for high-throughput uploads
// by reusing chunk-sized buffers across parts and across files.
package pool
