// Package transfer contains the transfer engine: path expansion into file
// pairs, multipart uploads and the bounded-concurrency executor.
package transfer
