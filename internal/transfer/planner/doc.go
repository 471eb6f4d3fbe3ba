// Package planner expands source and destination path specifications into
// concrete file pairs for a transfer.
// This includes list normalization, directory detection and the mapping of
// descendant files onto the destination root.
//
// The planner performs no I/O besides listing the source side.
package planner
