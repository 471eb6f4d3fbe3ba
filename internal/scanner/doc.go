// Package scanner handles local filesystem and remote artifact scanning.
// This includes walking local directories and recursively listing artifact
// directories.
//
// The scanner provides a unified interface for discovering files in both
// local and remote locations.
package scanner
