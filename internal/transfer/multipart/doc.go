// Package multipart handles multipart uploads to the artifact service.
// This includes session negotiation, streaming chunk production, bounded
// concurrent part uploads and session finalization.
//
// The service offers no abort call, so a failed upload leaves its session
// open on the server side.
package multipart
