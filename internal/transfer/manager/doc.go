// Package manager handles the parallel execution of transfers.
// This includes per-file multipart classification, admission control,
// progress bookkeeping and the error policy.
//
// Admitted transfers always run to completion; a failure under the raise
// policy only stops the admission of further files.
package manager
