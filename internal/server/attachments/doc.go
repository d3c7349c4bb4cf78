// Package attachments coordinates operations that touch both the blob store
// and the project repository.
//
// Metadata is written only after an upload succeeds, and removed before the
// backing object is deleted. When a blob removal fails after the metadata
// change has already been committed, the object is left behind as an orphan:
// the failure is logged at WARN, optionally handed to an OrphanSink for
// background reaping, and never returned to the caller.
package attachments
