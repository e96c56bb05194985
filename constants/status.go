package constants

// JobStatus is the canonical status for rows in documents.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusQueued       JobStatus = "QUEUED"        // ingested, waiting for a worker
	JobStatusRunning      JobStatus = "RUNNING"       // in progress
	JobStatusTokensOK     JobStatus = "TOKENS_OK"     // stage 1 completed (token stream extracted)
	JobStatusDone         JobStatus = "DONE"          // stage 2 completed (dimensions recorded)
	JobStatusNoDimensions JobStatus = "NO_DIMENSIONS" // completed, nothing detected; a warning, not a failure
	JobStatusFailed       JobStatus = "FAILED"        // terminal failure
)

// Terminal reports whether no further processing is expected for the status.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusDone, JobStatusNoDimensions, JobStatusFailed:
		return true
	}
	return false
}
