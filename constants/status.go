package constants

// PipelineState is a state of a single extraction run.
type PipelineState string

// Terminal states are CacheHit, QrResolved, LocalNonEmpty, RemoteResolved and Failed.
const (
	StateReceived       PipelineState = "RECEIVED"
	StateHashed         PipelineState = "HASHED"
	StateCacheHit       PipelineState = "CACHE_HIT"
	StateCacheMiss      PipelineState = "CACHE_MISS"
	StateQrResolved     PipelineState = "QR_RESOLVED"
	StateQrEmpty        PipelineState = "QR_EMPTY"
	StateLocalNonEmpty  PipelineState = "LOCAL_NON_EMPTY"
	StateLocalEmpty     PipelineState = "LOCAL_EMPTY"
	StateRemoteSkipped  PipelineState = "REMOTE_SKIPPED"
	StateRemoteResolved PipelineState = "REMOTE_RESOLVED"
	StateRemoteFailed   PipelineState = "REMOTE_FAILED"
	StateFailed         PipelineState = "FAILED"
)

// JobStatus is the status of a queued scan job.
type JobStatus string

const (
	JobStatusQueued  JobStatus = "QUEUED"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusDone    JobStatus = "DONE"
	JobStatusFailed  JobStatus = "FAILED" // terminal failure
)
