package errors

// SQLSTATE codes used by the execution engine.
// Based on PostgreSQL error codes: https://www.postgresql.org/docs/current/errcodes-appendix.html

// Construction faults: rejected synchronously when an operator or factory
// is built, never observable afterward.
const (
	InvalidParameterValue = "22023"
	NullValueNotAllowed   = "22004"
)

// Protocol faults: the driving scheduler or an upstream producer violated
// the pipeline-stage contract. Not retried, not recoverable locally.
const (
	ObjectNotInPrerequisiteState = "55000"
	ProtocolViolation            = "08P01"
	DataCorrupted                = "XX001"
	InternalError                = "XX000"
)

// Resource faults: raised by the memory governor, not by operators.
const (
	OutOfMemory                = "53200"
	ConfigurationLimitExceeded = "53400"
)

// External interface faults (metastore client).
const (
	ConnectionException = "08000"
	ConnectionFailure   = "08006"
	UndefinedTable      = "42P01"
)

// Category-specific constructors

// ConstructionError reports an invalid argument at construction time.
func ConstructionError(component, msg string) *Error {
	return New(InvalidParameterValue, msg).WithWhere(component)
}

// ProtocolError reports a pipeline-stage contract violation.
func ProtocolError(component, msg string) *Error {
	return New(ProtocolViolation, msg).WithWhere(component)
}

// IllegalStateError reports use of a component outside its lifecycle.
func IllegalStateError(component, msg string) *Error {
	return New(ObjectNotInPrerequisiteState, msg).WithWhere(component)
}

// CursorDivergenceError reports channel cursors disagreeing on exhaustion,
// which means an upstream producer broke the channel-alignment invariant.
func CursorDivergenceError(component string) *Error {
	return New(DataCorrupted, "channel cursors diverged on exhaustion").
		WithWhere(component).
		WithDetail("all channels of a batch must advertise the same row count")
}

// MemoryLimitError reports total reserved memory exceeding the governor ceiling.
func MemoryLimitError(reserved, ceiling int64) *Error {
	return Newf(OutOfMemory, "query exceeded memory ceiling: reserved %d bytes, ceiling %d bytes", reserved, ceiling)
}

// MetastoreUnavailableError reports that no metastore replica could serve a request.
func MetastoreUnavailableError(cause error) *Error {
	return Wrap(cause, ConnectionFailure, "all metastore replicas failed")
}
