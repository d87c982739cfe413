package domain

// SubmitStatus discriminates the three ways a remote submission can resolve:
// an accepted request, a structured rejection from a well-formed error
// response, or a transport-level fault (connectivity, timeout).
type SubmitStatus string

const (
	SubmitSuccess        SubmitStatus = "success"
	SubmitRejected       SubmitStatus = "rejected"
	SubmitTransportFault SubmitStatus = "transport_fault"
)

// SubmitResult is the outcome of one remote call. Failures are data, not
// control flow: both rejection and transport faults are carried here so the
// engine can record them and continue.
type SubmitResult struct {
	Status   SubmitStatus
	RemoteID string // assigned by the destination platform on success
	Message  string // human-readable failure description otherwise
}

// OK reports whether the submission was accepted.
func (r SubmitResult) OK() bool {
	return r.Status == SubmitSuccess
}

// Rejected builds a structured-failure result.
func Rejected(message string) SubmitResult {
	return SubmitResult{Status: SubmitRejected, Message: message}
}

// TransportFault builds a transport-level failure result.
func TransportFault(message string) SubmitResult {
	return SubmitResult{Status: SubmitTransportFault, Message: message}
}
