package errors

// OutcomeKind classifies the result of a single attempt
type OutcomeKind int

const (
	// Success means the attempt produced a usable result
	Success OutcomeKind = iota
	// Transient means the attempt failed but may succeed if repeated
	Transient
	// Permanent means repeating the attempt will not help
	Permanent
)

func (k OutcomeKind) String() string {
	switch k {
	case Success:
		return "success"
	case Transient:
		return "transient"
	case Permanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// Outcome is the explicit result of one attempt, consumed by the retry loop
type Outcome struct {
	Kind OutcomeKind
	Err  error
}

// Ok returns a successful outcome
func Ok() Outcome {
	return Outcome{Kind: Success}
}

// Retry returns a transient outcome
func Retry(err error) Outcome {
	return Outcome{Kind: Transient, Err: err}
}

// Fail returns a permanent outcome
func Fail(err error) Outcome {
	return Outcome{Kind: Permanent, Err: err}
}

// Classify maps an error onto an outcome
func Classify(err error) Outcome {
	if err == nil {
		return Ok()
	}
	if IsRetryable(TypeOf(err)) {
		return Retry(err)
	}
	return Fail(err)
}
