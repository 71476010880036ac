package reporting

import "fmt"

// PipelineError reports a mandatory query that failed and aborted aggregation.
type PipelineError struct {
	Facet Facet
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Facet, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }
