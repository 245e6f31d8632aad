package stats

import "fmt"

// QueryExecutionError reports that the store could not execute a composed
// query. No partial result accompanies it.
type QueryExecutionError struct {
	Op  string
	Err error
}

func (e *QueryExecutionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *QueryExecutionError) Unwrap() error {
	return e.Err
}
