package main

import "errors"

type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string {
	return e.err.Error()
}

func (e *cliError) Unwrap() error {
	return e.err
}

const (
	exitOK = 0
	// The run finished but some entities could not be reconciled.
	exitEntityErrors = 2
	// The run, or the command, could not complete at all.
	exitFatal = 3
	exitUsage = 4
)

// errEntityErrors marks a completed run whose result carries errors. The
// result itself has already been printed.
var errEntityErrors = errors.New("sync finished with entity errors")

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &cliError{code: code, err: err}
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ce *cliError
	if errors.As(err, &ce) {
		return ce.code
	}
	return 1
}
