package syncresult

import "fmt"

// Result accumulates the outcome of one reconciliation run. Warnings are
// data-quality notes; errors mark entities that could not be reconciled.
type Result struct {
	FirmsCreated       int `json:"firmsCreated"`
	FirmsUpdated       int `json:"firmsUpdated"`
	FirmsReactivated   int `json:"firmsReactivated"`
	FirmsDeactivated   int `json:"firmsDeactivated"`
	OfficesCreated     int `json:"officesCreated"`
	OfficesUpdated     int `json:"officesUpdated"`
	OfficesReactivated int `json:"officesReactivated"`
	OfficesDeactivated int `json:"officesDeactivated"`

	Warnings []string `json:"warnings"`
	Errors   []string `json:"errors"`
}

func New() *Result {
	return &Result{
		Warnings: []string{},
		Errors:   []string{},
	}
}

// Failed is the result of a run that aborted before touching the store.
func Failed(message string) *Result {
	r := New()
	r.Errors = append(r.Errors, message)
	return r
}

func (r *Result) AddWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// Total is the number of entities touched, for log lines.
func (r *Result) Total() int {
	return r.FirmsCreated + r.FirmsUpdated + r.FirmsReactivated + r.FirmsDeactivated +
		r.OfficesCreated + r.OfficesUpdated + r.OfficesReactivated + r.OfficesDeactivated
}
