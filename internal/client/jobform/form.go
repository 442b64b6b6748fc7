// Package jobform collects the fields of a new job posting.
package jobform

import (
	"fmt"
	"strings"

	"github.com/cuongbtq/farmhand/internal/domain"
)

// Field names accepted by Set
const (
	FieldTitle       = "title"
	FieldPay         = "pay"
	FieldLocation    = "location"
	FieldDate        = "date"
	FieldDescription = "description"
)

// Fields lists the form fields in input order
var Fields = []string{FieldTitle, FieldPay, FieldLocation, FieldDate, FieldDescription}

// ValidationError lists the required fields left empty
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Missing, ", "))
}

// Form is a job posting being edited. Values are emitted as typed, with no
// normalization of pay or date.
type Form struct {
	values   map[string]string
	onSubmit func(domain.NewJob)
}

// New returns an empty form that hands completed jobs to onSubmit
func New(onSubmit func(domain.NewJob)) *Form {
	return &Form{values: map[string]string{}, onSubmit: onSubmit}
}

// Set updates one field
func (f *Form) Set(field, value string) error {
	switch field {
	case FieldTitle, FieldPay, FieldLocation, FieldDate, FieldDescription:
		f.values[field] = value
		return nil
	default:
		return fmt.Errorf("unknown field %q", field)
	}
}

// Get returns the current value of a field
func (f *Form) Get(field string) string {
	return f.values[field]
}

func (f *Form) job() domain.NewJob {
	job := domain.NewJob{
		Title:    f.values[FieldTitle],
		Pay:      f.values[FieldPay],
		Location: f.values[FieldLocation],
		Date:     f.values[FieldDate],
	}
	if d := f.values[FieldDescription]; d != "" {
		job.Description = &d
	}
	return job
}

// Valid reports whether every required field is filled
func (f *Form) Valid() bool {
	return len(f.job().MissingFields()) == 0
}

// Submit emits the job and resets the form. Nothing is emitted while a
// required field is empty.
func (f *Form) Submit() (domain.NewJob, error) {
	job := f.job()
	if missing := job.MissingFields(); len(missing) > 0 {
		return domain.NewJob{}, &ValidationError{Missing: missing}
	}

	if f.onSubmit != nil {
		f.onSubmit(job)
	}
	f.Reset()

	return job, nil
}

// Reset clears every field
func (f *Form) Reset() {
	f.values = map[string]string{}
}
