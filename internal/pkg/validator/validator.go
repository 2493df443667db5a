// Package validator checks usecase inputs through their `validate` tags.
// Failures come back as a field to message map keyed by snake_case names.
package validator

type Validator interface {
	Validate(data any) error
}
