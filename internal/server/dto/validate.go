// Defines the validation interface for requests.

package dto

// Validatable is implemented by all request types. The Wrap functions in
// handler_wrapper.go require it as a type constraint so no request reaches a
// handler without being validated.
type Validatable interface {
	Validate() error
}
