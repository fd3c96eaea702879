package models

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

var ErrInvalidWorkflow = errors.New("invalid workflow")

// Validator returns the validator shared by the models and the HTTP request
// bodies that embed them.
func Validator() *validator.Validate {
	return validate
}

// Validate checks struct tags of the workflow and its nodes.
func (w *Workflow) Validate() error {
	err := validate.Struct(w)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidWorkflow, err)
	}

	return nil
}
