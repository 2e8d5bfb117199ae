package types

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks that a record carries every field the store requires
func (r *TransactionRecord) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid transaction record: %w", err)
	}
	return nil
}
