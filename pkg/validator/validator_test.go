package validator

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type restockRequest struct {
	ProductID uuid.UUID `validate:"uuid_required"`
	Quantity  int       `validate:"required,gt=0"`
}

func TestValidateStruct(t *testing.T) {
	assert.Empty(t, ValidateStruct(&restockRequest{ProductID: uuid.New(), Quantity: 3}))

	errs := ValidateStruct(&restockRequest{Quantity: 3})
	if assert.Len(t, errs, 1) {
		assert.Equal(t, "restockRequest.ProductID", errs[0].FailedField)
		assert.Equal(t, "uuid_required", errs[0].Tag)
	}
}

func TestFirstError(t *testing.T) {
	msg := FirstError(&restockRequest{ProductID: uuid.New(), Quantity: 0})
	assert.Equal(t, "Validation failed: Field 'restockRequest.Quantity' failed on tag 'required'", msg)
	assert.Equal(t, "", FirstError(&restockRequest{ProductID: uuid.New(), Quantity: 1}))
}
