package validation

import (
	"errors"
	"testing"

	"accounts/internal/apperrors"
	"accounts/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructReportsJSONFieldNames(t *testing.T) {
	err := Struct(models.CreateUserInput{Email: "not-an-email", FirstName: "A"})
	require.Error(t, err)

	var appErr *apperrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.CodeValidation, appErr.Code)

	byField := map[string]string{}
	for _, f := range appErr.Fields {
		byField[f.Field] = f.Message
	}
	assert.Equal(t, "must be a valid email", byField["email"])
	assert.Equal(t, "is required", byField["lastName"])
	assert.Equal(t, "is required", byField["password"])
	assert.NotContains(t, byField, "firstName")
}

func TestStructAcceptsValidInput(t *testing.T) {
	assert.NoError(t, Struct(models.CreateUserInput{Email: "a@d.com", FirstName: "A", LastName: "B", Password: "p"}))
	zero := 0
	assert.NoError(t, Struct(models.AddressInput{ZipCode: 1000, Country: "PT", City: "Lisbon", Street: "Rua", Number: &zero}))
	assert.NoError(t, Struct(models.UpdateUserInput{}))
}

func TestStructAddressBounds(t *testing.T) {
	number := 1
	err := Struct(models.AddressInput{ZipCode: 3, Country: "PT", City: "Lisbon", Street: "Rua", Number: &number})
	var appErr *apperrors.Error
	require.True(t, errors.As(err, &appErr))
	require.Len(t, appErr.Fields, 1)
	assert.Equal(t, "zip_code", appErr.Fields[0].Field)
	assert.Equal(t, "must be at least 4", appErr.Fields[0].Message)

	bad := ""
	err = Struct(models.UpdateAddressInput{City: &bad})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}

func TestStructAddressNumberIsRequired(t *testing.T) {
	err := Struct(models.AddressInput{ZipCode: 1000, Country: "PT", City: "Lisbon", Street: "Rua"})
	var appErr *apperrors.Error
	require.True(t, errors.As(err, &appErr))
	require.Len(t, appErr.Fields, 1)
	assert.Equal(t, "number", appErr.Fields[0].Field)
	assert.Equal(t, "is required", appErr.Fields[0].Message)

	negative := -1
	err = Struct(models.AddressInput{ZipCode: 1000, Country: "PT", City: "Lisbon", Street: "Rua", Number: &negative})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}
