package models

import "time"

// Address is owned by exactly one user through OwnerID.
type Address struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ZipCode   int       `json:"zip_code"`
	Country   string    `json:"country" gorm:"type:varchar(100)"`
	City      string    `json:"city" gorm:"type:varchar(100)"`
	Street    string    `json:"street" gorm:"type:varchar(255)"`
	Number    int       `json:"number"`
	OwnerID   string    `json:"userId" gorm:"index;not null;type:varchar(36)"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AddressInput is the accepted shape for a new address. Number is a pointer
// so that a missing number is rejected while an explicit 0 is kept.
type AddressInput struct {
	ZipCode int    `json:"zip_code" validate:"gte=4"`
	Country string `json:"country" validate:"required"`
	City    string `json:"city" validate:"required"`
	Street  string `json:"street" validate:"required"`
	Number  *int   `json:"number" validate:"required,gte=0"`
}

// UpdateAddressInput carries a partial address update.
type UpdateAddressInput struct {
	ZipCode *int    `json:"zip_code" validate:"omitempty,gte=4"`
	Country *string `json:"country" validate:"omitempty,min=1"`
	City    *string `json:"city" validate:"omitempty,min=1"`
	Street  *string `json:"street" validate:"omitempty,min=1"`
	Number  *int    `json:"number" validate:"omitempty,gte=0"`
}

// Apply copies the set fields of in onto a.
func (in UpdateAddressInput) Apply(a *Address) {
	if in.ZipCode != nil {
		a.ZipCode = *in.ZipCode
	}
	if in.Country != nil {
		a.Country = *in.Country
	}
	if in.City != nil {
		a.City = *in.City
	}
	if in.Street != nil {
		a.Street = *in.Street
	}
	if in.Number != nil {
		a.Number = *in.Number
	}
}
