package client

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/clientdesk/clientdesk/pkg/constants"
	"github.com/clientdesk/clientdesk/pkg/serrors"
)

type CreateDTO struct {
	Name             string  `json:"name" validate:"required"`
	Email            string  `json:"email" validate:"omitempty,email"`
	Phone            string  `json:"phone"`
	Address          string  `json:"address"`
	City             string  `json:"city"`
	State            string  `json:"state"`
	PostalCode       string  `json:"postalCode"`
	Website          string  `json:"website" validate:"omitempty,url"`
	Industry         string  `json:"industry"`
	CompanyType      string  `json:"companyType"`
	ContactStatus    string  `json:"contactStatus"`
	Description      string  `json:"description"`
	ForecastedAmount float64 `json:"forecastedAmount" validate:"omitempty,gte=0"`
	OwnedBy          string  `json:"ownedBy" validate:"omitempty,email"`
}

func (d *CreateDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	d.Phone = strings.TrimSpace(d.Phone)
	d.Website = strings.TrimSpace(d.Website)
	d.OwnedBy = strings.ToLower(strings.TrimSpace(d.OwnedBy))
}

func (d *CreateDTO) Ok() (map[string]string, bool) {
	d.Normalize()
	if err := constants.Validate.Struct(d); err != nil {
		return serrors.ProcessValidatorErrors(err.(validator.ValidationErrors)).Flatten(), false
	}
	return map[string]string{}, true
}

// ToEntity builds a new client owned by createdBy unless the DTO names
// another owner.
func (d *CreateDTO) ToEntity(createdBy string) *Client {
	owner := d.OwnedBy
	if owner == "" {
		owner = createdBy
	}
	c := New(uuid.NewString(), d.Name, owner)
	c.Email = d.Email
	c.Phone = d.Phone
	c.Address = strings.TrimSpace(d.Address)
	c.City = strings.TrimSpace(d.City)
	c.State = strings.TrimSpace(d.State)
	c.PostalCode = strings.TrimSpace(d.PostalCode)
	c.Website = d.Website
	c.Industry = strings.TrimSpace(d.Industry)
	c.CompanyType = strings.TrimSpace(d.CompanyType)
	c.Description = strings.TrimSpace(d.Description)
	c.ForecastedAmount = d.ForecastedAmount
	if status, ok := ParseContactStatus(d.ContactStatus); ok {
		c.ContactStatus = status
	}
	return c
}

type UpdateDTO struct {
	Name             *string  `json:"name" validate:"omitempty,min=1"`
	Email            *string  `json:"email" validate:"omitempty,email"`
	Phone            *string  `json:"phone"`
	Address          *string  `json:"address"`
	City             *string  `json:"city"`
	State            *string  `json:"state"`
	PostalCode       *string  `json:"postalCode"`
	Website          *string  `json:"website" validate:"omitempty,url"`
	Industry         *string  `json:"industry"`
	CompanyType      *string  `json:"companyType"`
	Description      *string  `json:"description"`
	LastNote         *string  `json:"lastNote"`
	ForecastedAmount *float64 `json:"forecastedAmount"`
	OwnedBy          *string  `json:"ownedBy" validate:"omitempty,email"`
}

func (d *UpdateDTO) Ok() (map[string]string, bool) {
	if err := constants.Validate.Struct(d); err != nil {
		return serrors.ProcessValidatorErrors(err.(validator.ValidationErrors)).Flatten(), false
	}
	return map[string]string{}, true
}

// Apply copies the provided fields onto the entity and refreshes updatedAt.
func (d *UpdateDTO) Apply(c *Client) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	if d.Name != nil && strings.TrimSpace(*d.Name) != "" {
		c.Name = strings.TrimSpace(*d.Name)
	}
	if d.Email != nil {
		c.Email = strings.ToLower(strings.TrimSpace(*d.Email))
	}
	setString(&c.Phone, d.Phone)
	setString(&c.Address, d.Address)
	setString(&c.City, d.City)
	setString(&c.State, d.State)
	setString(&c.PostalCode, d.PostalCode)
	setString(&c.Website, d.Website)
	setString(&c.Industry, d.Industry)
	setString(&c.CompanyType, d.CompanyType)
	setString(&c.Description, d.Description)
	setString(&c.LastNote, d.LastNote)
	if d.ForecastedAmount != nil {
		c.ForecastedAmount = *d.ForecastedAmount
	}
	if d.OwnedBy != nil && *d.OwnedBy != "" {
		c.OwnedBy = strings.ToLower(strings.TrimSpace(*d.OwnedBy))
	}
	c.UpdatedAt = time.Now().UTC()
}

type ChangeStatusDTO struct {
	Status string `json:"status" validate:"required"`
	Notes  string `json:"notes"`
}

func (d *ChangeStatusDTO) Ok() (map[string]string, bool) {
	if err := constants.Validate.Struct(d); err != nil {
		return serrors.ProcessValidatorErrors(err.(validator.ValidationErrors)).Flatten(), false
	}
	if _, ok := ParseContactStatus(d.Status); !ok {
		return map[string]string{"Status": "unknown contact status"}, false
	}
	return map[string]string{}, true
}
