package dtos

import (
	"github.com/eventflow/eventflow/pkg/constants"
	"github.com/eventflow/eventflow/pkg/httpapi"
)

type RegisterDTO struct {
	Name                 string `json:"name" form:"name" validate:"required,max=255"`
	Email                string `json:"email" form:"email" validate:"required,email,max=255"`
	Password             string `json:"password" form:"password" validate:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" form:"password_confirmation" validate:"required,eqfield=Password"`
}

func (d *RegisterDTO) Ok() (map[string]string, bool) {
	return check(d)
}

type LoginDTO struct {
	Email    string `json:"email" form:"email" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

func (d *LoginDTO) Ok() (map[string]string, bool) {
	return check(d)
}

func check(dto any) (map[string]string, bool) {
	err := constants.Validate.Struct(dto)
	if err == nil {
		return nil, true
	}
	fields := httpapi.FieldErrors(err)
	if fields == nil {
		fields = map[string]string{"_": err.Error()}
	}
	return fields, false
}
