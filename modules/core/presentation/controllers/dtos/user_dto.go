package dtos

type InviteUserDTO struct {
	Name  string `json:"name" form:"name" validate:"required,max=255"`
	Email string `json:"email" form:"email" validate:"required,email,max=255"`
	Role  string `json:"role" form:"role" validate:"omitempty,oneof=admin moderator member"`
}

func (d *InviteUserDTO) Ok() (map[string]string, bool) {
	return check(d)
}

// UpdateUserDTO leaves the password untouched when it is empty.
type UpdateUserDTO struct {
	Name     string `json:"name" form:"name" validate:"required,max=255"`
	Email    string `json:"email" form:"email" validate:"required,email,max=255"`
	Password string `json:"password" form:"password" validate:"omitempty,min=8"`
	Role     string `json:"role" form:"role" validate:"omitempty,oneof=admin moderator member"`
}

func (d *UpdateUserDTO) Ok() (map[string]string, bool) {
	return check(d)
}
