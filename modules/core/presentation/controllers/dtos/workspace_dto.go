package dtos

type WorkspaceSettingsDTO struct {
	Name string `json:"name" form:"name" validate:"required,max=255"`
}

func (d *WorkspaceSettingsDTO) Ok() (map[string]string, bool) {
	return check(d)
}
