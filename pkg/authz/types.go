package authz

// Objects guarded by role policies.
const (
	ObjectWorkspace = "workspace"
	ObjectUsers     = "users"
	ObjectEvents    = "events"
)

// Actions understood by the policy file.
const (
	ActionViewAny   = "view_any"
	ActionView      = "view"
	ActionCreate    = "create"
	ActionUpdate    = "update"
	ActionDelete    = "delete"
	ActionAddPhotos = "add_photos"
)

// Mode represents the global enforcement mode.
type Mode string

const (
	ModeDisabled Mode = "disabled"
	ModeShadow   Mode = "shadow"
	ModeEnforce  Mode = "enforce"
)

// ParseMode falls back to enforce for unknown values.
func ParseMode(raw string) Mode {
	switch m := Mode(raw); m {
	case ModeDisabled, ModeShadow, ModeEnforce:
		return m
	default:
		return ModeEnforce
	}
}

// Request is one enforcement question: may role perform action on object.
type Request struct {
	Role   string
	Object string
	Action string
}
