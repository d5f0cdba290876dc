package dashboard

// Permission codes checked before showing gated controls.
const (
	PermNoticeView         = "PERM_NOTICE_VIEW"
	PermNoticeCreate       = "PERM_NOTICE_CREATE"
	PermTodo               = "PERM_TODO"
	PermActivity           = "PERM_ACTIVITY"
	PermUserPermissionMgmt = "PERM_USER_PERMISSION_MGMT"
)

// Capabilities is the current session's permission set.
type Capabilities interface {
	HasPermission(code string) bool
	IsAuthenticated() bool
}

// Control describes how a gated control is presented.
type Control int

const (
	ControlHidden Control = iota
	ControlDisabled
	ControlEnabled
)

// Gate decides how to present a control that needs perm. Hidden when the
// permission is missing; with disabledBeforeLogin the control stays visible
// but disabled for anonymous sessions.
func Gate(caps Capabilities, perm string, disabledBeforeLogin bool) Control {
	if disabledBeforeLogin && !caps.IsAuthenticated() {
		return ControlDisabled
	}
	if !caps.HasPermission(perm) {
		return ControlHidden
	}
	return ControlEnabled
}
