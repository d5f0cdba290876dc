package dashboard

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/tgienger/dash/internal/api"
	"github.com/tgienger/dash/internal/cache"
	"github.com/tgienger/dash/internal/models"
)

// AccessControl is the user, role and permission management screen.
type AccessControl struct {
	Users       *cache.Cell[[]models.User]
	Roles       *cache.Cell[[]models.Role]
	Permissions *cache.Cell[[]models.Permission]

	RoleCodes       *cache.Keyed[int64, []string] // by user id
	PermissionCodes *cache.Keyed[int64, []string] // by role id

	AssignRolesOp       *Mutation[assignment]
	AssignPermissionsOp *Mutation[assignment]
	SaveRoleOp          *Mutation[api.RoleInput]
	SavePermissionOp    *Mutation[api.PermissionInput]
}

type assignment struct {
	ownerID int64
	ids     []int64
}

// NewAccessControl wires the management screen to client.
func NewAccessControl(client *api.Client, logger *slog.Logger) *AccessControl {
	log := logger.With("screen", "access")
	a := &AccessControl{
		Users:           cache.New("rbac.users", client.Users, cache.WithLogger(log)),
		Roles:           cache.New("rbac.roles", client.Roles, cache.WithLogger(log)),
		Permissions:     cache.New("rbac.permissions", client.Permissions, cache.WithLogger(log)),
		RoleCodes:       cache.NewKeyed(client.RoleCodesByUser),
		PermissionCodes: cache.NewKeyed(client.PermissionCodesByRole),
	}

	a.AssignRolesOp = NewMutation("assign user roles", "assign roles failed",
		func(ctx context.Context, in assignment) error {
			return client.AssignUserRoles(ctx, in.ownerID, in.ids)
		}, log)
	a.AssignPermissionsOp = NewMutation("assign role permissions", "assign permissions failed",
		func(ctx context.Context, in assignment) error {
			return client.AssignRolePermissions(ctx, in.ownerID, in.ids)
		}, log)

	a.SaveRoleOp = NewMutation("save role", "save role failed",
		func(ctx context.Context, in api.RoleInput) error {
			if in.ID == 0 {
				_, err := client.CreateRole(ctx, in)
				return err
			}
			return client.UpdateRole(ctx, in)
		}, log).
		Validate(func(in api.RoleInput) string {
			return required("role code", in.RoleCode, "role name", in.RoleName)
		})

	a.SavePermissionOp = NewMutation("save permission", "save permission failed",
		func(ctx context.Context, in api.PermissionInput) error {
			if in.ID == 0 {
				_, err := client.CreatePermission(ctx, in)
				return err
			}
			return client.UpdatePermission(ctx, in)
		}, log).
		Validate(func(in api.PermissionInput) string {
			return required("permission code", in.PermissionCode, "permission name", in.PermissionName)
		})
	return a
}

// RoleIDsOfUser resolves the user's role codes against the loaded roles.
func (a *AccessControl) RoleIDsOfUser(ctx context.Context, userID int64) ([]int64, error) {
	codes, err := a.RoleCodes.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	roles, err := a.Roles.Load(ctx)
	if err != nil {
		return nil, err
	}
	var ids []int64
	for _, r := range roles {
		if slices.Contains(codes, r.RoleCode) {
			ids = append(ids, r.ID)
		}
	}
	return ids, nil
}

// PermissionIDsOfRole resolves the role's permission codes against the loaded permissions.
func (a *AccessControl) PermissionIDsOfRole(ctx context.Context, roleID int64) ([]int64, error) {
	codes, err := a.PermissionCodes.Load(ctx, roleID)
	if err != nil {
		return nil, err
	}
	perms, err := a.Permissions.Load(ctx)
	if err != nil {
		return nil, err
	}
	var ids []int64
	for _, p := range perms {
		if slices.Contains(codes, p.PermissionCode) {
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}

// AssignRoles replaces the roles of a user.
func (a *AccessControl) AssignRoles(ctx context.Context, userID int64, roleIDs []int64) bool {
	if !a.AssignRolesOp.Run(ctx, assignment{ownerID: userID, ids: roleIDs}) {
		return false
	}
	a.RoleCodes.Clear(ctx, userID)
	return true
}

// AssignPermissions replaces the permissions of a role.
func (a *AccessControl) AssignPermissions(ctx context.Context, roleID int64, permissionIDs []int64) bool {
	if !a.AssignPermissionsOp.Run(ctx, assignment{ownerID: roleID, ids: permissionIDs}) {
		return false
	}
	a.PermissionCodes.Clear(ctx, roleID)
	return true
}

// SaveRole creates a role when in.ID is zero and updates it otherwise.
func (a *AccessControl) SaveRole(ctx context.Context, in api.RoleInput) bool {
	in.RoleCode = strings.TrimSpace(in.RoleCode)
	in.RoleName = strings.TrimSpace(in.RoleName)
	if !a.SaveRoleOp.Run(ctx, in) {
		return false
	}
	a.Roles.Refresh(ctx)
	// a renamed code changes every user's role codes
	a.RoleCodes.ClearAll()
	return true
}

// SavePermission creates a permission when in.ID is zero and updates it otherwise.
func (a *AccessControl) SavePermission(ctx context.Context, in api.PermissionInput) bool {
	in.PermissionCode = strings.TrimSpace(in.PermissionCode)
	in.PermissionName = strings.TrimSpace(in.PermissionName)
	if !a.SavePermissionOp.Run(ctx, in) {
		return false
	}
	a.Permissions.Refresh(ctx)
	a.PermissionCodes.ClearAll()
	return true
}

// Toggle adds id to ids, or removes it when present.
func Toggle(ids []int64, id int64) []int64 {
	if i := slices.Index(ids, id); i >= 0 {
		return slices.Delete(slices.Clone(ids), i, i+1)
	}
	return append(slices.Clone(ids), id)
}
