package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tgienger/dash/internal/models"
)

// Users lists all users.
func (c *Client) Users(ctx context.Context) ([]models.User, error) {
	users, err := call[[]models.User](ctx, c, http.MethodGet, "/api/user/list", nil, authOptional)
	if users == nil {
		users = []models.User{}
	}
	return users, err
}

// Roles lists all roles.
func (c *Client) Roles(ctx context.Context) ([]models.Role, error) {
	roles, err := call[[]models.Role](ctx, c, http.MethodGet, "/api/role/list", nil, authOptional)
	if roles == nil {
		roles = []models.Role{}
	}
	return roles, err
}

// Permissions lists all permissions.
func (c *Client) Permissions(ctx context.Context) ([]models.Permission, error) {
	perms, err := call[[]models.Permission](ctx, c, http.MethodGet, "/api/permission/list", nil, authOptional)
	if perms == nil {
		perms = []models.Permission{}
	}
	return perms, err
}

// RoleCodesByUser returns the role codes granted to a user.
func (c *Client) RoleCodesByUser(ctx context.Context, userID int64) ([]string, error) {
	codes, err := call[[]string](ctx, c, http.MethodGet, fmt.Sprintf("/api/user/roles-by-user/%d", userID), nil, authOptional)
	if codes == nil {
		codes = []string{}
	}
	return codes, err
}

// PermissionCodesByRole returns the permission codes granted to a role.
func (c *Client) PermissionCodesByRole(ctx context.Context, roleID int64) ([]string, error) {
	codes, err := call[[]string](ctx, c, http.MethodGet, fmt.Sprintf("/api/role/permissions-by-role/%d", roleID), nil, authOptional)
	if codes == nil {
		codes = []string{}
	}
	return codes, err
}

// AssignUserRoles replaces the roles of a user.
func (c *Client) AssignUserRoles(ctx context.Context, userID int64, roleIDs []int64) error {
	body := map[string]any{"userId": userID, "roleIds": nonNil(roleIDs)}
	_, err := call[any](ctx, c, http.MethodPost, "/api/user/assign-role", body, authRequired)
	return err
}

// AssignRolePermissions replaces the permissions of a role.
func (c *Client) AssignRolePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error {
	body := map[string]any{"roleId": roleID, "permissionIds": nonNil(permissionIDs)}
	_, err := call[any](ctx, c, http.MethodPost, "/api/role/assign-permission", body, authRequired)
	return err
}

// RoleInput is the payload of role create and update. ID is ignored on create.
type RoleInput struct {
	ID       int64  `json:"id,omitempty"`
	RoleCode string `json:"roleCode"`
	RoleName string `json:"roleName"`
	Status   int    `json:"status"`
}

// CreateRole creates a role and returns its id.
func (c *Client) CreateRole(ctx context.Context, in RoleInput) (int64, error) {
	in.ID = 0
	return call[int64](ctx, c, http.MethodPost, "/api/role/create", in, authRequired)
}

// UpdateRole updates a role.
func (c *Client) UpdateRole(ctx context.Context, in RoleInput) error {
	_, err := call[any](ctx, c, http.MethodPost, "/api/role/update", in, authRequired)
	return err
}

// PermissionInput is the payload of permission create and update. ID is ignored on create.
type PermissionInput struct {
	ID             int64  `json:"id,omitempty"`
	PermissionCode string `json:"permissionCode"`
	PermissionName string `json:"permissionName"`
}

// CreatePermission creates a permission and returns its id.
func (c *Client) CreatePermission(ctx context.Context, in PermissionInput) (int64, error) {
	in.ID = 0
	return call[int64](ctx, c, http.MethodPost, "/api/permission/create", in, authRequired)
}

// UpdatePermission updates a permission.
func (c *Client) UpdatePermission(ctx context.Context, in PermissionInput) error {
	_, err := call[any](ctx, c, http.MethodPost, "/api/permission/update", in, authRequired)
	return err
}

func nonNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
