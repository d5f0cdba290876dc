package mockapi

import (
	"errors"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/tgienger/dash/internal/models"
)

const timeLayout = "2006-01-02 15:04:05"

var (
	errNotFound           = errors.New("record not found")
	errInvalidCredentials = errors.New("invalid username or password")
	errDuplicate          = errors.New("record already exists")
)

type userRecord struct {
	models.User
	hash    []byte
	roleIDs []int64
}

type roleRecord struct {
	models.Role
	permissionIDs []int64
}

type gameRecord struct {
	game    models.MatchGame
	teams   []models.MatchTeamStats
	players []models.MatchPlayerStats
}

// store is the in-memory state of the mock backend.
type store struct {
	mu     sync.Mutex
	nextID int64
	now    func() time.Time

	notices        []models.Notice
	todoTags       []models.TodoTag
	todoItems      []models.TodoItem
	activityTags   []models.ActivityTag
	activityBlocks []models.ActivityBlockRecord
	users          []*userRecord
	roles          []*roleRecord
	permissions    []models.Permission
	games          []*gameRecord
	anonymousPerms []string
}

func newStore() *store {
	return &store{now: time.Now}
}

func (s *store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *store) stamp() string {
	return s.now().Format(timeLayout)
}

// seed installs the permission catalogue, an ADMIN role holding all of it and
// one admin account.
func (s *store) seed(adminUser, adminPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	catalogue := []struct{ code, name string }{
		{"PERM_NOTICE_VIEW", "View notices"},
		{"PERM_NOTICE_CREATE", "Create notices"},
		{"PERM_TODO", "Manage todos"},
		{"PERM_ACTIVITY", "Manage activity log"},
		{"PERM_USER_PERMISSION_MGMT", "Manage users and permissions"},
	}
	admin := &roleRecord{Role: models.Role{ID: s.id(), RoleCode: "ADMIN", RoleName: "Administrator", Status: 1, CreateTime: s.stamp()}}
	for _, c := range catalogue {
		p := models.Permission{ID: s.id(), PermissionCode: c.code, PermissionName: c.name, CreateTime: s.stamp()}
		s.permissions = append(s.permissions, p)
		admin.permissionIDs = append(admin.permissionIDs, p.ID)
	}
	s.roles = append(s.roles, admin)
	s.users = append(s.users, &userRecord{
		User:    models.User{ID: s.id(), Username: adminUser, Nickname: "Admin", Status: 1, CreateTime: s.stamp()},
		hash:    hash,
		roleIDs: []int64{admin.ID},
	})
	s.anonymousPerms = []string{"PERM_NOTICE_VIEW"}
	return nil
}

// --- auth ---

func (s *store) authenticate(username, password string) (models.UserInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username != username {
			continue
		}
		if u.Status != 1 || bcrypt.CompareHashAndPassword(u.hash, []byte(password)) != nil {
			return models.UserInfo{}, errInvalidCredentials
		}
		return s.userInfoLocked(u), nil
	}
	return models.UserInfo{}, errInvalidCredentials
}

func (s *store) userInfo(userID int64) (models.UserInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.userLocked(userID)
	if u == nil {
		return models.UserInfo{}, false
	}
	return s.userInfoLocked(u), true
}

func (s *store) userInfoLocked(u *userRecord) models.UserInfo {
	user := u.User
	info := models.UserInfo{User: &user, RoleCodes: []string{}, PermissionCodes: []string{}}
	for _, r := range s.roles {
		if !slices.Contains(u.roleIDs, r.ID) || r.Status != 1 {
			continue
		}
		info.RoleCodes = append(info.RoleCodes, r.RoleCode)
		for _, p := range s.permissions {
			if slices.Contains(r.permissionIDs, p.ID) && !slices.Contains(info.PermissionCodes, p.PermissionCode) {
				info.PermissionCodes = append(info.PermissionCodes, p.PermissionCode)
			}
		}
	}
	return info
}

func (s *store) anonymousInfo() models.UserInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.UserInfo{RoleCodes: []string{}, PermissionCodes: slices.Clone(s.anonymousPerms)}
}

func (s *store) userLocked(id int64) *userRecord {
	for _, u := range s.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

// --- notices ---

func (s *store) noticePage(pageNum, pageSize int) models.NoticePage {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pageNum < 1 {
		pageNum = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	// newest first
	sorted := slices.Clone(s.notices)
	slices.Reverse(sorted)

	start := min((pageNum-1)*pageSize, len(sorted))
	end := min(start+pageSize, len(sorted))
	return models.NoticePage{
		List:     sorted[start:end],
		Total:    int64(len(sorted)),
		PageNo:   pageNum,
		PageSize: pageSize,
	}
}

func (s *store) createNotice(title, content string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := models.Notice{ID: s.id(), Title: title, Content: content, CreateTime: s.stamp()}
	s.notices = append(s.notices, n)
	return n.ID
}

func (s *store) deleteNotice(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.notices, func(n models.Notice) bool { return n.ID == id })
	if i < 0 {
		return errNotFound
	}
	s.notices = slices.Delete(s.notices, i, i+1)
	return nil
}

// --- todo ---

func (s *store) listTodoTags() []models.TodoTag {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.todoTags)
}

func (s *store) createTodoTag(name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.todoTags {
		if strings.EqualFold(t.Name, name) {
			return 0, errDuplicate
		}
	}
	t := models.TodoTag{ID: s.id(), Name: name, CreateTime: s.stamp()}
	s.todoTags = append(s.todoTags, t)
	return t.ID, nil
}

// deleteTodoTag removes a tag and detaches the items that reference it.
func (s *store) deleteTodoTag(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.todoTags, func(t models.TodoTag) bool { return t.ID == id })
	if i < 0 {
		return errNotFound
	}
	s.todoTags = slices.Delete(s.todoTags, i, i+1)
	for j := range s.todoItems {
		if tid := s.todoItems[j].TagID; tid != nil && *tid == id {
			s.todoItems[j].TagID = nil
			s.todoItems[j].ModifiedTime = s.stamp()
		}
	}
	return nil
}

func (s *store) todoTagLocked(id int64) (models.TodoTag, bool) {
	for _, t := range s.todoTags {
		if t.ID == id {
			return t, true
		}
	}
	return models.TodoTag{}, false
}

// listTodoItems returns items with tag names resolved, restricted to tagID when set.
func (s *store) listTodoItems(tagID *int64) []models.TodoItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]models.TodoItem, 0, len(s.todoItems))
	for _, it := range s.todoItems {
		if tagID != nil && (it.TagID == nil || *it.TagID != *tagID) {
			continue
		}
		it.TagName = nil
		if it.TagID != nil {
			if t, ok := s.todoTagLocked(*it.TagID); ok {
				name := t.Name
				it.TagName = &name
			}
		}
		items = append(items, it)
	}
	return items
}

func (s *store) createTodoItem(content string, tagID *int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tagID != nil {
		if _, ok := s.todoTagLocked(*tagID); !ok {
			return 0, errNotFound
		}
	}
	it := models.TodoItem{ID: s.id(), Content: content, TagID: tagID, CreateTime: s.stamp()}
	it.ModifiedTime = it.CreateTime
	s.todoItems = append(s.todoItems, it)
	return it.ID, nil
}

type todoItemPatch struct {
	content   *string
	completed *bool
	setTag    bool
	tagID     *int64
}

func (s *store) updateTodoItem(id int64, p todoItemPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.todoItems, func(it models.TodoItem) bool { return it.ID == id })
	if i < 0 {
		return errNotFound
	}
	it := &s.todoItems[i]
	if p.content != nil {
		it.Content = *p.content
	}
	if p.completed != nil {
		it.Completed = *p.completed
	}
	if p.setTag {
		if p.tagID != nil {
			if _, ok := s.todoTagLocked(*p.tagID); !ok {
				return errNotFound
			}
		}
		it.TagID = p.tagID
	}
	it.ModifiedTime = s.stamp()
	return nil
}

func (s *store) deleteTodoItem(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.todoItems, func(it models.TodoItem) bool { return it.ID == id })
	if i < 0 {
		return errNotFound
	}
	s.todoItems = slices.Delete(s.todoItems, i, i+1)
	return nil
}

// --- activity ---

func (s *store) listActivityTags() []models.ActivityTag {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.activityTags)
}

func (s *store) saveActivityTag(t models.ActivityTag) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.activityTags {
		if other.ID != t.ID && strings.EqualFold(other.Name, t.Name) {
			return 0, errDuplicate
		}
	}
	if t.ID == 0 {
		t.ID = s.id()
		s.activityTags = append(s.activityTags, t)
		return t.ID, nil
	}
	i := slices.IndexFunc(s.activityTags, func(a models.ActivityTag) bool { return a.ID == t.ID })
	if i < 0 {
		return 0, errNotFound
	}
	s.activityTags[i] = t
	return t.ID, nil
}

// deleteActivityTag leaves blocks that reference the tag untouched.
func (s *store) deleteActivityTag(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.activityTags, func(a models.ActivityTag) bool { return a.ID == id })
	if i < 0 {
		return errNotFound
	}
	s.activityTags = slices.Delete(s.activityTags, i, i+1)
	return nil
}

func (s *store) listActivityBlocks(date string) []models.ActivityBlockRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	blocks := []models.ActivityBlockRecord{}
	for _, b := range s.activityBlocks {
		if b.ActivityDate == date {
			blocks = append(blocks, b)
		}
	}
	sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].StartTime < blocks[j].StartTime })
	return blocks
}

func (s *store) saveActivityBlock(b models.ActivityBlockRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == 0 {
		b.ID = s.id()
		s.activityBlocks = append(s.activityBlocks, b)
		return b.ID, nil
	}
	i := slices.IndexFunc(s.activityBlocks, func(a models.ActivityBlockRecord) bool { return a.ID == b.ID })
	if i < 0 {
		return 0, errNotFound
	}
	s.activityBlocks[i] = b
	return b.ID, nil
}

func (s *store) deleteActivityBlock(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.activityBlocks, func(a models.ActivityBlockRecord) bool { return a.ID == id })
	if i < 0 {
		return errNotFound
	}
	s.activityBlocks = slices.Delete(s.activityBlocks, i, i+1)
	return nil
}

// --- rbac ---

func (s *store) listUsers() []models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u.User)
	}
	return users
}

func (s *store) listRoles() []models.Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	roles := make([]models.Role, 0, len(s.roles))
	for _, r := range s.roles {
		roles = append(roles, r.Role)
	}
	return roles
}

func (s *store) listPermissions() []models.Permission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.permissions)
}

func (s *store) roleCodesByUser(userID int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.userLocked(userID)
	if u == nil {
		return nil, errNotFound
	}
	codes := []string{}
	for _, r := range s.roles {
		if slices.Contains(u.roleIDs, r.ID) {
			codes = append(codes, r.RoleCode)
		}
	}
	return codes, nil
}

func (s *store) permissionCodesByRole(roleID int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.roleLocked(roleID)
	if r == nil {
		return nil, errNotFound
	}
	codes := []string{}
	for _, p := range s.permissions {
		if slices.Contains(r.permissionIDs, p.ID) {
			codes = append(codes, p.PermissionCode)
		}
	}
	return codes, nil
}

func (s *store) assignUserRoles(userID int64, roleIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.userLocked(userID)
	if u == nil {
		return errNotFound
	}
	for _, id := range roleIDs {
		if s.roleLocked(id) == nil {
			return errNotFound
		}
	}
	u.roleIDs = slices.Clone(roleIDs)
	u.ModifiedTime = s.stamp()
	return nil
}

func (s *store) assignRolePermissions(roleID int64, permissionIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.roleLocked(roleID)
	if r == nil {
		return errNotFound
	}
	for _, id := range permissionIDs {
		if !slices.ContainsFunc(s.permissions, func(p models.Permission) bool { return p.ID == id }) {
			return errNotFound
		}
	}
	r.permissionIDs = slices.Clone(permissionIDs)
	r.ModifiedTime = s.stamp()
	return nil
}

func (s *store) roleLocked(id int64) *roleRecord {
	for _, r := range s.roles {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func (s *store) saveRole(in models.Role) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.roles {
		if r.ID != in.ID && r.RoleCode == in.RoleCode {
			return 0, errDuplicate
		}
	}
	if in.ID == 0 {
		in.ID = s.id()
		in.CreateTime = s.stamp()
		s.roles = append(s.roles, &roleRecord{Role: in})
		return in.ID, nil
	}
	r := s.roleLocked(in.ID)
	if r == nil {
		return 0, errNotFound
	}
	r.RoleCode, r.RoleName, r.Status = in.RoleCode, in.RoleName, in.Status
	r.ModifiedTime = s.stamp()
	return r.ID, nil
}

func (s *store) savePermission(in models.Permission) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.permissions {
		if p.ID != in.ID && p.PermissionCode == in.PermissionCode {
			return 0, errDuplicate
		}
	}
	if in.ID == 0 {
		in.ID = s.id()
		in.CreateTime = s.stamp()
		s.permissions = append(s.permissions, in)
		return in.ID, nil
	}
	i := slices.IndexFunc(s.permissions, func(p models.Permission) bool { return p.ID == in.ID })
	if i < 0 {
		return 0, errNotFound
	}
	s.permissions[i].PermissionCode = in.PermissionCode
	s.permissions[i].PermissionName = in.PermissionName
	s.permissions[i].ModifiedTime = s.stamp()
	return in.ID, nil
}
