package mockapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tgienger/dash/internal/models"
)

func blank(v string) bool { return strings.TrimSpace(v) == "" }

// --- system & auth ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, models.Health{Status: "UP"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decode(r, &req); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	info, err := s.store.authenticate(req.Username, req.Password)
	if err != nil {
		s.fail(w, http.StatusOK, errInvalidCredentials.Error())
		return
	}
	token, err := s.tokens.issue(info.User.ID, info.User.Username)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	info.Token = token
	s.ok(w, info)
}

func (s *Server) handleAnonymous(w http.ResponseWriter, r *http.Request) {
	s.ok(w, s.store.anonymousInfo())
}

// --- notices ---

func (s *Server) handleNoticePage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PageNum  int `json:"pageNum"`
		PageSize int `json:"pageSize"`
	}
	if err := decode(r, &req); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	s.ok(w, s.store.noticePage(req.PageNum, req.PageSize))
}

func (s *Server) handleCreateNotice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := decode(r, &req); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if blank(req.Title) || blank(req.Content) {
		s.fail(w, http.StatusOK, "title and content are required")
		return
	}
	s.ok(w, s.store.createNotice(req.Title, req.Content))
}

func (s *Server) handleDeleteNotice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		s.fail(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := s.store.deleteNotice(id); err != nil {
		s.storeError(w, err)
		return
	}
	s.ok(w, true)
}

// --- todo ---

func (s *Server) handleTodoTags(w http.ResponseWriter, r *http.Request) {
	s.ok(w, s.store.listTodoTags())
}

func (s *Server) handleCreateTodoTag(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decode(r, &req); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if blank(req.Name) {
		s.fail(w, http.StatusOK, "tag name is required")
		return
	}
	id, err := s.store.createTodoTag(strings.TrimSpace(req.Name))
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.ok(w, id)
}

func (s *Server) handleDeleteTodoTag(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		s.fail(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := s.store.deleteTodoTag(id); err != nil {
		s.storeError(w, err)
		return
	}
	s.ok(w, true)
}

func (s *Server) handleTodoItems(w http.ResponseWriter, r *http.Request) {
	var tagID *int64
	if raw := r.URL.Query().Get("tagId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.fail(w, http.StatusBadRequest, "invalid tagId")
			return
		}
		tagID = &id
	}
	s.ok(w, s.store.listTodoItems(tagID))
}

func (s *Server) handleCreateTodoItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
		TagID   *int64 `json:"tagId"`
	}
	if err := decode(r, &req); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if blank(req.Content) {
		s.fail(w, http.StatusOK, "content is required")
		return
	}
	id, err := s.store.createTodoItem(req.Content, req.TagID)
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.ok(w, id)
}

// handleUpdateTodoItem applies a partial update. An explicit "tagId": null
// detaches the item; an absent tagId leaves it unchanged.
func (s *Server) handleUpdateTodoItem(w http.ResponseWriter, r *http.Request) {
	var req map[string]json.RawMessage
	if err := decode(r, &req); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	var id int64
	if err := json.Unmarshal(req["id"], &id); err != nil || id == 0 {
		s.fail(w, http.StatusBadRequest, "id is required")
		return
	}

	var patch todoItemPatch
	if raw, ok := req["content"]; ok {
		var content string
		if err := json.Unmarshal(raw, &content); err != nil || blank(content) {
			s.fail(w, http.StatusOK, "content is required")
			return
		}
		patch.content = &content
	}
	if raw, ok := req["completed"]; ok {
		var completed bool
		if err := json.Unmarshal(raw, &completed); err != nil {
			s.fail(w, http.StatusBadRequest, "invalid completed")
			return
		}
		patch.completed = &completed
	}
	if raw, ok := req["tagId"]; ok {
		patch.setTag = true
		if err := json.Unmarshal(raw, &patch.tagID); err != nil {
			s.fail(w, http.StatusBadRequest, "invalid tagId")
			return
		}
	}

	if err := s.store.updateTodoItem(id, patch); err != nil {
		s.storeError(w, err)
		return
	}
	s.ok(w, true)
}

func (s *Server) handleDeleteTodoItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		s.fail(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := s.store.deleteTodoItem(id); err != nil {
		s.storeError(w, err)
		return
	}
	s.ok(w, true)
}

// --- activity ---

func (s *Server) handleActivityTags(w http.ResponseWriter, r *http.Request) {
	s.ok(w, s.store.listActivityTags())
}

func (s *Server) handleSaveActivityTag(w http.ResponseWriter, r *http.Request) {
	var req models.ActivityTag
	if err := decode(r, &req); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if blank(req.Name) {
		s.fail(w, http.StatusOK, "tag name is required")
		return
	}
	if strings.HasSuffix(r.URL.Path, "/create") {
		req.ID = 0
	} else if req.ID == 0 {
		s.fail(w, http.StatusBadRequest, "id is required")
		return
	}
	id, err := s.store.saveActivityTag(req)
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.ok(w, id)
}

func (s *Server) handleDeleteActivityTag(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID int64 `json:"id"`
	}
	if err := decode(r, &req); err != nil || req.ID == 0 {
		s.fail(w, http.StatusBadRequest, "id is required")
		return
	}
	if err := s.store.deleteActivityTag(req.ID); err != nil {
		s.storeError(w, err)
		return
	}
	s.ok(w, true)
}

func (s *Server) handleActivityBlocks(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		s.fail(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	s.ok(w, s.store.listActivityBlocks(date))
}

func (s *Server) handleSaveActivityBlock(w http.ResponseWriter, r *http.Request) {
	var req models.ActivityBlockRecord
	if err := decode(r, &req); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if req.TagID == 0 {
		s.fail(w, http.StatusOK, "tag is required")
		return
	}
	if _, err := time.Parse(time.DateOnly, req.ActivityDate); err != nil {
		s.fail(w, http.StatusOK, "activityDate must be YYYY-MM-DD")
		return
	}
	if normalizeClock(req.EndTime) <= normalizeClock(req.StartTime) {
		s.fail(w, http.StatusOK, "end time must be after start time")
		return
	}
	id, err := s.store.saveActivityBlock(req)
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.ok(w, id)
}

func (s *Server) handleDeleteActivityBlock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID int64 `json:"id"`
	}
	if err := decode(r, &req); err != nil || req.ID == 0 {
		s.fail(w, http.StatusBadRequest, "id is required")
		return
	}
	if err := s.store.deleteActivityBlock(req.ID); err != nil {
		s.storeError(w, err)
		return
	}
	s.ok(w, true)
}

// normalizeClock pads HH:mm to HH:mm:ss so clock strings compare lexically.
func normalizeClock(v string) string {
	if len(v) == len("15:04") {
		return v + ":00"
	}
	return v
}

// --- rbac ---

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	s.ok(w, s.store.listUsers())
}

func (s *Server) handleRoles(w http.ResponseWriter, r *http.Request) {
	s.ok(w, s.store.listRoles())
}

func (s *Server) handlePermissions(w http.ResponseWriter, r *http.Request) {
	s.ok(w, s.store.listPermissions())
}

func (s *Server) handleRoleCodesByUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "userID")
	if !ok {
		s.fail(w, http.StatusBadRequest, "invalid user id")
		return
	}
	codes, err := s.store.roleCodesByUser(id)
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.ok(w, codes)
}

func (s *Server) handlePermissionCodesByRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "roleID")
	if !ok {
		s.fail(w, http.StatusBadRequest, "invalid role id")
		return
	}
	codes, err := s.store.permissionCodesByRole(id)
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.ok(w, codes)
}

func (s *Server) handleAssignUserRoles(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID  int64   `json:"userId"`
		RoleIDs []int64 `json:"roleIds"`
	}
	if err := decode(r, &req); err != nil || req.UserID == 0 {
		s.fail(w, http.StatusBadRequest, "userId is required")
		return
	}
	if err := s.store.assignUserRoles(req.UserID, req.RoleIDs); err != nil {
		s.storeError(w, err)
		return
	}
	s.ok(w, true)
}

func (s *Server) handleAssignRolePermissions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoleID        int64   `json:"roleId"`
		PermissionIDs []int64 `json:"permissionIds"`
	}
	if err := decode(r, &req); err != nil || req.RoleID == 0 {
		s.fail(w, http.StatusBadRequest, "roleId is required")
		return
	}
	if err := s.store.assignRolePermissions(req.RoleID, req.PermissionIDs); err != nil {
		s.storeError(w, err)
		return
	}
	s.ok(w, true)
}

func (s *Server) handleSaveRole(w http.ResponseWriter, r *http.Request) {
	var req models.Role
	if err := decode(r, &req); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if blank(req.RoleCode) || blank(req.RoleName) {
		s.fail(w, http.StatusOK, "role code and name are required")
		return
	}
	if strings.HasSuffix(r.URL.Path, "/create") {
		req.ID = 0
	}
	id, err := s.store.saveRole(req)
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.ok(w, id)
}

func (s *Server) handleSavePermission(w http.ResponseWriter, r *http.Request) {
	var req models.Permission
	if err := decode(r, &req); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if blank(req.PermissionCode) || blank(req.PermissionName) {
		s.fail(w, http.StatusOK, "permission code and name are required")
		return
	}
	if strings.HasSuffix(r.URL.Path, "/create") {
		req.ID = 0
	}
	id, err := s.store.savePermission(req)
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.ok(w, id)
}

// --- match games ---

func (s *Server) handleGamePage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PageNum  int     `json:"pageNum"`
		PageSize int     `json:"pageSize"`
		Season   *string `json:"season"`
	}
	if err := decode(r, &req); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	s.ok(w, s.store.gamePage(req.PageNum, req.PageSize, req.Season))
}

func (s *Server) handleGameDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		s.fail(w, http.StatusBadRequest, "invalid id")
		return
	}
	d, err := s.store.gameDetail(id)
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.ok(w, d)
}

func (s *Server) handleSaveGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		models.MatchGame
		TeamStatsList   []models.MatchTeamStats   `json:"teamStatsList"`
		PlayerStatsList []models.MatchPlayerStats `json:"playerStatsList"`
	}
	if err := decode(r, &req); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if blank(req.Season) {
		s.fail(w, http.StatusOK, "season is required")
		return
	}
	if r.Method == http.MethodPost {
		req.ID = 0
	} else if req.ID == 0 {
		s.fail(w, http.StatusBadRequest, "id is required")
		return
	}

	id, err := s.store.saveGame(req.MatchGame, req.TeamStatsList, req.PlayerStatsList)
	if err != nil {
		s.storeError(w, err)
		return
	}
	if r.Method == http.MethodPost {
		s.ok(w, id)
		return
	}
	s.ok(w, true)
}

func (s *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		s.fail(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := s.store.deleteGame(id); err != nil {
		s.storeError(w, err)
		return
	}
	s.ok(w, true)
}

func (s *Server) handleGameStats(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Season    *string               `json:"season"`
		Dimension models.StatsDimension `json:"dimension"`
	}
	if err := decode(r, &req); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	switch req.Dimension {
	case models.DimensionPlayer, models.DimensionUser:
	case "":
		req.Dimension = models.DimensionPlayer
	default:
		s.fail(w, http.StatusOK, "unknown dimension "+string(req.Dimension))
		return
	}
	s.ok(w, s.store.gameStats(req.Season, req.Dimension))
}

func (s *Server) handleGameBaseData(w http.ResponseWriter, r *http.Request) {
	s.ok(w, s.store.gameBaseData())
}
