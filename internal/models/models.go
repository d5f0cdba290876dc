package models

import "time"

// Notice represents an announcement shown on the dashboard
type Notice struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Content    string `json:"content"` // Markdown
	CreateTime string `json:"createTime"`
}

// NoticePage is one page of notices
type NoticePage struct {
	List     []Notice `json:"list"`
	Total    int64    `json:"total"`
	PageNo   int      `json:"pageNo"`
	PageSize int      `json:"pageSize"`
}

// TodoTag represents a free-standing tag that todo items may reference
type TodoTag struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	CreateTime string `json:"createTime,omitempty"`
}

// TodoItem represents a single todo entry
type TodoItem struct {
	ID           int64   `json:"id"`
	Content      string  `json:"content"`
	Completed    bool    `json:"completed"`
	TagID        *int64  `json:"tagId"`   // nil if untagged; may dangle after a tag delete
	TagName      *string `json:"tagName"` // resolved by the server
	CreateTime   string  `json:"createTime,omitempty"`
	ModifiedTime string  `json:"modifiedTime,omitempty"`
}

// ActivityTag represents a category for activity blocks
type ActivityTag struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"` // #RRGGBB
}

// ActivityBlockRecord is an activity block as returned by the list endpoint,
// referencing its tag by id only
type ActivityBlockRecord struct {
	ID           int64   `json:"id"`
	TagID        int64   `json:"tagId"`
	ActivityDate string  `json:"activityDate,omitempty"`
	StartTime    string  `json:"startTime"`
	EndTime      string  `json:"endTime"`
	Detail       *string `json:"detail"`
}

// ActivityBlock is a time range of one day with its tag resolved
type ActivityBlock struct {
	ID        int64
	StartTime string // HH:mm or HH:mm:ss
	EndTime   string
	Tag       ActivityTag
	Detail    string
}

// User represents an account
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	Nickname     string `json:"nickname"`
	Status       int    `json:"status"` // 1 enabled, 0 disabled
	CreateTime   string `json:"createTime,omitempty"`
	ModifiedTime string `json:"modifiedTime,omitempty"`
}

// Role represents a named group of permissions
type Role struct {
	ID           int64  `json:"id"`
	RoleCode     string `json:"roleCode"`
	RoleName     string `json:"roleName"`
	Status       int    `json:"status"`
	CreateTime   string `json:"createTime,omitempty"`
	ModifiedTime string `json:"modifiedTime,omitempty"`
}

// Permission represents a single capability code
type Permission struct {
	ID             int64  `json:"id"`
	PermissionCode string `json:"permissionCode"`
	PermissionName string `json:"permissionName"`
	CreateTime     string `json:"createTime,omitempty"`
	ModifiedTime   string `json:"modifiedTime,omitempty"`
}

// UserInfo is the session snapshot: who is logged in and what they may do.
// User is nil for the anonymous session.
type UserInfo struct {
	User            *User    `json:"user"`
	RoleCodes       []string `json:"roleCodes"`
	PermissionCodes []string `json:"permissionCodes"`
	Token           string   `json:"token,omitempty"`
}

// Health is the bare system health payload
type Health struct {
	Status string `json:"status"`
}

// ParseTime parses the timestamp formats the server emits. Returns the zero
// time when the value is empty or unrecognised.
func ParseTime(value string) time.Time {
	layouts := []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}
