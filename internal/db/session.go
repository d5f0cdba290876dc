package db

import (
	"encoding/json"
	"fmt"

	"github.com/tgienger/dash/internal/models"
)

// Keys of the persisted session. Both are written on login and cleared together on logout.
const (
	KeyToken      = "token"
	KeyUserInfo   = "userInfo"
	KeyLastScreen = "last_screen"
)

// Token returns the stored bearer token, or "" when logged out.
// It is read from storage on every call so a rotated token applies to the next request.
func (db *DB) Token() (string, error) {
	return db.GetSetting(KeyToken)
}

// SaveSession stores the token and the user-info snapshot (without the token)
func (db *DB) SaveSession(info models.UserInfo) error {
	snapshot := models.UserInfo{
		User:            info.User,
		RoleCodes:       info.RoleCodes,
		PermissionCodes: info.PermissionCodes,
	}
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("db: encode user info: %w", err)
	}

	if info.Token != "" {
		if err := db.SetSetting(KeyToken, info.Token); err != nil {
			return err
		}
	}
	return db.SetSetting(KeyUserInfo, string(raw))
}

// LoadSession returns the stored session, or nil when either key is missing
func (db *DB) LoadSession() (*models.UserInfo, error) {
	token, err := db.GetSetting(KeyToken)
	if err != nil {
		return nil, err
	}
	raw, err := db.GetSetting(KeyUserInfo)
	if err != nil {
		return nil, err
	}
	if token == "" || raw == "" {
		return nil, nil
	}

	var info models.UserInfo
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return nil, fmt.Errorf("db: decode user info: %w", err)
	}
	info.Token = token
	return &info, nil
}

// ClearSession removes the token and the user-info snapshot
func (db *DB) ClearSession() error {
	return db.DeleteSettings(KeyToken, KeyUserInfo)
}
