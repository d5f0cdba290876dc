package dashboard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/dash/internal/api"
	"github.com/tgienger/dash/internal/models"
)

type countingInvalidator struct{ n int }

func (c *countingInvalidator) Invalidate() { c.n++ }

func TestMutation_Outcomes(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	var failWith error
	inv := &countingInvalidator{}
	m := NewMutation("test", "test failed", func(ctx context.Context, s string) error {
		return failWith
	}, env.log).Validate(func(s string) string {
		return required("name", s)
	}).Invalidates(inv)

	assert.False(t, m.Run(bg, "  "))
	assert.Equal(t, "name is required", m.Prompt())
	assert.Empty(t, m.Error())

	failWith = &api.BusinessError{}
	assert.False(t, m.Run(bg, "x"))
	assert.Empty(t, m.Prompt())
	assert.Equal(t, "test failed", m.Error())

	failWith = api.ErrUnauthorized
	assert.False(t, m.Run(bg, "x"))
	assert.Equal(t, api.MsgUnauthorized, m.Error())
	assert.Zero(t, inv.n)

	failWith = nil
	assert.True(t, m.Run(bg, "x"))
	assert.Empty(t, m.Error())
	assert.False(t, m.Loading())
	assert.Equal(t, 1, inv.n)

	failWith = errors.New("boom")
	m.Run(bg, "x")
	m.Reset()
	assert.Empty(t, m.Error())
}

func TestMutation_RejectAndFail(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	calls := 0
	m := NewMutation("test", "test failed", func(ctx context.Context, s string) error {
		calls++
		return nil
	}, env.log)

	m.Reject("score must be a whole number")
	assert.Equal(t, "score must be a whole number", m.Prompt())
	assert.Empty(t, m.Error())

	m.Fail(bg, &api.BusinessError{})
	assert.Empty(t, m.Prompt())
	assert.Equal(t, "test failed", m.Error())

	m.Fail(bg, errors.New("connection refused"))
	assert.Equal(t, "connection refused", m.Error())
	assert.Zero(t, calls)

	require.True(t, m.Run(bg, "x"))
	assert.Empty(t, m.Error())
}

// Blank required fields must never reach the server.
func TestValidationShortCircuit(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	todo := NewTodoBoard(env.client, env.log)
	notices := NewNoticeBoard(env.client, 10, env.log)
	activity := NewActivityLog(env.client, NewActivityTagCell(env.client, env.log), env.log)
	access := NewAccessControl(env.client, env.log)
	games := NewGames(env.client, 20, env.log)

	cases := []struct {
		name   string
		run    func() bool
		prompt func() string
	}{
		{"notice title", func() bool { return notices.Create(bg, "", "body") }, notices.CreateOp.Prompt},
		{"notice content", func() bool { return notices.Create(bg, "Title", "   ") }, notices.CreateOp.Prompt},
		{"todo tag", func() bool { return todo.CreateTag(bg, " ") }, todo.CreateTagOp.Prompt},
		{"todo item", func() bool { return todo.CreateItem(bg, "", nil) }, todo.CreateItemOp.Prompt},
		{"todo item update", func() bool {
			return todo.UpdateItem(bg, api.UpdateTodoItemInput{ID: 1, Content: ptr("")})
		}, todo.UpdateItemOp.Prompt},
		{"activity tag", func() bool { return activity.CreateTag(bg, "", "#ffffff") }, activity.CreateTagOp.Prompt},
		{"activity tag color", func() bool { return activity.CreateTag(bg, "Work", "red") }, activity.CreateTagOp.Prompt},
		{"activity tag rename", func() bool {
			return activity.UpdateTag(bg, models.ActivityTag{ID: 1, Name: "", Color: "#ffffff"})
		}, activity.UpdateTagOp.Prompt},
		{"block without tag", func() bool {
			return activity.SaveBlock(bg, BlockInput{StartTime: "09:00", EndTime: "10:00"})
		}, activity.SaveBlockOp.Prompt},
		{"block ends before start", func() bool {
			return activity.SaveBlock(bg, BlockInput{TagID: 1, StartTime: "10:00", EndTime: "09:30"})
		}, activity.SaveBlockOp.Prompt},
		{"role", func() bool { return access.SaveRole(bg, api.RoleInput{RoleCode: "OPS"}) }, access.SaveRoleOp.Prompt},
		{"permission", func() bool {
			return access.SavePermission(bg, api.PermissionInput{PermissionName: "x"})
		}, access.SavePermissionOp.Prompt},
		{"game season", func() bool { return games.Save(bg, api.MatchGameInput{}) }, games.SaveOp.Prompt},
	}

	for _, tc := range cases {
		before := env.srv.TotalHits()
		assert.False(t, tc.run(), tc.name)
		assert.NotEmpty(t, tc.prompt(), tc.name)
		assert.Equal(t, before, env.srv.TotalHits(), "%s reached the server", tc.name)
	}
}

func TestMutation_NotLoggedIn(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.tokens.token = ""

	notices := NewNoticeBoard(env.client, 10, env.log)
	before := env.srv.TotalHits()

	require.False(t, notices.Create(bg, "Title", "Body"))
	assert.Equal(t, api.MsgNotLoggedIn, notices.CreateOp.Error())
	assert.Equal(t, before, env.srv.TotalHits())
}

func TestMutation_ExpiredTokenShowsFixedMessage(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.tokens.token = "expired.jwt.value"

	todo := NewTodoBoard(env.client, env.log)
	require.False(t, todo.CreateTag(bg, "Work"))
	assert.Equal(t, api.MsgUnauthorized, todo.CreateTagOp.Error())
}
