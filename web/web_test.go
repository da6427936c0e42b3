package web

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"inferno-tracker-bot/model"
	"inferno-tracker-bot/store"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeMembers struct {
	list []model.Member
	err  error
}

func (f *fakeMembers) ListAll(context.Context) ([]model.Member, error) { return f.list, f.err }

func (f *fakeMembers) Get(_ context.Context, userID int64) (*model.Member, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, m := range f.list {
		if m.UserID == userID {
			return &m, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeMembers) Ping(context.Context) error { return f.err }

var errDown = fmt.Errorf("ping: %w", store.ErrUnavailable)

func do(t *testing.T, app *fiber.App, path string) (int, []byte) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func TestHealthz(t *testing.T) {
	code, body := do(t, New(&fakeMembers{}, zap.NewNop()), "/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	code, _ = do(t, New(&fakeMembers{err: errDown}, zap.NewNop()), "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestLeaderboard(t *testing.T) {
	members := &fakeMembers{list: []model.Member{
		{UserID: 2, Username: "bob", Points: 25, Streak: 2, SubmissionStatus: model.StatusCompleted},
		{UserID: 1, Username: "alice", Points: 10, Streak: 1, SubmissionStatus: model.StatusMissed},
	}}

	code, body := do(t, New(members, zap.NewNop()), "/leaderboard")
	require.Equal(t, http.StatusOK, code)

	var got []model.Member
	require.NoError(t, json.Unmarshal(body, &got))
	require.Len(t, got, 2)
	assert.Equal(t, "bob", got[0].Username)
	assert.Equal(t, 25, got[0].Points)
	assert.Equal(t, model.StatusMissed, got[1].SubmissionStatus)
}

func TestLeaderboard_Empty(t *testing.T) {
	code, body := do(t, New(&fakeMembers{}, zap.NewNop()), "/leaderboard")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(body))
}

func TestLeaderboard_StoreDown(t *testing.T) {
	code, _ := do(t, New(&fakeMembers{err: errDown}, zap.NewNop()), "/leaderboard")
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestMember(t *testing.T) {
	app := New(&fakeMembers{list: []model.Member{{UserID: 7, Username: "alice", Points: 10}}}, zap.NewNop())

	code, body := do(t, app, "/members/7")
	require.Equal(t, http.StatusOK, code)
	var m model.Member
	require.NoError(t, json.Unmarshal(body, &m))
	assert.Equal(t, "alice", m.Username)

	code, _ = do(t, app, "/members/8")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, app, "/members/abc")
	assert.Equal(t, http.StatusBadRequest, code)
}
