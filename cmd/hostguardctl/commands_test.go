package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostguard/internal/app"
	"hostguard/internal/platform/config"
)

func sharedOpener(t *testing.T) opener {
	t.Helper()
	a, err := app.New(context.Background(), config.Default(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return func(context.Context) (*app.App, func(), error) {
		return a, func() {}, nil
	}
}

func execute(t *testing.T, open opener, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(open)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestOperatorWorkflow(t *testing.T) {
	open := sharedOpener(t)

	out, err := execute(t, open, "user", "create", "--phone", "0712345678")
	require.NoError(t, err)
	var user struct {
		ID    string `json:"id"`
		Phone string `json:"phone"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &user))
	require.NotEmpty(t, user.ID)
	assert.Equal(t, "254712345678", user.Phone)

	out, err = execute(t, open, "trial", "show", user.ID)
	require.NoError(t, err)
	var status struct {
		Unlimited bool `json:"unlimited"`
		Trial     struct {
			Count int `json:"count"`
		} `json:"trial"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.False(t, status.Unlimited)
	assert.Equal(t, 3, status.Trial.Count)

	out, err = execute(t, open, "subscription", "extend", user.ID)
	require.NoError(t, err)
	var sub struct {
		ExpiresAt time.Time `json:"expires_at"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &sub))
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), sub.ExpiresAt, time.Minute)

	out, err = execute(t, open, "trial", "show", user.ID)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.True(t, status.Unlimited)

	out, err = execute(t, open, "verify", "--phone", "0712345678", "hello", "there")
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "invalid_identifier"`)
}

func TestTokenIssue(t *testing.T) {
	open := sharedOpener(t)
	a, _, _ := open(context.Background())

	out, err := execute(t, open, "token", "issue", "0b7e2d2a-8a51-4c1f-9a43-1d2f7f7d8e10", "--ttl", "1h")
	require.NoError(t, err)
	var tok tokenOutput
	require.NoError(t, json.Unmarshal([]byte(out), &tok))

	claims, err := a.Tokens.ValidateToken(tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "0b7e2d2a-8a51-4c1f-9a43-1d2f7f7d8e10", claims.UserID)
}

func TestArgumentErrors(t *testing.T) {
	open := sharedOpener(t)
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"verify without requester", []string{"verify", "12345678"}, "one of --user or --phone is required"},
		{"verify with bad user", []string{"verify", "--user", "nope", "12345678"}, "--user"},
		{"trial with bad id", []string{"trial", "show", "nope"}, "invalid"},
		{"token with zero ttl", []string{"token", "issue", "0b7e2d2a-8a51-4c1f-9a43-1d2f7f7d8e10", "--ttl", "0s"}, "--ttl must be positive"},
		{"migrate without database", []string{"migrate"}, "DATABASE_URL is not set"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, open, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
