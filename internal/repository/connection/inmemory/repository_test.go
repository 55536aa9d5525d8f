package inmemory

import (
	"log/slog"
	"testing"

	"github.com/mediaviewer/server/internal/repository/connection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	id   string
	role connection.Role
	sent []any
}

func (c *fakeConn) ID() string            { return c.id }
func (c *fakeConn) Role() connection.Role { return c.role }

func (c *fakeConn) Send(v any) bool {
	c.sent = append(c.sent, v)
	return true
}

func TestRepo(t *testing.T) {
	r := NewRepo(slog.Default())

	remote1 := &fakeConn{id: "r1", role: connection.RoleRemote}
	player := &fakeConn{id: "p1", role: connection.RolePlayer}
	remote2 := &fakeConn{id: "r2", role: connection.RoleRemote}

	require.NoError(t, r.Add(remote1))
	require.NoError(t, r.Add(player))
	require.NoError(t, r.Add(remote2))
	assert.ErrorIs(t, r.Add(remote1), connection.ErrAlreadyExists)

	remotes := r.ListByRole(connection.RoleRemote)
	require.Len(t, remotes, 2)
	assert.Equal(t, "r1", remotes[0].ID())
	assert.Equal(t, "r2", remotes[1].ID())
	assert.Equal(t, 1, r.Count(connection.RolePlayer))

	got, err := r.Get("p1")
	require.NoError(t, err)
	assert.Same(t, player, got)

	require.NoError(t, r.Remove("r1"))
	assert.ErrorIs(t, r.Remove("r1"), connection.ErrNotFound)
	_, err = r.Get("r1")
	assert.ErrorIs(t, err, connection.ErrNotFound)
	assert.Equal(t, 1, r.Count(connection.RoleRemote))
}
