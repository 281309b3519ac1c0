package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryResolve(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.Put("tok-1", "u1", RoleStaff)

	as, err := m.Resolve(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "u1", as.UserID)
	assert.Equal(t, RoleStaff, as.Role)
	assert.True(t, as.Staff())

	_, err = m.Resolve(ctx, "unknown")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestMemoryDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.Put("tok-1", "u1", RoleMember)

	require.NoError(t, m.Delete(ctx, "tok-1"))
	_, err := m.Resolve(ctx, "tok-1")
	assert.ErrorIs(t, err, ErrNoSession)

	// 删除不存在的令牌也无所谓
	require.NoError(t, m.Delete(ctx, "tok-1"))
}
