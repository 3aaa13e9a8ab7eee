package service

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomCodeShape(t *testing.T) {
	pattern := regexp.MustCompile(`^[A-Z0-9]{8}$`)
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code := RandomCode()
		assert.Regexp(t, pattern, code)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 190)
}

func TestRegistryCreateAndGet(t *testing.T) {
	r := NewRegistry()

	code, err := r.Create("ws:admin")
	require.NoError(t, err)

	session, ok := r.Get(code)
	require.True(t, ok)
	assert.Equal(t, code, session.Code)
	assert.Equal(t, "ws:admin", session.AdminID)
	assert.Empty(t, session.Users)
	assert.Nil(t, session.CurrentTask)
	assert.Equal(t, 1, r.Len())

	_, ok = r.Get("MISSING0")
	assert.False(t, ok)
}

func TestRegistryRetriesOnCollision(t *testing.T) {
	codes := []string{"AAAAAAAA", "AAAAAAAA", "BBBBBBBB"}
	r := NewRegistry(WithCodeGenerator(func() string {
		code := codes[0]
		codes = codes[1:]
		return code
	}))

	first, err := r.Create("ws:1")
	require.NoError(t, err)
	second, err := r.Create("ws:2")
	require.NoError(t, err)

	assert.Equal(t, "AAAAAAAA", first)
	assert.Equal(t, "BBBBBBBB", second)
}

func TestRegistryGivesUpAfterRetries(t *testing.T) {
	r := NewRegistry(WithCodeGenerator(func() string { return "SAMECODE" }))

	_, err := r.Create("ws:1")
	require.NoError(t, err)
	_, err = r.Create("ws:2")
	assert.ErrorIs(t, err, ErrCodeSpaceExhausted)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryBindings(t *testing.T) {
	r := NewRegistry()
	a, _ := r.Create("ws:admin-a")
	b, _ := r.Create("ws:admin-b")

	r.Bind("ws:admin-a", a)
	r.Bind("ws:x", a)
	r.Bind("ws:y", a)

	code, ok := r.SessionFor("ws:x")
	require.True(t, ok)
	assert.Equal(t, a, code)
	assert.Equal(t, []string{"ws:admin-a", "ws:x", "ws:y"}, r.Members(a))

	// binding elsewhere moves the connection
	r.Bind("ws:x", b)
	assert.Equal(t, []string{"ws:admin-a", "ws:y"}, r.Members(a))
	assert.Equal(t, []string{"ws:x"}, r.Members(b))

	r.Unbind("ws:y")
	_, ok = r.SessionFor("ws:y")
	assert.False(t, ok)
	assert.Equal(t, []string{"ws:admin-a"}, r.Members(a))

	r.Unbind("ws:unknown")
}

func TestRegistryMembersIsSnapshot(t *testing.T) {
	r := NewRegistry()
	code, _ := r.Create("ws:admin")
	r.Bind("ws:admin", code)
	r.Bind("ws:x", code)

	members := r.Members(code)
	r.Unbind("ws:admin")
	members[1] = "mutated"

	assert.Equal(t, []string{"ws:x"}, r.Members(code))
}

func TestRegistryDeleteUnbindsRoom(t *testing.T) {
	r := NewRegistry()
	code, _ := r.Create("ws:admin")
	r.Bind("ws:admin", code)
	r.Bind("ws:x", code)

	unbound := r.Delete(code)

	assert.Equal(t, []string{"ws:admin", "ws:x"}, unbound)
	_, ok := r.Get(code)
	assert.False(t, ok)
	_, ok = r.SessionFor("ws:x")
	assert.False(t, ok)
	assert.Empty(t, r.Members(code))
	assert.Equal(t, 0, r.Len())
}
