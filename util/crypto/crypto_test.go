package crypto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBcryptRoundTrip(t *testing.T) {
	hash, err := HashPasswordAsBcrypt("1a-2b")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash(hash, "1a-2b"))
	assert.False(t, CheckPasswordHash(hash, "1a-2c"))
	assert.False(t, CheckPasswordHash("", "1a-2b"))
}

func TestCodeBoundToState(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	g := NewCodeGenerator("secret", time.Hour).WithClock(func() time.Time { return now })

	code := g.MakeCode("1|bob|bob@x.com|user")
	assert.True(t, g.CheckCode("1|bob|bob@x.com|user", code))
	assert.False(t, g.CheckCode("1|bob|bob@x.com|admin", code), "state change must invalidate the code")
	assert.False(t, g.CheckCode("1|bob|bob@x.com|user", code+"0"))
	assert.False(t, g.CheckCode("1|bob|bob@x.com|user", "garbage"))
}

func TestCodeExpires(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	g := NewCodeGenerator("secret", time.Hour).WithClock(func() time.Time { return now })
	code := g.MakeCode("state")

	now = now.Add(59 * time.Minute)
	assert.True(t, g.CheckCode("state", code))

	now = now.Add(2 * time.Minute)
	assert.False(t, g.CheckCode("state", code))
}

func TestCodeDependsOnSecret(t *testing.T) {
	a := NewCodeGenerator("a", time.Hour)
	b := NewCodeGenerator("b", time.Hour)
	assert.False(t, b.CheckCode("state", a.MakeCode("state")))
}
