package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndGetValue(t *testing.T) {
	c := New(time.Minute)
	defer c.Close()

	c.Set("products:page:1", []string{"a", "b"})

	got, found := c.GetValue("products:page:1")
	require.True(t, found)
	assert.Equal(t, []string{"a", "b"}, got)

	_, found = c.GetValue("products:page:2")
	assert.False(t, found)
}

func TestGetValueExpired(t *testing.T) {
	c := New(time.Minute)
	defer c.Close()

	c.Set("short", "lived", time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	_, found := c.GetValue("short")
	assert.False(t, found)
}

func TestDeleteByPrefix(t *testing.T) {
	c := New(time.Minute)
	defer c.Close()

	c.Set("products:page:1", 1)
	c.Set("products:page:2", 2)
	c.Set("categories:all", 3)

	c.DeleteByPrefix("products:")

	assert.Equal(t, 1, c.Size())
	_, found := c.GetValue("categories:all")
	assert.True(t, found)
}

func TestDelete(t *testing.T) {
	c := New(time.Minute)
	defer c.Close()

	c.Set("k", "v")
	c.Delete("k")

	_, found := c.GetValue("k")
	assert.False(t, found)
	assert.Equal(t, 0, c.Size())
}
