package main

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_LoadDefault(t *testing.T) {
	s := newTestStore(t)

	c, err := s.Load("42")
	require.NoError(t, err)
	assert.Equal(t, defaultBotConfig(), c)

	_, err = s.Raw("42")
	assert.True(t, os.IsNotExist(err))
}

func TestStore_CreateDefault(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.CreateDefault("42", "shop"))

	c, err := s.Load("42")
	require.NoError(t, err)
	assert.Equal(t, "Hello! I am shop 🤖", c.StartMsg)
	assert.Empty(t, c.Commands)

	require.NoError(t, s.Save("42", `{"start_msg": "custom"}`))
	require.NoError(t, s.CreateDefault("42", "other"))

	raw, err := s.Raw("42")
	require.NoError(t, err)
	assert.Equal(t, `{"start_msg": "custom"}`, string(raw))
}

func TestStore_SaveInvalid(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save("42", `{"start_msg": "ok"}`))

	err := s.Save("42", `{"start_msg": `)
	require.Error(t, err)
	_, ok := err.(*InvalidJSONError)
	assert.True(t, ok)
	assert.Contains(t, err.Error(), "unexpected end of JSON input")

	raw, err := s.Raw("42")
	require.NoError(t, err)
	assert.Equal(t, `{"start_msg": "ok"}`, string(raw))

	files, err := ioutil.ReadDir(s.dir)
	require.NoError(t, err)
	assert.Len(t, files, 1, "no temp files left behind")
}

func TestStore_SaveInvalidatesCache(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save("42", `{"start_msg": "first"}`))

	c, err := s.Load("42")
	require.NoError(t, err)
	assert.Equal(t, "first", c.StartMsg)

	// any valid JSON is accepted, even one that is not an object
	require.NoError(t, s.Save("42", `[1, 2, 3]`))
	raw, _ := s.Raw("42")
	assert.Equal(t, `[1, 2, 3]`, string(raw))

	require.NoError(t, s.Save("42", `{"start_msg": "second", "keywords": {"hi": "hello"}}`))

	c, err = s.Load("42")
	require.NoError(t, err)
	assert.Equal(t, "second", c.StartMsg)
	assert.Equal(t, "hello", c.Keywords["hi"])
}

type unreachableCache struct {
	Cacher
}

func (unreachableCache) Delete(keys ...string) error {
	return errors.New("dial tcp 127.0.0.1:6379: connect: connection refused")
}

func TestStore_SaveWithUnreachableCache(t *testing.T) {
	s := NewConfigStore(t.TempDir(), unreachableCache{NewMemoryCache(1024*1024)}, time.Minute)

	require.NoError(t, s.Save("42", `{"start_msg": "saved anyway"}`))

	raw, err := s.Raw("42")
	require.NoError(t, err)
	assert.Equal(t, `{"start_msg": "saved anyway"}`, string(raw))
}

func TestStore_RequiredChannels(t *testing.T) {
	s := newTestStore(t)

	assert.Empty(t, s.RequiredChannels("41"))

	writeBotFile(t, s, "42", requiredChannelsFile, `[" @news ", "", "https://t.me/chat"]`)
	assert.Equal(t, []string{"@news", "https://t.me/chat"}, s.RequiredChannels("42"))

	writeBotFile(t, s, "43", requiredChannelsFile, `"@a, @b,,"`)
	assert.Equal(t, []string{"@a", "@b"}, s.RequiredChannels("43"))

	writeBotFile(t, s, "44", requiredChannelsFile, `{"broken": true}`)
	assert.Empty(t, s.RequiredChannels("44"))
}

func TestStore_Authors(t *testing.T) {
	s := newTestStore(t)

	a := s.Authors("41")
	assert.Empty(t, a.Owner)
	assert.Empty(t, a.Admin)

	writeBotFile(t, s, "42", authorsFile, `{"owner": ["100", 200], "admin": [300]}`)
	a = s.Authors("42")
	assert.Equal(t, UserIDs{100, 200}, a.Owner)
	assert.Equal(t, UserIDs{300}, a.Admin)

	writeBotFile(t, s, "43", authorsFile, `{"owner": ["not a number"]}`)
	assert.Empty(t, s.Authors("43").Owner)
}

func TestStore_Layout(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateDefault("42", "shop"))

	_, err := os.Stat(filepath.Join(s.dir, "42.json"))
	assert.NoError(t, err)
}
