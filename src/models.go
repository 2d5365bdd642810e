package main

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Bot model
type Bot struct {
	ID        int       `gorm:"primary_key" json:"-"`
	Name      string    `gorm:"type:varchar(100);not null;unique_index" json:"bot_name" binding:"required"`
	Token     string    `gorm:"type:varchar(100);not null" json:"token" binding:"required,bottoken"`
	CreatedAt time.Time `json:"-"`
}

// Bots list
type Bots []Bot

// BotConfig is the per-bot behaviour document edited through the web form
type BotConfig struct {
	StartMsg string            `json:"start_msg" msgpack:"start_msg"`
	Commands map[string]string `json:"commands" msgpack:"commands"`
	Keywords map[string]string `json:"keywords" msgpack:"keywords"`
}

// Authors lists the users that get service notifications about a bot
type Authors struct {
	Owner UserIDs `json:"owner" msgpack:"owner"`
	Admin UserIDs `json:"admin" msgpack:"admin"`
}

// UserIDs accepts both JSON numbers and numeric strings
type UserIDs []int64

func (ids *UserIDs) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	res := make(UserIDs, 0, len(raw))
	for _, r := range raw {
		s := strings.Trim(strings.TrimSpace(string(r)), `"`)
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return err
		}
		res = append(res, id)
	}

	*ids = res

	return nil
}

func defaultBotConfig() BotConfig {
	return BotConfig{
		StartMsg: "Hello! I am your bot 🤖",
		Commands: map[string]string{},
		Keywords: map[string]string{},
	}
}

func newBotConfig(name string) BotConfig {
	c := defaultBotConfig()
	c.StartMsg = "Hello! I am " + name + " 🤖"

	return c
}
