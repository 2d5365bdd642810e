package main

import (
	"os"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/stretchr/testify/assert"
)

func TestUtils_GetBotID(t *testing.T) {
	assert.Equal(t, "123456", GetBotID("123456:ABCDEF"))
	assert.Equal(t, "no-colon-token", GetBotID("no-colon-token"))
	assert.Equal(t, "1", GetBotID("1:a:b"))
}

func TestUtils_renderStartMessage(t *testing.T) {
	u := &tgbotapi.User{ID: 42, FirstName: "Asha"}
	assert.Equal(t, "Hi Asha (42)", renderStartMessage("Hi ${first_name} (${id})", u))
	assert.Equal(t, "tg://user?id=42 tg://user?id=42", renderStartMessage("${user_link} ${profile_link}", u))
	assert.Equal(t, "${unknown} Asha", renderStartMessage("${unknown} ${full_name}", u))

	u = &tgbotapi.User{ID: 7, FirstName: "Ravi", LastName: "Kumar", UserName: "ravik"}
	assert.Equal(t,
		"Ravi Kumar Ravi Kumar @ravik https://t.me/ravik",
		renderStartMessage("${first_name} ${last_name} ${full_name} @${username} ${profile_link}", u),
	)

	assert.Equal(t, "Hi ${first_name}", renderStartMessage("Hi ${first_name}", nil))
}

func TestUtils_channelChatConfig(t *testing.T) {
	cases := map[string]string{
		"@news":                   "@news",
		"news":                    "@news",
		"https://t.me/news":       "@news",
		"t.me/news/":              "@news",
		"http://telegram.me/news": "@news",
	}

	for channel, expected := range cases {
		c := channelChatConfig(channel, 7)
		assert.Equal(t, expected, c.SuperGroupUsername, channel)
		assert.Equal(t, int64(0), c.ChatID, channel)
		assert.Equal(t, 7, c.UserID, channel)
	}

	c := channelChatConfig("-1001234567890", 7)
	assert.Equal(t, int64(-1001234567890), c.ChatID)
	assert.Empty(t, c.SuperGroupUsername)
}

func TestUtils_channelLink(t *testing.T) {
	cases := map[string]string{
		"@news":                "https://t.me/news",
		"t.me/news":            "https://t.me/news",
		"https://t.me/+invite": "https://t.me/+invite",
	}

	for channel, expected := range cases {
		link, ok := channelLink(channel)
		assert.True(t, ok, channel)
		assert.Equal(t, expected, link, channel)
	}

	link, ok := channelLink("-1001234567890")
	assert.False(t, ok)
	assert.Empty(t, link)

	assert.Equal(t, "https://t.me/ShopBot?startgroup=true", addToGroupLink("ShopBot"))
}

func TestConfig_PublicURLFromEnv(t *testing.T) {
	os.Setenv("PUBLIC_URL", "https://override.example.com/")
	defer os.Unsetenv("PUBLIC_URL")

	c := LoadConfig("config_test.yml")
	assert.Equal(t, "https://override.example.com", c.PublicURL)
	assert.Equal(t, "https://override.example.com/webhook/1:a", c.webhookURL("1:a"))
}

func TestConfig_Defaults(t *testing.T) {
	c := &HostConfig{}
	c.setDefaults()

	assert.Equal(t, "BOTS_DATA", c.DataDir)
	assert.Equal(t, "file", c.Registry.Driver)
	assert.Equal(t, "bots.json", c.Registry.File)
	assert.Equal(t, ":8000", c.HTTPServer.Listen)
	assert.Equal(t, 1024, c.Dispatcher.CacheSize)
	assert.Equal(t, "http://127.0.0.1:8000", c.PublicURL)
}

func TestLocale(t *testing.T) {
	for _, lang := range []string{"en", "ru", "hi", "de", ""} {
		assert.Equal(t, "Unknown bot", newLocalizer(lang).Message("unknown_bot"), lang)
	}

	assert.Equal(t,
		"shop added successfully",
		newLocalizer("en-US,en;q=0.9").Template("bot_added", map[string]interface{}{"Name": "shop"}),
	)
	assert.NotEqual(t, newLocalizer("en").Message("changes_saved"), newLocalizer("ru").Message("changes_saved"))
}
