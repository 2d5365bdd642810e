package main

import (
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
)

// GetBotID returns the numeric prefix of a bot token, or the token itself when it has no colon
func GetBotID(token string) string {
	if i := strings.Index(token, ":"); i >= 0 {
		return token[:i]
	}

	return token
}

// renderStartMessage substitutes the user placeholders in a start message template
func renderStartMessage(tpl string, u *tgbotapi.User) string {
	if u == nil {
		return tpl
	}

	id := strconv.Itoa(u.ID)
	fullName := strings.TrimSpace(u.FirstName + " " + u.LastName)
	userLink := "tg://user?id=" + id

	profileLink := userLink
	if u.UserName != "" {
		profileLink = "https://t.me/" + u.UserName
	}

	r := strings.NewReplacer(
		"${first_name}", u.FirstName,
		"${last_name}", u.LastName,
		"${full_name}", fullName,
		"${id}", id,
		"${username}", u.UserName,
		"${user_link}", userLink,
		"${profile_link}", profileLink,
	)

	return r.Replace(tpl)
}

// channelChatConfig turns a required channel (handle, link or numeric id) into a getChatMember request
func channelChatConfig(channel string, userID int) tgbotapi.ChatConfigWithUser {
	cfg := tgbotapi.ChatConfigWithUser{UserID: userID}

	if id, err := strconv.ParseInt(channel, 10, 64); err == nil {
		cfg.ChatID = id
		return cfg
	}

	cfg.SuperGroupUsername = "@" + channelHandle(channel)

	return cfg
}

// channelLink returns a clickable t.me link for a required channel.
// Numeric chat ids have no public link, ok is false for them.
func channelLink(channel string) (link string, ok bool) {
	channel = strings.TrimSpace(channel)
	if _, err := strconv.ParseInt(channel, 10, 64); err == nil {
		return "", false
	}

	if strings.HasPrefix(channel, "https://") || strings.HasPrefix(channel, "http://") {
		return channel, true
	}

	return "https://t.me/" + channelHandle(channel), true
}

func channelHandle(channel string) string {
	h := strings.TrimSpace(channel)
	for _, p := range []string{"https://", "http://", "t.me/", "telegram.me/", "@"} {
		h = strings.TrimPrefix(h, p)
	}

	return strings.Trim(h, "/")
}

func addToGroupLink(botUserName string) string {
	return "https://t.me/" + botUserName + "?startgroup=true"
}
