package main

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/pkg/errors"
)

// botAPI is the part of tgbotapi.BotAPI the host talks to
type botAPI interface {
	GetChatMember(config tgbotapi.ChatConfigWithUser) (tgbotapi.ChatMember, error)
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	MakeRequest(endpoint string, params url.Values) (tgbotapi.APIResponse, error)
}

// connectFunc opens an API client for a token and returns the bot's username
type connectFunc func(token string) (botAPI, string, error)

func connectBot(token string) (botAPI, string, error) {
	bot, err := tgbotapi.NewBotAPIWithClient(token, &http.Client{Timeout: config.telegramTimeout()})
	if err != nil {
		return nil, "", err
	}

	bot.Debug = config.Debug

	return bot, bot.Self.UserName, nil
}

// setWebhook drops pending updates and points the bot at link
func setWebhook(api botAPI, link string) error {
	if _, err := api.MakeRequest("deleteWebhook", url.Values{"drop_pending_updates": {"true"}}); err != nil {
		return err
	}

	_, err := api.MakeRequest("setWebhook", url.Values{"url": {link}})

	return err
}

func deleteWebhook(api botAPI) error {
	_, err := api.MakeRequest("deleteWebhook", url.Values{})

	return err
}

type chatInfo struct {
	UserName   string `json:"username"`
	InviteLink string `json:"invite_link"`
}

// resolveChannelLink falls back to getChat and exportChatInviteLink for channels known only by id
func resolveChannelLink(api botAPI, channel string) (string, error) {
	if link, ok := channelLink(channel); ok {
		return link, nil
	}

	params := url.Values{"chat_id": {strings.TrimSpace(channel)}}

	resp, err := api.MakeRequest("getChat", params)
	if err != nil {
		return "", errors.Wrapf(err, "getChat %s", channel)
	}

	var chat chatInfo
	if err := json.Unmarshal(resp.Result, &chat); err != nil {
		return "", errors.Wrapf(err, "decode chat %s", channel)
	}

	switch {
	case chat.UserName != "":
		return "https://t.me/" + chat.UserName, nil
	case chat.InviteLink != "":
		return chat.InviteLink, nil
	}

	resp, err = api.MakeRequest("exportChatInviteLink", params)
	if err != nil {
		return "", errors.Wrapf(err, "exportChatInviteLink %s", channel)
	}

	var link string
	if err := json.Unmarshal(resp.Result, &link); err != nil || link == "" {
		return "", errors.Errorf("no invite link for chat %s", channel)
	}

	return link, nil
}

// joinPrompt lists the required channels as URL buttons. A channel without a usable link is left out.
func joinPrompt(api botAPI, chatID int64, channels []string, botUserName string, loc Localizer) tgbotapi.MessageConfig {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, ch := range channels {
		link, err := resolveChannelLink(api, ch)
		if err != nil {
			logger.Warningf("bot %s: no join link for required channel %s: %s", botUserName, ch, err)
			continue
		}

		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL(
				loc.Template("join_channel_button", map[string]interface{}{"Number": len(rows) + 1}),
				link,
			),
		))
	}

	if botUserName != "" {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL(loc.Message("add_to_group_button"), addToGroupLink(botUserName)),
		))
	}

	msg := tgbotapi.NewMessage(chatID, loc.Message("join_channels"))
	msg.DisableWebPagePreview = true
	if len(rows) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	}

	return msg
}
