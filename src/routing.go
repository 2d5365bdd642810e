package main

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"gopkg.in/go-playground/validator.v9"
)

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "Multi Telegram Bot Manager is running 🚀"})
}

func (a *App) addBotHandler(c *gin.Context) {
	loc := requestLocalizer(c)

	var b Bot
	if err := c.ShouldBindJSON(&b); err != nil {
		c.JSON(Failure(bindingMessage(err, loc)))
		return
	}

	err := a.registry.Add(b)
	if err == ErrBotExists {
		c.JSON(Failure(loc.Message("bot_already_exists")))
		return
	}
	if err != nil {
		c.Error(err)
		return
	}

	if err := a.store.CreateDefault(GetBotID(b.Token), b.Name); err != nil {
		c.Error(err)
		return
	}

	link := config.webhookURL(b.Token)
	if err := a.registerWebhook(b.Token, link); err != nil {
		logger.Errorf("addBotHandler %s: webhook setup failed: %s", b.Name, err)
		c.JSON(Failure(loc.Template("webhook_setup_failed", map[string]interface{}{"Error": err.Error()})))
		return
	}

	logger.Infof("addBotHandler %s (%s) added", b.Name, GetBotID(b.Token))

	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"message": loc.Template("bot_added", map[string]interface{}{"Name": b.Name}),
		"webhook": link,
	})
}

func bindingMessage(err error, loc Localizer) string {
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			if fe.Tag() == "bottoken" {
				return loc.Message("invalid_token_format")
			}
		}
	}

	return loc.Message("fields_required")
}

func (a *App) editFileHandler(c *gin.Context) {
	loc := requestLocalizer(c)
	token := c.Param("token")

	b, err := a.registry.FindByToken(token)
	if err != nil {
		c.Error(err)
		return
	}
	if b == nil {
		fragment(c, false, loc.Message("invalid_bot_token"))
		return
	}

	raw, err := a.store.Raw(GetBotID(token))
	if os.IsNotExist(err) {
		fragment(c, false, loc.Message("data_file_not_found"))
		return
	}
	if err != nil {
		c.Error(err)
		return
	}

	c.HTML(http.StatusOK, "edit", gin.H{
		"Title":      loc.Message("edit_title"),
		"ButtonSave": loc.Message("button_save"),
		"Token":      token,
		"Content":    string(raw),
	})
}

func (a *App) saveFileHandler(c *gin.Context) {
	loc := requestLocalizer(c)
	token := c.Param("token")

	b, err := a.registry.FindByToken(token)
	if err != nil {
		c.Error(err)
		return
	}
	if b == nil {
		fragment(c, false, loc.Message("invalid_bot_token"))
		return
	}

	content, ok := c.GetPostForm("content")
	if !ok {
		fragment(c, false, loc.Template("invalid_json", map[string]interface{}{"Error": loc.Message("content_required")}))
		return
	}

	err = a.store.Save(GetBotID(token), content)
	if jerr, ok := err.(*InvalidJSONError); ok {
		fragment(c, false, loc.Template("invalid_json", map[string]interface{}{"Error": jerr.Error()}))
		return
	}
	if err != nil {
		c.Error(err)
		return
	}

	fragment(c, true, loc.Message("changes_saved"))
}

func (a *App) webhookHandler(c *gin.Context) {
	token := c.Param("token")

	payload, err := c.GetRawData()
	if err != nil {
		logger.Warningf("webhookHandler bot %s: read body: %s", GetBotID(token), err)
	}

	res := a.router.Route(token, payload)
	a.metrics.updates.WithLabelValues(res.Outcome.String()).Inc()

	switch {
	case res.Err != nil:
		logger.Warningf("webhookHandler bot %s: %s: %+v", GetBotID(token), res.Outcome, res.Err)
	case config.Debug:
		logger.Debugf("webhookHandler bot %s: %s", GetBotID(token), res.Outcome)
	}

	if res.Outcome == OutcomeUnknownBot {
		c.JSON(Failure(requestLocalizer(c).Message("unknown_bot")))
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func fragment(c *gin.Context, ok bool, message string) {
	c.HTML(http.StatusOK, "fragment", gin.H{"Ok": ok, "Message": message})
}

func requestLocalizer(c *gin.Context) Localizer {
	return newLocalizer(c.GetHeader("Accept-Language"))
}
