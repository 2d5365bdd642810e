package main

import (
	"io/ioutil"
	"path/filepath"
	"sync"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v2"
)

const translateDir = "translate"

var (
	translateOnce sync.Once
	bundle        = &i18n.Bundle{DefaultLanguage: language.English}
	matcher       = language.NewMatcher([]language.Tag{
		language.English,
		language.Russian,
		language.Hindi,
	})
)

func loadTranslateFile() {
	translateOnce.Do(func() {
		bundle.RegisterUnmarshalFunc("yml", yaml.Unmarshal)
		files, err := ioutil.ReadDir(translateDir)
		if err != nil {
			panic(err)
		}
		for _, f := range files {
			if !f.IsDir() {
				bundle.MustLoadMessageFile(filepath.Join(translateDir, f.Name()))
			}
		}
	})
}

// Localizer wraps go-i18n for a single request or update
type Localizer struct {
	l *i18n.Localizer
}

func newLocalizer(al string) Localizer {
	tag, _ := language.MatchStrings(matcher, al)
	return Localizer{l: i18n.NewLocalizer(bundle, tag.String())}
}

func (l Localizer) Message(messageID string) string {
	return l.l.MustLocalize(&i18n.LocalizeConfig{MessageID: messageID})
}

func (l Localizer) Template(messageID string, templateData map[string]interface{}) string {
	return l.l.MustLocalize(&i18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: templateData,
	})
}
