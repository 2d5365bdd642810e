package main

import (
	"encoding/json"
	"sort"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
)

// Outcome is what happened to one webhook update
type Outcome int

const (
	OutcomeHandled Outcome = iota
	OutcomeIgnored
	OutcomeUnknownBot
	OutcomeBadUpdate
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeHandled:
		return "handled"
	case OutcomeIgnored:
		return "ignored"
	case OutcomeUnknownBot:
		return "unknown_bot"
	case OutcomeBadUpdate:
		return "bad_update"
	case OutcomeFailed:
		return "failed"
	}

	return "unknown"
}

// Result of routing an update; Err is set for bad updates and failures
type Result struct {
	Outcome Outcome
	Err     error
}

// Dispatcher is the resolved, reusable state for one bot token
type Dispatcher struct {
	BotID    string
	Name     string
	UserName string
	api      botAPI
}

// DispatcherCache keeps the most recently used dispatchers. Misses are resolved through the registry.
type DispatcherCache struct {
	cache    *lru.Cache[string, *Dispatcher]
	registry Registry
	connect  connectFunc
	metrics  *Metrics
}

func NewDispatcherCache(size int, registry Registry, connect connectFunc, metrics *Metrics) (*DispatcherCache, error) {
	cache, err := lru.New[string, *Dispatcher](size)
	if err != nil {
		return nil, err
	}

	return &DispatcherCache{
		cache:    cache,
		registry: registry,
		connect:  connect,
		metrics:  metrics,
	}, nil
}

// Get returns nil without an error when the token belongs to no registered bot
func (d *DispatcherCache) Get(token string) (*Dispatcher, error) {
	if disp, ok := d.cache.Get(token); ok {
		return disp, nil
	}

	b, err := d.registry.FindByToken(token)
	if err != nil || b == nil {
		return nil, err
	}

	api, userName, err := d.connect(token)
	if err != nil {
		return nil, errors.Wrapf(err, "connect bot %s", b.Name)
	}

	disp := &Dispatcher{
		BotID:    GetBotID(token),
		Name:     b.Name,
		UserName: userName,
		api:      api,
	}

	d.cache.Add(token, disp)
	d.metrics.dispatchers.Set(float64(d.cache.Len()))

	return disp, nil
}

// Router feeds webhook updates through the per-bot configuration
type Router struct {
	dispatchers *DispatcherCache
	store       *ConfigStore
	checker     *SubscriptionChecker
}

func NewRouter(dispatchers *DispatcherCache, store *ConfigStore, checker *SubscriptionChecker) *Router {
	return &Router{
		dispatchers: dispatchers,
		store:       store,
		checker:     checker,
	}
}

// Route handles one raw update for token. It never panics.
func (r *Router) Route(token string, payload []byte) (res Result) {
	defer func() {
		if rec := recover(); rec != nil {
			res = Result{Outcome: OutcomeFailed, Err: errors.Errorf("panic: %v", rec)}
		}
	}()

	d, err := r.dispatchers.Get(token)
	if err != nil {
		return Result{Outcome: OutcomeFailed, Err: err}
	}
	if d == nil {
		return Result{Outcome: OutcomeUnknownBot}
	}

	var update tgbotapi.Update
	if err := json.Unmarshal(payload, &update); err != nil {
		return Result{Outcome: OutcomeBadUpdate, Err: errors.Wrap(err, "decode update")}
	}

	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil || strings.TrimSpace(msg.Text) == "" {
		return Result{Outcome: OutcomeIgnored}
	}

	cfg, err := r.store.Load(d.BotID)
	if err != nil {
		return Result{Outcome: OutcomeFailed, Err: err}
	}

	reply, ok := r.reply(d, cfg, msg)
	if !ok {
		return Result{Outcome: OutcomeIgnored}
	}

	if _, err := d.api.Send(reply); err != nil {
		return Result{Outcome: OutcomeFailed, Err: errors.Wrapf(err, "send reply to chat %d", msg.Chat.ID)}
	}

	return Result{Outcome: OutcomeHandled}
}

func (r *Router) reply(d *Dispatcher, cfg BotConfig, msg *tgbotapi.Message) (tgbotapi.MessageConfig, bool) {
	command, own := commandName(msg.Text, d.UserName)
	if !own {
		return tgbotapi.MessageConfig{}, false
	}

	if command == "start" {
		if !r.checker.IsSubscribed(d.api, d.BotID, msg.From.ID) {
			loc := newLocalizer(msg.From.LanguageCode)
			return joinPrompt(d.api, msg.Chat.ID, r.store.RequiredChannels(d.BotID), d.UserName, loc), true
		}

		return tgbotapi.NewMessage(msg.Chat.ID, renderStartMessage(cfg.StartMsg, msg.From)), true
	}

	if command != "" {
		if text, ok := cfg.CommandReply(command); ok {
			return tgbotapi.NewMessage(msg.Chat.ID, text), true
		}
	}

	if text, ok := cfg.KeywordReply(msg.Text); ok {
		return tgbotapi.NewMessage(msg.Chat.ID, text), true
	}

	return tgbotapi.MessageConfig{}, false
}

// commandName returns "help" for "/help@SomeBot args", empty for plain text.
// own is false when the command is addressed to another bot.
func commandName(text, botUserName string) (name string, own bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", true
	}

	name = strings.Fields(text)[0][1:]
	if i := strings.Index(name, "@"); i >= 0 {
		if !strings.EqualFold(name[i+1:], botUserName) {
			return "", false
		}
		name = name[:i]
	}

	return name, true
}

// CommandReply matches the command name exactly. Config keys may carry a leading slash.
func (c BotConfig) CommandReply(name string) (string, bool) {
	if text, ok := c.Commands[name]; ok {
		return text, true
	}

	text, ok := c.Commands["/"+name]

	return text, ok
}

// KeywordReply looks for a keyword anywhere in the message, ignoring case.
// Longer keywords win; equal lengths are ordered lexicographically.
func (c BotConfig) KeywordReply(text string) (string, bool) {
	text = strings.ToLower(strings.TrimSpace(text))

	for _, kw := range c.sortedKeywords() {
		if strings.Contains(text, strings.ToLower(kw)) {
			return c.Keywords[kw], true
		}
	}

	return "", false
}

func (c BotConfig) sortedKeywords() []string {
	keys := make([]string, 0, len(c.Keywords))
	for k := range c.Keywords {
		if strings.TrimSpace(k) != "" {
			keys = append(keys, k)
		}
	}

	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	return keys
}
