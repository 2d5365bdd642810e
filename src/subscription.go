package main

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
)

// SubscriptionChecker decides whether a user has joined every channel a bot requires
type SubscriptionChecker struct {
	store   *ConfigStore
	metrics *Metrics
	notify  Localizer
}

func NewSubscriptionChecker(store *ConfigStore, metrics *Metrics, notify Localizer) *SubscriptionChecker {
	return &SubscriptionChecker{store: store, metrics: metrics, notify: notify}
}

// IsSubscribed checks the required channels in order and stops at the first one the user left.
// A channel the bot cannot query is skipped after warning the owners, so it never blocks the user.
func (s *SubscriptionChecker) IsSubscribed(api botAPI, botID string, userID int) bool {
	channels := s.store.RequiredChannels(botID)
	if len(channels) == 0 {
		return true
	}

	for _, channel := range channels {
		member, err := api.GetChatMember(channelChatConfig(channel, userID))
		if err != nil {
			logger.Warningf("bot %s: membership check in %s failed: %s", botID, channel, err)
			s.metrics.membershipChecks.WithLabelValues("error").Inc()
			s.notifyOwners(api, botID, channel)
			continue
		}

		if member.HasLeft() || member.WasKicked() {
			s.metrics.membershipChecks.WithLabelValues("not_member").Inc()
			return false
		}

		s.metrics.membershipChecks.WithLabelValues("member").Inc()
	}

	return true
}

func (s *SubscriptionChecker) notifyOwners(api botAPI, botID, channel string) {
	text := s.notify.Template("add_me_to_channel", map[string]interface{}{"Channel": channel})

	for _, owner := range s.store.Authors(botID).Owner {
		if _, err := api.Send(tgbotapi.NewMessage(owner, text)); err != nil {
			logger.Errorf("bot %s: notify owner %d: %s", botID, owner, err)
		}
	}
}
