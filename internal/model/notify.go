package model

// ChannelType represents the type of notification channel.
type ChannelType string

const (
	ChannelDingTalk   ChannelType = "dingtalk"
	ChannelWeCom      ChannelType = "wecom"
	ChannelServerChan ChannelType = "serverchan"
	ChannelPushDeer   ChannelType = "pushdeer"
	ChannelPushPlus   ChannelType = "pushplus"
	ChannelTelegram   ChannelType = "telegram"
	ChannelSlack      ChannelType = "slack"
	ChannelSMTP       ChannelType = "smtp"
)

// KnownChannels lists every supported channel in dispatch order.
var KnownChannels = []ChannelType{
	ChannelDingTalk,
	ChannelWeCom,
	ChannelServerChan,
	ChannelPushDeer,
	ChannelTelegram,
	ChannelPushPlus,
	ChannelSlack,
	ChannelSMTP,
}

// IsKnownChannel reports whether name is a supported channel identifier.
func IsKnownChannel(name string) bool {
	for _, c := range KnownChannels {
		if string(c) == name {
			return true
		}
	}

	return false
}

// ChannelKeys lists the credential keys each channel reads from configuration.
// Every key is also looked up as an upper-cased environment variable.
var ChannelKeys = map[ChannelType][]string{
	ChannelDingTalk:   {"dingtalk_app_key", "dingtalk_app_secret", "dingtalk_user_id", "dingtalk_endpoint"},
	ChannelWeCom:      {"wecom_webhook_key", "wecom_endpoint"},
	ChannelServerChan: {"serverchan_send_key", "serverchan_endpoint"},
	ChannelPushDeer:   {"pushdeer_endpoint", "pushdeer_send_key"},
	ChannelPushPlus:   {"pushplus_token", "pushplus_endpoint"},
	ChannelTelegram:   {"telegram_endpoint", "telegram_bot_token", "telegram_chat_id", "telegram_proxy"},
	ChannelSlack:      {"slack_webhook_url", "slack_bot_token", "slack_channel"},
	ChannelSMTP: {
		"smtp_host", "smtp_port", "smtp_tls", "smtp_user",
		"smtp_password", "smtp_sender", "smtp_receiver",
	},
}
