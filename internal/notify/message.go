package notify

import (
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"
)

// SlackMessage represents a Slack message with optional Block Kit formatting.
type SlackMessage struct {
	// Text is the fallback text for notifications
	Text string `json:"text"`

	// Attachments carry the blocks so the message gets a color bar
	Attachments []Attachment `json:"attachments,omitempty"`

	// UnfurlLinks disables link previews
	UnfurlLinks bool `json:"unfurl_links"`

	// UnfurlMedia disables media previews
	UnfurlMedia bool `json:"unfurl_media"`
}

// Block represents a Slack Block Kit block.
type Block struct {
	Type     string       `json:"type"`
	Text     *TextObject  `json:"text,omitempty"`
	Fields   []TextObject `json:"fields,omitempty"`
	Elements []TextObject `json:"elements,omitempty"`
}

// TextObject represents text content in a block.
type TextObject struct {
	Type  string `json:"type"` // "plain_text" or "mrkdwn"
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

// Attachment represents a legacy Slack attachment (used for color bars).
type Attachment struct {
	Color    string  `json:"color,omitempty"`
	Fallback string  `json:"fallback,omitempty"`
	Blocks   []Block `json:"blocks,omitempty"`
}

const (
	colorSuccess = "#2EB67D"
	colorFailure = "#E01E5A"
)

// FormatSlackMessage creates a Slack message from a notification.
func FormatSlackMessage(msg *Message) *SlackMessage {
	color := colorSuccess
	if !msg.Success {
		color = colorFailure
	}

	blocks := []Block{
		{
			Type: "header",
			Text: &TextObject{Type: "plain_text", Text: msg.Title, Emoji: true},
		},
	}

	if msg.Success {
		blocks = append(blocks, Block{
			Type: "section",
			Fields: []TextObject{
				{Type: "mrkdwn", Text: fmt.Sprintf("*Account*\n`%s`", msg.Account)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Days this month*\n%d", msg.Count)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Reward*\n%s", msg.Reward)},
			},
		})
	} else {
		blocks = append(blocks, Block{
			Type: "section",
			Text: &TextObject{
				Type: "mrkdwn",
				Text: fmt.Sprintf("*Sign-in failed* for `%s`\n```%s```", msg.Account, truncate(msg.Error, 500)),
			},
		})
	}

	blocks = append(blocks, formatContextBlock(msg.Timestamp))

	return &SlackMessage{
		Text: msg.Body,
		Attachments: []Attachment{{
			Color:    color,
			Fallback: msg.Body,
			Blocks:   blocks,
		}},
	}
}

// formatContextBlock creates a context block with the send time.
func formatContextBlock(ts time.Time) Block {
	if ts.IsZero() {
		ts = time.Now()
	}

	return Block{
		Type: "context",
		Elements: []TextObject{{
			Type: "mrkdwn",
			Text: fmt.Sprintf("<!date^%d^{date_short_pretty} at {time}|%s>",
				ts.Unix(), ts.Format("Jan 2, 2006 3:04 PM")),
		}},
	}
}

// FormatTelegramHTML renders a message using Telegram's HTML parse mode.
func FormatTelegramHTML(msg *Message) string {
	account := "<code>" + html.EscapeString(msg.Account) + "</code>"

	var body string
	if msg.Success {
		body = fmt.Sprintf("%s sign-in succeeded: %d days signed in this month. Today's reward: %s",
			account, msg.Count, html.EscapeString(msg.Reward))
	} else if msg.Error != "" {
		body = fmt.Sprintf("%s sign-in failed: %s", account, html.EscapeString(msg.Error))
	} else {
		body = html.EscapeString(msg.Body)
	}

	return fmt.Sprintf("<b>%s</b>\n\n%s", html.EscapeString(msg.Title), body)
}

// FormatMarkdown renders a message as markdown for push services that accept it.
func FormatMarkdown(msg *Message) string {
	if msg.Success {
		return fmt.Sprintf("**Account:** `%s`\n\n**Days this month:** %d\n\n**Reward:** %s",
			msg.Account, msg.Count, msg.Reward)
	}

	if msg.Error != "" {
		return fmt.Sprintf("**Account:** `%s`\n\n**Sign-in failed**\n\n```\n%s\n```", msg.Account, msg.Error)
	}

	return msg.Body
}

// truncate shortens a string to the specified length.
func truncate(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	// Remove newlines for single-line display
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")

	if len(s) <= maxLen {
		return s
	}

	cut := maxLen - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}

	return s[:cut] + "..."
}
