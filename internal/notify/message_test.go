package notify

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inovacc/drivesign/internal/drive"
)

func TestFormatSlackMessage(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		msg := NewMessage("acct", &drive.Outcome{Success: true, MonthlyCount: 7, Reward: "Coupon"})
		out := FormatSlackMessage(msg)

		assert.Equal(t, msg.Body, out.Text)
		require.Len(t, out.Attachments, 1)

		att := out.Attachments[0]
		assert.Equal(t, colorSuccess, att.Color)
		require.Len(t, att.Blocks, 3)
		assert.Equal(t, "header", att.Blocks[0].Type)
		assert.Len(t, att.Blocks[1].Fields, 3)
		assert.Equal(t, "context", att.Blocks[2].Type)
	})

	t.Run("failure", func(t *testing.T) {
		msg := NewMessage("acct", drive.Failed(strings.Repeat("x", 600)))
		out := FormatSlackMessage(msg)

		att := out.Attachments[0]
		assert.Equal(t, colorFailure, att.Color)
		require.NotNil(t, att.Blocks[1].Text)
		assert.Contains(t, att.Blocks[1].Text.Text, "Sign-in failed")
		assert.Contains(t, att.Blocks[1].Text.Text, "...")
	})
}

func TestFormatContextBlock_ZeroTime(t *testing.T) {
	b := formatContextBlock(time.Time{})
	require.Len(t, b.Elements, 1)
	assert.NotContains(t, b.Elements[0].Text, "^-62135596800^")
}

func TestFormatTelegramHTML(t *testing.T) {
	tests := []struct {
		name string
		msg  *Message
		want string
	}{
		{
			name: "success escapes reward",
			msg:  NewMessage("a&b", &drive.Outcome{Success: true, MonthlyCount: 2, Reward: "<gift>"}),
			want: "<b>" + DefaultTitle + "</b>\n\n<code>a&amp;b</code> sign-in succeeded: 2 days signed in this month. Today's reward: &lt;gift&gt;",
		},
		{
			name: "failure escapes raw error",
			msg:  NewMessage("acct", drive.Failed(`{"message":"<bad>"}`)),
			want: "<b>" + DefaultTitle + "</b>\n\n<code>acct</code> sign-in failed: {&#34;message&#34;:&#34;&lt;bad&gt;&#34;}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatTelegramHTML(tt.msg))
		})
	}
}

func TestFormatMarkdown(t *testing.T) {
	ok := FormatMarkdown(NewMessage("acct", &drive.Outcome{Success: true, MonthlyCount: 4, Reward: drive.NoReward}))
	assert.Equal(t, "**Account:** `acct`\n\n**Days this month:** 4\n\n**Reward:** no reward", ok)

	failed := FormatMarkdown(NewMessage("acct", drive.Failed("boom")))
	assert.Contains(t, failed, "**Sign-in failed**")
	assert.Contains(t, failed, "```\nboom\n```")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("  short \n", 10))
	assert.Equal(t, "a b", truncate("a\nb", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}

func TestTruncate_MultiByte(t *testing.T) {
	got := truncate(strings.Repeat("签", 200), 500)

	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, len(got), 500)
	assert.True(t, strings.HasSuffix(got, "签..."))
}
