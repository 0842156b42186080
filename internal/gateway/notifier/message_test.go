package notifier

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRenderMarkdownBasic(t *testing.T) {
	msg := StructuredMessage{
		Icon:  "📊",
		Title: "回测完成",
		Sections: []MessageSection{
			{Title: "结果", Lines: []string{"macd @ 1h", "盈利比例 62.5%"}},
		},
		Footer:    "run-abc123",
		Timestamp: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	out := msg.RenderMarkdown()
	require.Contains(t, out, "📊 回测完成")
	require.Contains(t, out, "- macd @ 1h")
	require.Contains(t, out, "run-abc123")
	require.Contains(t, out, "2025-03-01 12:00:00 UTC")
}

func TestRenderMarkdownSkipsEmptySections(t *testing.T) {
	msg := StructuredMessage{
		Title:    "空内容",
		Sections: []MessageSection{{Title: "忽略", Lines: []string{"  ", ""}}},
	}
	out := msg.RenderMarkdown()
	require.NotContains(t, out, "```")
	require.NotContains(t, out, "忽略")
}

func TestRenderMarkdownTruncates(t *testing.T) {
	msg := StructuredMessage{
		Title:    "长消息",
		Sections: []MessageSection{{Lines: []string{strings.Repeat("x", 5000)}}},
	}
	out := msg.RenderMarkdown()
	require.LessOrEqual(t, len(out), maxStructuredMessageLen+3)
	require.True(t, strings.HasSuffix(out, "..."))
}

func TestSendTextRequiresConfig(t *testing.T) {
	tg := NewTelegram("", "")
	require.Error(t, tg.SendText("hello"))
}
