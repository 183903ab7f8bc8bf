package localization_test

import (
	"gurimarket/backend/internal/localization"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedPushTitles(t *testing.T) {
	l, err := localization.NewLocalizer()
	require.NoError(t, err)

	assert.Equal(t, "💬 새로운 채팅 메세지가 왔어구리!", l.GetString("ko", localization.ChatPushTitle))
	assert.Equal(t, "💬 새로운 답글이 달렸어구리!", l.GetString("ko", localization.ReplyPushTitle))
}

func TestFormat(t *testing.T) {
	l := localization.MustDefault()

	got := l.Format("ko", localization.ChatPushBody, map[string]string{
		"sender": "구리",
		"body":   "{sender} literal braces stay",
	})
	assert.Equal(t, "구리: {sender} literal braces stay", got, "values are not re-expanded")

	got = l.Format("ko", localization.ReplyPushBody, map[string]string{"title": "아이폰...", "body": "네"})
	assert.Equal(t, "[아이폰...] 네", got)
}

func TestGetStringFallbacks(t *testing.T) {
	fsys := fstest.MapFS{
		"l/ko.json":   {Data: []byte(`{"greet":"안녕","only.ko":"한국어"}`)},
		"l/en.json":   {Data: []byte(`{"greet":"hi"}`)},
		"l/README.md": {Data: []byte("ignored")},
	}
	l, err := localization.NewLocalizerFS(fsys, "l")
	require.NoError(t, err)

	assert.Equal(t, "hi", l.GetString("en", "greet"))
	assert.Equal(t, "한국어", l.GetString("en", "only.ko"), "missing keys fall back to Korean")
	assert.Equal(t, "안녕", l.GetString("ja", "greet"), "unknown languages fall back to Korean")
	assert.Equal(t, "missing", l.GetString("ko", "missing"), "unknown keys return the key")
}

func TestNewLocalizerFSRejectsBadJSON(t *testing.T) {
	fsys := fstest.MapFS{"l/ko.json": {Data: []byte(`{`)}}

	_, err := localization.NewLocalizerFS(fsys, "l")

	assert.Error(t, err)
}
