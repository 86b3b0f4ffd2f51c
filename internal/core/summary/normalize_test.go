package summary

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseLoose は緩いJSONパースの回復動作をテストする
func TestParseLoose(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string]any
	}{
		{
			name: "正しいJSONはそのままパースされる",
			raw:  `{"decisions":["a"]}`,
			want: map[string]any{"decisions": []any{"a"}},
		},
		{
			name: "前後に説明文があってもオブジェクト範囲を抽出する",
			raw:  "Here is the summary:\n```json\n{\"keyPoints\":[\"x\"]}\n```\nDone.",
			want: map[string]any{"keyPoints": []any{"x"}},
		},
		{
			name: "空文字列は空オブジェクトになる",
			raw:  "",
			want: map[string]any{},
		},
		{
			name: "回復不能な入力は空オブジェクトになる",
			raw:  "not json at all",
			want: map[string]any{},
		},
		{
			name: "壊れたオブジェクト範囲も空オブジェクトになる",
			raw:  "prefix {invalid json} suffix",
			want: map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseLoose(tt.raw)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestNormalize は任意の形の入力が正準形に畳み込まれることをテストする
func TestNormalize(t *testing.T) {
	t.Run("4フィールドは常に空スライスとして存在する", func(t *testing.T) {
		got := Normalize(map[string]any{})

		require.NotNil(t, got.Decisions)
		require.NotNil(t, got.KeyPoints)
		require.NotNil(t, got.NextSteps)
		require.NotNil(t, got.ActionItems)
		assert.Empty(t, got.Decisions)
		assert.Empty(t, got.KeyPoints)
		assert.Empty(t, got.NextSteps)
		assert.Empty(t, got.ActionItems)
	})

	t.Run("配列以外の値は空スライスに置き換える", func(t *testing.T) {
		got := Normalize(map[string]any{
			"decisions":   "not a list",
			"keyPoints":   42,
			"nextSteps":   map[string]any{},
			"actionItems": nil,
		})

		assert.Empty(t, got.Decisions)
		assert.Empty(t, got.KeyPoints)
		assert.Empty(t, got.NextSteps)
		assert.Empty(t, got.ActionItems)
	})

	t.Run("アクションアイテムの形を強制する", func(t *testing.T) {
		got := Normalize(map[string]any{
			"actionItems": []any{
				map[string]any{"text": "Finalize contract", "priority": "HIGH", "assignee": "Operations"},
				map[string]any{"text": "Review budget", "priority": "urgent"},
				map[string]any{"text": "  "},
				map[string]any{"priority": "LOW"},
				"not an object",
			},
		})

		require.Len(t, got.ActionItems, 2)
		assert.Equal(t, ActionItem{Text: "Finalize contract", Priority: PriorityHigh, Assignee: "Operations"}, got.ActionItems[0])
		// 不正な優先度はMEDIUMに正規化される
		assert.Equal(t, PriorityMedium, got.ActionItems[1].Priority)
		// 担当者は補完しない
		assert.Empty(t, got.ActionItems[1].Assignee)
	})

	t.Run("小文字の優先度は大文字に正規化される", func(t *testing.T) {
		got := Normalize(map[string]any{
			"actionItems": []any{
				map[string]any{"text": "task", "priority": "low"},
			},
		})

		require.Len(t, got.ActionItems, 1)
		assert.Equal(t, PriorityLow, got.ActionItems[0].Priority)
	})
}

// TestNormalizeIdempotent は正規化の冪等性をテストする
func TestNormalizeIdempotent(t *testing.T) {
	inputs := []map[string]any{
		{},
		{"decisions": []any{"a", ""}, "actionItems": []any{map[string]any{"text": "t", "priority": "bogus"}}},
		{"keyPoints": "wrong type", "nextSteps": []any{" padded "}},
	}

	for _, raw := range inputs {
		once := Normalize(raw)

		// 正規化結果をラウンドトリップして再度正規化しても変化しない
		data, err := json.Marshal(once)
		require.NoError(t, err)
		var roundTrip map[string]any
		require.NoError(t, json.Unmarshal(data, &roundTrip))

		twice := Normalize(roundTrip)
		assert.Equal(t, once, twice)

		// 型付きの正規化も冪等
		assert.Equal(t, NormalizeSummary(once), NormalizeSummary(NormalizeSummary(once)))
	}
}

// TestNormalizeChat はチャット履歴の正規化をテストする
func TestNormalizeChat(t *testing.T) {
	history := []ChatMessage{
		{Role: "x", Content: "hi"},
		{Content: ""},
		{Role: RoleAssistant, Content: " ok "},
	}

	got := NormalizeChat(history)

	require.Len(t, got, 2)
	// 未知のroleはuserに畳み込まれる
	assert.Equal(t, ChatMessage{Role: RoleUser, Content: "hi"}, got[0])
	// 内容はトリムされ、空のエントリは捨てられる
	assert.Equal(t, ChatMessage{Role: RoleAssistant, Content: "ok"}, got[1])
}

func TestNormalizeChat_AllEmpty(t *testing.T) {
	got := NormalizeChat([]ChatMessage{{Role: RoleUser, Content: "   "}, {}})
	assert.Empty(t, got)
	assert.NotNil(t, got)
}
