package summary

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBuildSummaryPrompt はサマリープロンプトの構築をテストする
func TestBuildSummaryPrompt(t *testing.T) {
	t.Run("トランスクリプトとテンプレート文脈を含む", func(t *testing.T) {
		prompt, err := BuildSummaryPrompt("We approved the budget.", TemplateLecture)
		require.NoError(t, err)

		assert.Contains(t, prompt, "LECTURE NOTES")
		assert.Contains(t, prompt, "Transcript:\nWe approved the budget.")
		assert.Contains(t, prompt, "REQUIRED JSON OUTPUT")
		assert.Contains(t, prompt, "TWO-PASS GENERATION PROCESS")
	})

	t.Run("同じ入力からは同じプロンプトが生成される", func(t *testing.T) {
		a, err := BuildSummaryPrompt("text", TemplateBrainstorm)
		require.NoError(t, err)
		b, err := BuildSummaryPrompt("text", TemplateBrainstorm)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("空のトランスクリプトはエラー", func(t *testing.T) {
		_, err := BuildSummaryPrompt("   \n\t", TemplateDefault)
		assert.ErrorIs(t, err, ErrEmptyTranscript)
	})

	t.Run("未知のテンプレートはdefaultと同一の結果になる", func(t *testing.T) {
		unknown, err := BuildSummaryPrompt("text", Template("totally-unknown"))
		require.NoError(t, err)
		def, err := BuildSummaryPrompt("text", TemplateDefault)
		require.NoError(t, err)
		assert.Equal(t, def, unknown)
	})
}

// TestNormalizeTemplate はテンプレート名の正規化をテストする
func TestNormalizeTemplate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Template
	}{
		{"既知のテンプレートはそのまま", "interview", TemplateInterview},
		{"voice-memoも既知", "voice-memo", TemplateVoiceMemo},
		{"未知の名前はdefaultに畳み込む", "standup", TemplateDefault},
		{"空文字列もdefault", "", TemplateDefault},
		{"大文字は未知扱い", "LECTURE", TemplateDefault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTemplate(tt.in))
		})
	}
}

// TestBuildEditPrompt は編集プロンプトの構築をテストする
func TestBuildEditPrompt(t *testing.T) {
	current := Summary{
		Decisions:   []string{"Approved budget"},
		KeyPoints:   []string{},
		NextSteps:   []string{},
		ActionItems: []ActionItem{{Text: "Send recap", Priority: PriorityLow, Assignee: "Comms"}},
	}

	t.Run("現在のサマリーJSONと指示を埋め込む", func(t *testing.T) {
		prompt, err := BuildEditPrompt(current, "raise the recap priority")
		require.NoError(t, err)

		assert.Contains(t, prompt, `"Approved budget"`)
		assert.Contains(t, prompt, `"Send recap"`)
		assert.Contains(t, prompt, "raise the recap priority")
		assert.Contains(t, prompt, "Respond with ONLY the updated JSON.")
	})

	t.Run("空の指示はエラー", func(t *testing.T) {
		_, err := BuildEditPrompt(current, "  ")
		assert.ErrorIs(t, err, ErrEmptyInstruction)
	})
}

// TestBuildChatPrompt はチャットプロンプトの構築をテストする
func TestBuildChatPrompt(t *testing.T) {
	history := []ChatMessage{
		{Role: RoleUser, Content: "who owns the recap?"},
		{Role: RoleAssistant, Content: " Comms does. "},
		{Role: "bogus", Content: ""},
	}

	prompt := BuildChatPrompt(history, Empty())

	assert.Contains(t, prompt, "USER: who owns the recap?")
	assert.Contains(t, prompt, "ASSISTANT: Comms does.")
	assert.Contains(t, prompt, "Current summary JSON:")
	assert.True(t, strings.HasSuffix(prompt, "Reply as the assistant."))
}

// TestMarshalIndent はサマリーのJSON整形をテストする
func TestMarshalIndent(t *testing.T) {
	// nilスライスを含むサマリーも4フィールド揃ったJSONになる
	out := MarshalIndent(Summary{})

	assert.Contains(t, out, `"decisions": []`)
	assert.Contains(t, out, `"keyPoints": []`)
	assert.Contains(t, out, `"nextSteps": []`)
	assert.Contains(t, out, `"actionItems": []`)
}
