package summary

import (
	"encoding/json"
	"strings"
)

// ParseLoose はモデル出力のテキストをJSONオブジェクトとして解釈する。
// 厳密なパースに失敗した場合は最初の { から最後の } までの範囲で再試行し、
// それでも失敗した場合は空のオブジェクトを返す（決して失敗しない）。
func ParseLoose(raw string) map[string]any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
		return parsed
	}

	// ベストエフォート回復: 前後の説明文やコードフェンスに埋もれた
	// トップレベルの {...} 範囲を探して再試行する
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err == nil {
			return parsed
		}
	}

	return map[string]any{}
}

// Normalize は任意の形のパース結果を正準形のSummaryに強制変換する。
// 全域関数であり決して失敗しない。4フィールドは常に存在し、
// 欠落・型不一致のフィールドは空スライスに畳み込まれる。
func Normalize(raw map[string]any) Summary {
	return Summary{
		Decisions:   toStringList(raw["decisions"]),
		KeyPoints:   toStringList(raw["keyPoints"]),
		NextSteps:   toStringList(raw["nextSteps"]),
		ActionItems: toActionItems(raw["actionItems"]),
	}
}

// NormalizeSummary は型付きのSummaryを正準形に整える。冪等である。
func NormalizeSummary(s Summary) Summary {
	out := Empty()

	for _, d := range s.Decisions {
		if t := strings.TrimSpace(d); t != "" {
			out.Decisions = append(out.Decisions, t)
		}
	}
	for _, k := range s.KeyPoints {
		if t := strings.TrimSpace(k); t != "" {
			out.KeyPoints = append(out.KeyPoints, t)
		}
	}
	for _, n := range s.NextSteps {
		if t := strings.TrimSpace(n); t != "" {
			out.NextSteps = append(out.NextSteps, t)
		}
	}
	for _, item := range s.ActionItems {
		if normalized, ok := normalizeActionItem(item); ok {
			out.ActionItems = append(out.ActionItems, normalized)
		}
	}

	return out
}

// NormalizeChat はチャット履歴を正規化する。
// 不明なroleはuserに畳み込み、トリム後に空となるメッセージは捨てる。
func NormalizeChat(history []ChatMessage) []ChatMessage {
	out := make([]ChatMessage, 0, len(history))
	for _, m := range history {
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		role := RoleUser
		if m.Role == RoleAssistant {
			role = RoleAssistant
		}
		out = append(out, ChatMessage{Role: role, Content: content})
	}
	return out
}

func toStringList(v any) []string {
	out := []string{}
	items, ok := v.([]any)
	if !ok {
		return out
	}
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func toActionItems(v any) []ActionItem {
	out := []ActionItem{}
	items, ok := v.([]any)
	if !ok {
		return out
	}
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		candidate := ActionItem{
			Text:     stringField(obj, "text"),
			Priority: Priority(stringField(obj, "priority")),
			Assignee: stringField(obj, "assignee"),
		}
		if normalized, ok := normalizeActionItem(candidate); ok {
			out = append(out, normalized)
		}
	}
	return out
}

func normalizeActionItem(item ActionItem) (ActionItem, bool) {
	text := strings.TrimSpace(item.Text)
	if text == "" {
		return ActionItem{}, false
	}
	priority := Priority(strings.ToUpper(strings.TrimSpace(string(item.Priority))))
	if !priority.IsValid() {
		priority = PriorityMedium
	}
	return ActionItem{
		Text:     text,
		Priority: priority,
		Assignee: strings.TrimSpace(item.Assignee),
	}, true
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}
