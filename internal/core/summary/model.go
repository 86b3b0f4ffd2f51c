package summary

// Priority はアクションアイテムの優先度
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// IsValid は既知の優先度かどうかを返す
func (p Priority) IsValid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// ActionItem は会議から抽出された1件のアクションアイテム
type ActionItem struct {
	// Text はアクションの内容（正規化後は必ず非空）
	Text string `json:"text"`

	// Priority は優先度（不正値はMEDIUMに正規化される）
	Priority Priority `json:"priority"`

	// Assignee は担当者（任意。正規化では決して補完しない）
	Assignee string `json:"assignee,omitempty"`
}

// Summary は会議サマリーの正準形。
// 4フィールドは常に存在し、空の場合も空スライス（nilではない）を保持する。
type Summary struct {
	Decisions   []string     `json:"decisions"`
	KeyPoints   []string     `json:"keyPoints"`
	NextSteps   []string     `json:"nextSteps"`
	ActionItems []ActionItem `json:"actionItems"`
}

// Empty は全フィールドが空スライスのSummaryを返す
func Empty() Summary {
	return Summary{
		Decisions:   []string{},
		KeyPoints:   []string{},
		NextSteps:   []string{},
		ActionItems: []ActionItem{},
	}
}

// Role はチャットメッセージの発話者種別
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage はアシスタントとの1往復分のメッセージ
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
