package summary

// Template はサマリー生成時に適用する抽出ルールのテンプレート名
type Template string

const (
	TemplateDefault    Template = "default"
	TemplateBrainstorm Template = "brainstorm"
	TemplateInterview  Template = "interview"
	TemplateLecture    Template = "lecture"
	TemplateVoiceMemo  Template = "voice-memo"
)

// templateContexts はテンプレートごとの文脈ルール。
// プロセス全体で不変の定数として扱う。
var templateContexts = map[Template]string{
	TemplateDefault: `TEMPLATE CONTEXT — MEETING (DEFAULT)
This is a formal meeting with potential decisions and follow-up actions.`,

	TemplateBrainstorm: `TEMPLATE CONTEXT — BRAINSTORM SESSION
- Decisions are rare; include ONLY if explicitly finalized.
- Emphasize ideas, themes, and opportunities in keyPoints.
- Action items should focus on exploration or validation.
- Do NOT force executive decision structure.`,

	TemplateInterview: `TEMPLATE CONTEXT — INTERVIEW NOTES
- Decisions are generally NOT applicable.
- Focus keyPoints on insights, opinions, and factual statements.
- Action items only if follow-up or deliverables are explicitly stated.
- Do NOT infer organizational actions.`,

	TemplateLecture: `TEMPLATE CONTEXT — LECTURE NOTES
- This is informational and educational content.
- Omit decisions unless explicitly assigned.
- KeyPoints should summarize concepts, frameworks, or explanations.
- Action items only reflect assignments or required work.`,

	TemplateVoiceMemo: `TEMPLATE CONTEXT — VOICE MEMO
- This is an informal personal recording.
- Decisions may be personal commitments.
- KeyPoints may include thoughts, reminders, or ideas.
- Action items may be inferred conservatively and kept practical.`,
}

// NormalizeTemplate は未知のテンプレート名をdefaultに畳み込む。
// 未知の名前はエラーではなく意図的な縮退として扱う。
func NormalizeTemplate(name string) Template {
	t := Template(name)
	if _, ok := templateContexts[t]; ok {
		return t
	}
	return TemplateDefault
}

// KnownTemplates は既知のテンプレート名一覧を返す
func KnownTemplates() []Template {
	return []Template{
		TemplateDefault,
		TemplateBrainstorm,
		TemplateInterview,
		TemplateLecture,
		TemplateVoiceMemo,
	}
}
