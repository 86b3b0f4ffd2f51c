package summary

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyTranscript はトランスクリプトが空の場合のエラー
	ErrEmptyTranscript = errors.New("transcript text is required")

	// ErrEmptyInstruction は編集指示が空の場合のエラー
	ErrEmptyInstruction = errors.New("edit instruction is required")
)

// SummarizeSystemPrompt はサマリー生成時のシステムプロンプト
const SummarizeSystemPrompt = `You are an expert meeting summarizer. Produce crisp, bullet-ready text. Output strict JSON only.`

// EditSystemPrompt はサマリー編集時のシステムプロンプト
const EditSystemPrompt = `You edit structured meeting notes. Output strict JSON only, never prose.`

// ChatSystemPrompt はチャット応答時のシステムプロンプト
const ChatSystemPrompt = `You are a helpful meeting copilot. Be concise. You can reference the structured summary JSON if needed. Do not invent names. If you don't know, say so.`

const promptRole = `You are an expert Meeting Secretary.
Your task is to convert a raw transcript into a concise, executive-level structured summary.
The output must be suitable for official records.`

const promptCoreRules = `OBJECTIVE
Capture:
- Substantive decisions
- Key discussion points without decisions
- Concrete actions occurring AFTER the transcript

Avoid procedural noise, speculation, and restating the transcript.

---

DECISIONS (CRITICAL)
- Include ONLY substantive decisions:
  - Policy, strategy, financial, governance, operational
- EXCLUDE procedural motions:
  - Agenda approval, minutes, reports, adjournment
- Use ONE sentence starting with a verb:
  Approved, Authorized, Adopted, Amended, Rejected
- Voting outcomes normalized:
  Unanimous, Carried, Rejected, Deferred
- Include mover and seconder ONLY if explicitly stated
- Never invent names or roles

FORMAT:
"Approved [subject] (Moved by [Name], Seconded by [Name], [Outcome])"
Omit seconder if not mentioned.

---

ACTION ITEMS
- Only future work explicitly requested, assigned, or committed in the transcript
- Do NOT create action items from role mentions alone
- Do NOT add items that were already completed (e.g., "already shared")
- One assignee only
- Infer assignees conservatively by role ONLY when the task itself is explicit:
  Finance → Finance / CFO
  Operations → Operations / Engineering / Facilities
  Policy → Legal / Compliance / Executive
  Communications → Communications / Marketing
- Priorities:
  HIGH → urgent, risky, blocking
  MEDIUM → standard follow-up
  LOW → informational
- Merge overlapping tasks when appropriate

---

KEY POINTS
- Discussion items with NO decision
- Each bullet under 140 characters
- Exclude unnecessary technical detail`

const promptJSONSchema = `REQUIRED JSON OUTPUT
{
  "decisions": [
    "Approved vendor selection for Q3 infrastructure upgrade (Moved by [Name], Unanimous)"
  ],
  "keyPoints": [
    "Team discussed rising cloud infrastructure costs."
  ],
  "nextSteps": [
    "Executive team to review updated budget at next meeting."
  ],
  "actionItems": [
    {
      "text": "Finalize contract with selected infrastructure vendor",
      "priority": "HIGH",
      "assignee": "Operations"
    }
  ]
}`

const promptValidationRules = `POST-VALIDATION CHECKLIST (MANDATORY)

A. Decisions
- Substantive and non-procedural
- Single verb-led sentence
- No invented names
- One mover max
- Seconder only if explicitly stated

B. Action Items
- Future-oriented only and explicitly stated
- One assignee
- No inferred tasks from role mentions
- Exclude already-completed actions
- Correct priority
- Overlaps merged

C. Key Points
- No decision content
- Under 140 characters
- Relevant only

D. Output Integrity
- Valid JSON only
- No commentary or markdown
- No empty arrays unless truly applicable`

const promptTwoPassRules = `TWO-PASS GENERATION PROCESS (MANDATORY)

PASS 1 — DRAFT
- Generate a complete draft JSON internally.
- Do NOT output this draft.

PASS 2 — VALIDATE & REGENERATE
- Apply the validation checklist.
- Regenerate a fully corrected JSON.

OUTPUT RULE
- Output ONLY the final corrected JSON.`

// BuildSummaryPrompt はトランスクリプトとテンプレートから決定的な
// サマリー生成プロンプトを構築する。副作用はない。
func BuildSummaryPrompt(transcript string, tmpl Template) (string, error) {
	if strings.TrimSpace(transcript) == "" {
		return "", ErrEmptyTranscript
	}

	tmpl = NormalizeTemplate(string(tmpl))

	var sb strings.Builder
	sb.WriteString(promptRole)
	sb.WriteString("\n\n")
	sb.WriteString(templateContexts[tmpl])
	sb.WriteString("\n\n")
	sb.WriteString(promptCoreRules)
	sb.WriteString("\n\n")
	sb.WriteString(promptJSONSchema)
	sb.WriteString("\n\n")
	sb.WriteString(promptValidationRules)
	sb.WriteString("\n\n")
	sb.WriteString(promptTwoPassRules)
	sb.WriteString("\n\nTranscript:\n")
	sb.WriteString(transcript)

	return sb.String(), nil
}

// BuildEditPrompt は現在のサマリーと自然言語の変更指示から編集プロンプトを構築する
func BuildEditPrompt(current Summary, instruction string) (string, error) {
	if strings.TrimSpace(instruction) == "" {
		return "", ErrEmptyInstruction
	}

	summaryJSON := MarshalIndent(current)

	var sb strings.Builder
	sb.WriteString(`You are an expert meeting notes editor. You will receive the current structured summary JSON and a user request. Update ONLY the fields needed to satisfy the request. Keep all other content as-is. Maintain the JSON shape exactly:
{
  "decisions": ["..."],
  "keyPoints": ["..."],
  "nextSteps": ["..."],
  "actionItems": [
    { "text": "...", "priority": "HIGH|MEDIUM|LOW", "assignee": "..." }
  ]
}

Rules:
- Return valid JSON only.
- Do not invent participants; if unsure, keep existing assignee or omit.
- Priorities must be HIGH, MEDIUM, or LOW (uppercase).
- Keep arrays; use empty arrays when nothing applies.
- If the request conflicts with structure, prefer keeping structure valid.`)
	sb.WriteString("\n\nCurrent summary JSON:\n")
	sb.WriteString(summaryJSON)
	sb.WriteString("\n\nUser request:\n")
	sb.WriteString(strings.TrimSpace(instruction))
	sb.WriteString("\n\nRespond with ONLY the updated JSON.")

	return sb.String(), nil
}

// BuildChatPrompt はサマリーを読み取り専用の文脈として埋め込んだ
// プレーンテキストの継続プロンプトを構築する。出力はJSONではなく自由文。
func BuildChatPrompt(history []ChatMessage, current Summary) string {
	cleaned := NormalizeChat(history)

	var sb strings.Builder
	sb.WriteString(ChatSystemPrompt)
	sb.WriteString("\n\nCurrent summary JSON:\n")
	sb.WriteString(MarshalIndent(current))
	sb.WriteString("\n\nChat history:\n")
	for _, m := range cleaned {
		sb.WriteString(fmt.Sprintf("%s: %s\n", strings.ToUpper(string(m.Role)), m.Content))
	}
	sb.WriteString("\nReply as the assistant.")

	return sb.String()
}

// MarshalIndent はサマリーを正規化した上で整形済みJSONとして返す
func MarshalIndent(s Summary) string {
	data, err := json.MarshalIndent(NormalizeSummary(s), "", "  ")
	if err != nil {
		// Summaryは常にMarshal可能な形をしている
		return "{}"
	}
	return string(data)
}
