package llm

import (
	"encoding/json"
	"unicode/utf8"
)

// Token counts here are estimates for context budgeting only. About four
// characters per token holds for English and Spanish prose; counting runes
// keeps accented text from being overestimated.
const (
	runesPerToken   = 4
	messageOverhead = 4
	toolCallFraming = 4
	toolIDFraming   = 2
	toolDefFraming  = 10
)

// EstimateTokens returns a rough token count for a string, rounded up.
func EstimateTokens(s string) int {
	n := utf8.RuneCountInString(s)
	return (n + runesPerToken - 1) / runesPerToken
}

// EstimateMessageTokens covers content, tool calls, tool call IDs and the
// role framing of one message.
func EstimateMessageTokens(m Message) int {
	tokens := messageOverhead + EstimateTokens(m.Content)
	for _, tc := range m.ToolCalls {
		tokens += EstimateTokens(tc.Name) + EstimateTokens(tc.Arguments) + toolCallFraming
	}
	if m.ToolCallID != "" {
		tokens += EstimateTokens(m.ToolCallID) + toolIDFraming
	}
	return tokens
}

func EstimateMessagesTokens(messages []Message) int {
	total := 0
	for _, m := range messages {
		total += EstimateMessageTokens(m)
	}
	return total
}

// EstimateToolsTokens counts tool definitions, which are sent as JSON schema
// with every request.
func EstimateToolsTokens(tools []Tool) int {
	total := 0
	for _, t := range tools {
		total += EstimateTokens(t.Name) + EstimateTokens(t.Description) + toolDefFraming
		if schema, err := json.Marshal(t.Parameters); err == nil {
			total += EstimateTokens(string(schema))
		}
	}
	return total
}

// EstimateRequestTokens is the estimated prompt size of a whole request.
func EstimateRequestTokens(req Request) int {
	return EstimateMessagesTokens(req.Messages) + EstimateToolsTokens(req.Tools)
}
