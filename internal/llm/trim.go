package llm

// TrimConversation drops the oldest history so the conversation fits within
// maxTokens. A budget of zero or less disables trimming.
//
// Leading system messages are always kept and count against the budget.
// The last user message and everything after it form the current turn,
// which is never trimmed. Earlier messages are split into groups: a user
// message, a plain assistant reply, or an assistant tool-call message
// together with the tool results that follow it. Groups are dropped oldest
// first and the last group always survives, so a tool call is never
// separated from its results.
func TrimConversation(messages []Message, maxTokens int) []Message {
	if maxTokens <= 0 || len(messages) == 0 {
		return messages
	}

	head := 0
	for head < len(messages) && messages[head].Role == RoleSystem {
		head++
	}
	fixed := EstimateMessagesTokens(messages[:head])
	turn := currentTurn(messages, head)
	groups := groupMessages(messages[head:turn])
	if turn < len(messages) {
		tail := messageGroup{messages: messages[turn:], tokens: EstimateMessagesTokens(messages[turn:])}
		groups = append(groups, tail)
	}

	total := fixed
	for _, g := range groups {
		total += g.tokens
	}
	if total <= maxTokens {
		return messages
	}

	dropUntil := 0
	for dropUntil < len(groups)-1 && total > maxTokens {
		total -= groups[dropUntil].tokens
		dropUntil++
	}

	trimmed := append([]Message(nil), messages[:head]...)
	for _, g := range groups[dropUntil:] {
		trimmed = append(trimmed, g.messages...)
	}
	return trimmed
}

// currentTurn returns the index of the last user message at or after head,
// or len(messages) when there is none.
func currentTurn(messages []Message, head int) int {
	for i := len(messages) - 1; i >= head; i-- {
		if messages[i].Role == RoleUser {
			return i
		}
	}
	return len(messages)
}

type messageGroup struct {
	messages []Message
	tokens   int
}

func groupMessages(messages []Message) []messageGroup {
	var groups []messageGroup
	i := 0
	for i < len(messages) {
		msg := messages[i]

		if msg.Role == RoleAssistant && len(msg.ToolCalls) > 0 {
			group := messageGroup{messages: []Message{msg}, tokens: EstimateMessageTokens(msg)}
			i++
			for i < len(messages) && messages[i].Role == RoleTool {
				group.messages = append(group.messages, messages[i])
				group.tokens += EstimateMessageTokens(messages[i])
				i++
			}
			groups = append(groups, group)
			continue
		}

		groups = append(groups, messageGroup{
			messages: []Message{msg},
			tokens:   EstimateMessageTokens(msg),
		})
		i++
	}
	return groups
}
