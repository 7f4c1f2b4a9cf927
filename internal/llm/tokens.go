package llm

// messageOverhead approximates the per-message framing tokens of chat formats.
const messageOverhead = 4

// EstimateTokens approximates token count as ceil(len/4).
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

func EstimateMessages(msgs []Message) int {
	total := 0
	for _, m := range msgs {
		total += EstimateTokens(m.Content) + messageOverhead
	}
	return total
}

// EstimateRequest estimates the prompt side of a request.
func EstimateRequest(req Request) int {
	if len(req.Messages) > 0 {
		return EstimateMessages(ChatMessages(req))
	}
	return EstimateTokens(req.System) + EstimateTokens(req.Prompt)
}
