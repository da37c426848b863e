// Package prompt builds the message sequence sent to the completion service.
package prompt

import "github.com/longkey1/thoughtrelay/internal/relay"

// SystemInstructionVersion identifies the revision of SystemInstruction.
const SystemInstructionVersion = "v1"

// SystemInstruction tells the model how to answer and how to emit the fenced
// chain-of-thought block parsed by the reasoning package.
const SystemInstruction = `You are a helpful AI assistant.
Your task is to:
1. Provide a response that fully satisfies the user's query.
2. Ensure the response is concise, elaborative, and does not omit any necessary details.

Additionally, generate a chain-of-thought as an array of JSON objects. The chain-of-thought must:
1. Use valid JSON format (starting with "` + "```json" + `" and ending with "` + "```" + `") to allow parsing into other interfaces.
2. Describe the logical steps you followed to arrive at the response.
3. Include a "title" and "details" field in each step:
- "title" should briefly summarize the step.
- "details" should be sufficiently descriptive while remaining brief.

**General Rules:**
1. Avoid including any extra labels, section headers, or separators in your response.
2. Ensure the response text and the chain-of-thought are presented sequentially and are easily distinguishable.`

// Build prepends a system turn carrying systemInstruction to history and
// returns a new slice. history is not modified.
func Build(systemInstruction string, history []relay.Turn) []relay.Turn {
	messages := make([]relay.Turn, 0, len(history)+1)
	messages = append(messages, relay.NewTurn(relay.RoleSystem, systemInstruction))
	messages = append(messages, history...)
	return messages
}
