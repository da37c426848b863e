// Package reasoning splits raw model output into the displayable answer and
// the chain-of-thought steps carried in its fenced JSON block.
//
// Parsing never fails: a missing or malformed block degrades to a single step
// titled "Error" whose details describe the problem.
package reasoning

import (
	"errors"
	"strings"
)

const (
	// OpenFence marks the start of the reasoning block.
	OpenFence = "```json"
	// CloseFence marks the end of the reasoning block.
	CloseFence = "```"

	// ErrorTitle is the title of the synthetic step reported on degradation.
	ErrorTitle = "Error"

	noBlockDetails   = "No reasoning JSON found in AI response."
	parseErrorPrefix = "Failed to parse reasoning JSON: "
)

var (
	// ErrNoBlock is returned by FindBlock when the opening fence is absent.
	ErrNoBlock = errors.New("no reasoning JSON found in AI response")
	// ErrUnterminated is returned by FindBlock when the closing fence is absent.
	ErrUnterminated = errors.New("closing fence not found after opening fence")
)

// Step is one entry of the chain-of-thought. ID is the 1-based position.
type Step struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Details string `json:"details"`
}

// Block is the result of locating the fenced block in raw output.
type Block struct {
	// Answer is the trimmed text preceding the opening fence.
	Answer string
	// Body is the trimmed text between the fences.
	Body string
}

// FindBlock locates the first opening fence and the first closing fence after it.
func FindBlock(raw string) (Block, error) {
	start := strings.Index(raw, OpenFence)
	if start == -1 {
		return Block{}, ErrNoBlock
	}

	answer := strings.TrimSpace(raw[:start])
	bodyStart := start + len(OpenFence)
	end := strings.Index(raw[bodyStart:], CloseFence)
	if end == -1 {
		return Block{Answer: answer}, ErrUnterminated
	}

	return Block{
		Answer: answer,
		Body:   strings.TrimSpace(raw[bodyStart : bodyStart+end]),
	}, nil
}

// Split returns the answer text and reasoning steps for raw.
//
// If no block is present, the answer is raw and a single Error step is returned.
// If the block is present but cannot be decoded, the answer is also raw
// (fences included) and the Error step describes the failure.
func Split(raw string) (string, []Step) {
	text, steps, _ := Parse(raw)
	return text, steps
}

// Parse is Split that also reports whether the steps are the synthetic
// Error step rather than the model's own block.
func Parse(raw string) (text string, steps []Step, degraded bool) {
	block, err := FindBlock(raw)
	if errors.Is(err, ErrNoBlock) {
		return raw, errorSteps(noBlockDetails), true
	}
	if err != nil {
		return raw, errorSteps(parseErrorPrefix + err.Error()), true
	}

	steps, err = DecodeSteps(block.Body)
	if err != nil {
		return raw, errorSteps(parseErrorPrefix + err.Error()), true
	}
	return block.Answer, steps, false
}

func errorSteps(details string) []Step {
	return []Step{{ID: 1, Title: ErrorTitle, Details: details}}
}
