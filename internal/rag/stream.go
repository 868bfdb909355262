package rag

import "strings"

// Reasoning markers embedded literally in the token stream by models with
// a visible reasoning mode. Marker characters may be split across tokens,
// so all parsing works on the accumulated raw buffer, never on single
// tokens.
const (
	ReasoningOpen  = "<think>"
	ReasoningClose = "</think>"
)

// StreamState is the streaming response parser's state. The zero value is
// the initial state. Each state belongs to exactly one in-flight query.
type StreamState struct {
	// Raw is the full token stream received so far.
	Raw string
	// Thinking is the content inside the reasoning block, trimmed.
	Thinking string
	// Answer is the user-visible answer so far, trimmed.
	Answer string
	// InReasoning is true while inside an unclosed reasoning block.
	InReasoning bool
	// ReasoningDone is true once the reasoning block has closed.
	ReasoningDone bool
}

// Next returns the state after consuming one token. It is a pure
// transition function: the receiver is unchanged.
//
// The answer is always re-derived from the full raw buffer rather than
// appended incrementally, which keeps the parse correct when a marker
// straddles token boundaries.
func (s StreamState) Next(token string) StreamState {
	s.Raw += token

	if !s.ReasoningDone {
		if !s.InReasoning && strings.Contains(s.Raw, ReasoningOpen) {
			s.InReasoning = true
		}

		if s.InReasoning {
			start := strings.Index(s.Raw, ReasoningOpen) + len(ReasoningOpen)
			if end := strings.Index(s.Raw, ReasoningClose); end >= 0 {
				s.Thinking = strings.TrimSpace(s.Raw[start:end])
				s.Answer = strings.TrimSpace(s.Raw[end+len(ReasoningClose):])
				s.InReasoning = false
				s.ReasoningDone = true
			} else {
				s.Thinking = strings.TrimSpace(s.Raw[start:])
			}
			return s
		}
	}

	if s.ReasoningDone {
		end := strings.Index(s.Raw, ReasoningClose)
		s.Answer = strings.TrimSpace(s.Raw[end+len(ReasoningClose):])
	} else {
		s.Answer = strings.TrimSpace(s.Raw)
	}
	return s
}
