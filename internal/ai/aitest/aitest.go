// Package aitest provides scripted model fakes for workflow tests.
package aitest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/steveyegge/agentflows/internal/ai"
)

// Reply is one scripted answer: either raw text or an error.
type Reply struct {
	Text string
	Err  error
}

// JSON marshals v into a Reply. It panics on marshal failure, which only
// happens for unsupported test values.
func JSON(v any) Reply {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("aitest: marshal reply: %v", err))
	}
	return Reply{Text: string(data)}
}

// Text returns a raw text Reply.
func Text(s string) Reply {
	return Reply{Text: s}
}

// Fail returns an error Reply.
func Fail(err error) Reply {
	return Reply{Err: err}
}

// ScriptedInvoker answers each operation from its own queue of replies and
// records every request it receives. Safe for concurrent use.
type ScriptedInvoker struct {
	mu       sync.Mutex
	scripts  map[string][]Reply
	requests []ai.Request
}

var _ ai.Invoker = (*ScriptedInvoker)(nil)

// NewScriptedInvoker creates an empty invoker.
func NewScriptedInvoker() *ScriptedInvoker {
	return &ScriptedInvoker{scripts: make(map[string][]Reply)}
}

// On queues replies for an operation. Returns the invoker for chaining.
func (s *ScriptedInvoker) On(operation string, replies ...Reply) *ScriptedInvoker {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts[operation] = append(s.scripts[operation], replies...)
	return s
}

// Complete pops the next reply for req.Operation. An exhausted or unknown
// operation is an error so tests catch unexpected calls.
func (s *ScriptedInvoker) Complete(ctx context.Context, req *ai.Request) (*ai.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, *req)

	queue := s.scripts[req.Operation]
	if len(queue) == 0 {
		return nil, fmt.Errorf("aitest: no scripted reply for operation %q", req.Operation)
	}
	reply := queue[0]
	s.scripts[req.Operation] = queue[1:]

	if reply.Err != nil {
		return nil, reply.Err
	}
	return &ai.Response{Text: reply.Text, Model: "scripted"}, nil
}

// Requests returns a copy of all received requests in arrival order.
func (s *ScriptedInvoker) Requests() []ai.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ai.Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Operations returns the operation name of each received request in order.
func (s *ScriptedInvoker) Operations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ops := make([]string, len(s.requests))
	for i, r := range s.requests {
		ops[i] = r.Operation
	}
	return ops
}

// CallCount returns how many requests were made for operation.
func (s *ScriptedInvoker) CallCount(operation string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if r.Operation == operation {
			n++
		}
	}
	return n
}

// Remaining returns how many unconsumed replies are queued for operation.
func (s *ScriptedInvoker) Remaining(operation string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.scripts[operation])
}

// FuncInvoker adapts a function to ai.Invoker.
type FuncInvoker func(ctx context.Context, req *ai.Request) (*ai.Response, error)

// Complete calls f.
func (f FuncInvoker) Complete(ctx context.Context, req *ai.Request) (*ai.Response, error) {
	return f(ctx, req)
}
