package graph

import (
	"context"
	"errors"
	"testing"
)

type testState struct {
	Trace []string `json:"trace"`
	Count int      `json:"count"`
}

// traceNode appends its ID to the state trace and returns the given
// directive.
func traceNode(id string, next Next) Node[testState] {
	return NodeFunc[testState](func(ctx context.Context, s testState) (testState, Next, error) {
		s.Trace = append(s.Trace, id)
		s.Count++
		return s, next, nil
	})
}

func compileErrCode(t *testing.T, err error) string {
	t.Helper()
	if err == nil {
		t.Fatal("expected compile error")
	}
	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CompileError, got %T: %v", err, err)
	}
	return ce.Code
}

func TestCompileValidChain(t *testing.T) {
	g := NewStateGraph[testState]().
		AddNode("a", traceNode("a", Continue())).
		AddNode("b", traceNode("b", Continue())).
		AddNode("c", traceNode("c", Continue())).
		AddEdge(Start, "a").
		AddEdge("a", "b").
		AddEdge("b", "c").
		AddEdge("c", End)

	compiled, err := g.Compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	order := compiled.Order()
	want := []string{"a", "b", "c"}
	if len(order) != len(want) {
		t.Fatalf("expected order %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, order)
		}
	}
}

func TestCompileEdgeInsertionOrderIrrelevant(t *testing.T) {
	g := NewStateGraph[testState]().
		AddNode("a", traceNode("a", Continue())).
		AddNode("b", traceNode("b", Continue())).
		AddEdge("b", End).
		AddEdge("a", "b").
		AddEdge(Start, "a")

	compiled, err := g.Compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	order := compiled.Order()
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Errorf("expected [a b], got %v", order)
	}
}

func TestCompileErrors(t *testing.T) {
	node := func(id string) Node[testState] { return traceNode(id, Continue()) }

	t.Run("unknown node reference", func(t *testing.T) {
		g := NewStateGraph[testState]().
			AddNode("a", node("a")).
			AddEdge(Start, "a").
			AddEdge("a", "ghost").
			AddEdge("ghost", End)
		_, err := g.Compile()
		if code := compileErrCode(t, err); code != CodeNodeNotFound {
			t.Errorf("expected %s, got %s", CodeNodeNotFound, code)
		}
	})

	t.Run("missing start edge", func(t *testing.T) {
		g := NewStateGraph[testState]().
			AddNode("a", node("a")).
			AddEdge("a", End)
		_, err := g.Compile()
		if code := compileErrCode(t, err); code != CodeMissingStart {
			t.Errorf("expected %s, got %s", CodeMissingStart, code)
		}
	})

	t.Run("missing end edge", func(t *testing.T) {
		g := NewStateGraph[testState]().
			AddNode("a", node("a")).
			AddEdge(Start, "a")
		_, err := g.Compile()
		if code := compileErrCode(t, err); code != CodeMissingEnd {
			t.Errorf("expected %s, got %s", CodeMissingEnd, code)
		}
	})

	t.Run("branch from start", func(t *testing.T) {
		g := NewStateGraph[testState]().
			AddNode("a", node("a")).
			AddNode("b", node("b")).
			AddEdge(Start, "a").
			AddEdge(Start, "b").
			AddEdge("a", End)
		_, err := g.Compile()
		if code := compileErrCode(t, err); code != CodeInvalidChain {
			t.Errorf("expected %s, got %s", CodeInvalidChain, code)
		}
	})

	t.Run("two outgoing edges from one node", func(t *testing.T) {
		g := NewStateGraph[testState]().
			AddNode("a", node("a")).
			AddNode("b", node("b")).
			AddNode("c", node("c")).
			AddEdge(Start, "a").
			AddEdge("a", "b").
			AddEdge("a", "c").
			AddEdge("b", End)
		_, err := g.Compile()
		if code := compileErrCode(t, err); code != CodeInvalidChain {
			t.Errorf("expected %s, got %s", CodeInvalidChain, code)
		}
	})

	t.Run("two incoming edges to one node", func(t *testing.T) {
		g := NewStateGraph[testState]().
			AddNode("a", node("a")).
			AddNode("b", node("b")).
			AddNode("c", node("c")).
			AddEdge(Start, "a").
			AddEdge("a", "c").
			AddEdge("b", "c").
			AddEdge("c", End)
		_, err := g.Compile()
		if code := compileErrCode(t, err); code != CodeInvalidChain {
			t.Errorf("expected %s, got %s", CodeInvalidChain, code)
		}
	})

	t.Run("static cycle", func(t *testing.T) {
		g := NewStateGraph[testState]().
			AddNode("a", node("a")).
			AddNode("b", node("b")).
			AddNode("c", node("c")).
			AddEdge(Start, "a").
			AddEdge("a", "b").
			AddEdge("b", "a").
			AddEdge("c", End)
		_, err := g.Compile()
		if code := compileErrCode(t, err); code != CodeInvalidChain {
			t.Errorf("expected %s, got %s", CodeInvalidChain, code)
		}
	})

	t.Run("tail mismatch", func(t *testing.T) {
		g := NewStateGraph[testState]().
			AddNode("a", node("a")).
			AddNode("b", node("b")).
			AddNode("c", node("c")).
			AddEdge(Start, "a").
			AddEdge("a", "b").
			AddEdge("c", End)
		_, err := g.Compile()
		if code := compileErrCode(t, err); code != CodeInvalidChain {
			t.Errorf("expected %s, got %s", CodeInvalidChain, code)
		}
	})
}

func TestCompileErrorNamesOffender(t *testing.T) {
	g := NewStateGraph[testState]().
		AddNode("a", traceNode("a", Continue())).
		AddEdge(Start, "a").
		AddEdge("a", "ghost").
		AddEdge("ghost", End)

	_, err := g.Compile()
	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CompileError, got %v", err)
	}
	if ce.Node != "ghost" {
		t.Errorf("error should name the offending node, got %q", ce.Node)
	}
}
