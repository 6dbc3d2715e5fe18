// Command agentgraph is an interactive chat agent over the react runner.
//
// It wires a model provider, the built-in tool sources, and optional SQLite
// persistence into the standard think, act, observe chain. API keys are read
// from the environment (OPENAI_API_KEY, ANTHROPIC_API_KEY, GOOGLE_API_KEY);
// a .env file next to the binary is loaded automatically.
//
// Usage:
//
//	agentgraph -provider openai -thread demo -db agent.db
//	agentgraph -provider mock -stream
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"

	"github.com/dshills/agentgraph/graph/stream"
	"github.com/dshills/agentgraph/memory"
	"github.com/dshills/agentgraph/model"
	"github.com/dshills/agentgraph/model/anthropic"
	"github.com/dshills/agentgraph/model/google"
	"github.com/dshills/agentgraph/model/openai"
	"github.com/dshills/agentgraph/react"
	"github.com/dshills/agentgraph/tool"
)

func main() {
	var (
		provider  = flag.String("provider", "mock", "model provider: mock, openai, anthropic, google")
		modelName = flag.String("model", "", "model name (provider default when empty)")
		threadID  = flag.String("thread", "", "thread ID for conversation persistence")
		dbPath    = flag.String("db", "", "SQLite database path (in-memory persistence when empty)")
		verbose   = flag.Bool("verbose", false, "log node enter/exit lines to stderr")
		streaming = flag.Bool("stream", false, "stream tokens as they arrive")
	)
	flag.Parse()

	if err := run(*provider, *modelName, *threadID, *dbPath, *verbose, *streaming); err != nil {
		fmt.Fprintln(os.Stderr, "agentgraph:", err)
		os.Exit(1)
	}
}

func run(provider, modelName, threadID, dbPath string, verbose, streaming bool) error {
	ctx := context.Background()

	tools, store, cleanup, err := buildTools(dbPath)
	if err != nil {
		return err
	}
	defer cleanup()

	specs, err := tools.ListTools(ctx)
	if err != nil {
		return err
	}

	llm, err := buildClient(ctx, provider, modelName, specs)
	if err != nil {
		return err
	}

	opts := []react.RunnerOption{react.WithStore(store)}
	if verbose {
		opts = append(opts, react.WithVerbose(os.Stderr))
	}
	if threadID != "" {
		saver, closeSaver, err := buildSaver(dbPath)
		if err != nil {
			return err
		}
		defer closeSaver()
		opts = append(opts,
			react.WithCheckpointer(saver),
			react.WithConfig(&memory.RunnableConfig{ThreadID: threadID}))
	}

	runner, err := react.NewRunner(llm, tools, opts...)
	if err != nil {
		return err
	}

	return chatLoop(ctx, runner, streaming)
}

func chatLoop(ctx context.Context, runner *react.Runner, streaming bool) error {
	fmt.Println("agentgraph chat. Type a message, or /quit to exit.")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			return nil
		}

		if streaming {
			_, err := runner.Stream(ctx, line, func(ev stream.Event[react.State]) {
				if ev.Type == stream.EventMessages {
					fmt.Print(ev.Chunk.Content)
				}
			})
			fmt.Println()
			if err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
			}
			continue
		}

		final, err := runner.Invoke(ctx, line)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			continue
		}
		fmt.Println(final.LastMessage().Content)
	}
}

// buildTools assembles the built-in tool sources: the get_time example, the
// short-term memory reader, and long-term memory tools over the store.
func buildTools(dbPath string) (tool.Source, memory.Store, func(), error) {
	var store memory.Store
	cleanup := func() {}

	if dbPath != "" {
		sqlStore, err := memory.NewSQLiteStore(dbPath)
		if err != nil {
			return nil, nil, nil, err
		}
		store = sqlStore
		cleanup = func() { _ = sqlStore.Close() }
	} else {
		store = memory.NewInMemoryStore()
	}

	tools := tool.NewCompositeSource(
		tool.GetTimeExample(),
		tool.NewRecentMessagesSource(),
		tool.NewStoreSource(store, memory.Namespace{"agent", "memories"}),
	)
	return tools, store, cleanup, nil
}

func buildSaver(dbPath string) (memory.Checkpointer[react.State], func(), error) {
	if dbPath == "" {
		return memory.NewMemorySaver[react.State](), func() {}, nil
	}
	saver, err := memory.NewSQLiteSaver[react.State](dbPath)
	if err != nil {
		return nil, nil, err
	}
	return saver, func() { _ = saver.Close() }, nil
}

func buildClient(ctx context.Context, provider, modelName string, specs []tool.Spec) (model.Client, error) {
	switch provider {
	case "mock":
		return model.NewMockClient("(mock) I have no real model behind me."), nil
	case "openai":
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is not set")
		}
		return openai.NewClient(key, modelName, openai.WithTools(specs)), nil
	case "anthropic":
		key := os.Getenv("ANTHROPIC_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is not set")
		}
		return anthropic.NewClient(key, modelName, anthropic.WithTools(specs)), nil
	case "google":
		key := os.Getenv("GOOGLE_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("GOOGLE_API_KEY is not set")
		}
		return google.NewClient(ctx, key, modelName, google.WithTools(specs))
	default:
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
}
