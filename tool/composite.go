package tool

import (
	"context"
	"fmt"
)

// CompositeSource merges several sources into one catalog.
//
// ListTools concatenates the member catalogs in order. Calls are routed to
// the first member advertising the tool name; the routing table is built
// lazily on first use per call. Call context is fanned out to every member
// that accepts it.
type CompositeSource struct {
	sources []Source
}

// NewCompositeSource creates a CompositeSource over the given members.
func NewCompositeSource(sources ...Source) *CompositeSource {
	return &CompositeSource{sources: sources}
}

// ListTools concatenates member catalogs (implements Source).
func (c *CompositeSource) ListTools(ctx context.Context) ([]Spec, error) {
	var specs []Spec
	for _, src := range c.sources {
		s, err := src.ListTools(ctx)
		if err != nil {
			return nil, err
		}
		specs = append(specs, s...)
	}
	return specs, nil
}

// CallTool routes to the member that owns the tool (implements Source).
func (c *CompositeSource) CallTool(ctx context.Context, name string, args map[string]any) (Content, error) {
	src, err := c.route(ctx, name)
	if err != nil {
		return Content{}, err
	}
	return src.CallTool(ctx, name, args)
}

// CallToolWithContext routes with call context (implements ContextualSource).
func (c *CompositeSource) CallToolWithContext(ctx context.Context, name string, args map[string]any, callCtx *CallContext) (Content, error) {
	src, err := c.route(ctx, name)
	if err != nil {
		return Content{}, err
	}
	if cs, ok := src.(ContextualSource); ok {
		return cs.CallToolWithContext(ctx, name, args, callCtx)
	}
	return src.CallTool(ctx, name, args)
}

// SetCallContext fans the context out to members (implements ContextSetter).
func (c *CompositeSource) SetCallContext(callCtx *CallContext) {
	for _, src := range c.sources {
		if setter, ok := src.(ContextSetter); ok {
			setter.SetCallContext(callCtx)
		}
	}
}

func (c *CompositeSource) route(ctx context.Context, name string) (Source, error) {
	for _, src := range c.sources {
		specs, err := src.ListTools(ctx)
		if err != nil {
			return nil, err
		}
		for _, spec := range specs {
			if spec.Name == name {
				return src, nil
			}
		}
	}
	return nil, &SourceError{Tool: name, Message: fmt.Sprintf("no source offers tool %q", name)}
}
