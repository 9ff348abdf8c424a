package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/scopeview/pkg/cache"
	"github.com/matzehuels/scopeview/pkg/errors"
	scopeio "github.com/matzehuels/scopeview/pkg/io"
	"github.com/matzehuels/scopeview/pkg/observability"
	"github.com/matzehuels/scopeview/pkg/render"
	"github.com/matzehuels/scopeview/pkg/render/nodelink"
)

// Render writes the built scope info of g in every requested format.
func Render(ctx context.Context, g *render.GraphInfo, info *render.NodeInfo, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}
	if info == nil || info.Group == nil {
		return nil, errors.New(errors.ErrCodeInternal, "render of a scope that was not built")
	}
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()

	artifacts, err := renderFormats(ctx, g, info, opts)

	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	return artifacts, err
}

func renderFormats(ctx context.Context, g *render.GraphInfo, info *render.NodeInfo, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))

	var dot string
	for _, format := range opts.Formats {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var data []byte
		var err error

		switch format {
		case FormatJSON:
			var buf bytes.Buffer
			err = scopeio.WriteScopeJSON(g, info.Name(), &buf)
			data = buf.Bytes()
		case FormatDOT:
			if dot == "" {
				dot = nodelink.ToDOT(g, info, opts.NodelinkOptions())
			}
			data = []byte(dot)
		case FormatSVG:
			if dot == "" {
				dot = nodelink.ToDOT(g, info, opts.NodelinkOptions())
			}
			data, err = renderSVG(ctx, dot, opts)
		default:
			return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

// renderSVG lays out dot with Graphviz, going through opts.Cache when set.
// Cache failures are logged and fall back to rendering.
func renderSVG(ctx context.Context, dot string, opts Options) ([]byte, error) {
	if opts.Cache == nil {
		return nodelink.RenderSVG(ctx, dot)
	}
	keyer := opts.Keyer
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	key := keyer.ArtifactKey(FormatSVG, cache.Hash([]byte(dot)))

	data, ok, err := opts.Cache.Get(ctx, key)
	switch {
	case err != nil:
		opts.Logger.Warn("read svg cache", "err", err)
	case ok:
		opts.Logger.Debug("svg cache hit", "key", key)
		return data, nil
	}

	data, err = nodelink.RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	if err := opts.Cache.Set(ctx, key, data, cache.DefaultTTL); err != nil {
		opts.Logger.Warn("write svg cache", "err", err)
	}
	return data, nil
}
