package main

import (
	"context"
	"log/slog"

	"github.com/vango-dev/patchwork/internal/treefile"
	"github.com/vango-dev/patchwork/pkg/modules"
	"github.com/vango-dev/patchwork/pkg/reconcile"
	"github.com/vango-dev/patchwork/pkg/vdom"
)

// target is a rendering target the built-in modules can drive.
type target interface {
	reconcile.NodeOps
	modules.ElementOps
}

// player patches the frames of a tree file into a target, one at a time.
type player struct {
	file   *treefile.File
	loader *treefile.Loader
	host   *treefile.Host
	engine *reconcile.Engine
	refs   *modules.Refs
	root   vdom.Node
	tree   *vdom.VNode
	logger *slog.Logger
}

func newPlayer(f *treefile.File, ops target, root vdom.Node, logger *slog.Logger, opts ...reconcile.Option) *player {
	loader := treefile.NewLoader(f, treefile.WithLogger(logger), treefile.WithHandler(actionLogger(logger)))
	host := treefile.NewHost(loader)
	refs := modules.NewRefs()

	opts = append([]reconcile.Option{
		reconcile.WithComponentHost(host),
		reconcile.WithLogger(logger),
	}, opts...)
	engine := reconcile.New(ops, modules.Default(ops, refs, nil), opts...)
	host.Bind(engine)

	return &player{
		file:   f,
		loader: loader,
		host:   host,
		engine: engine,
		refs:   refs,
		root:   root,
		logger: logger,
	}
}

// step patches the current tree to frame i.
func (p *player) step(ctx context.Context, i int) (reconcile.Stats, error) {
	next, err := p.loader.Frame(i)
	if err != nil {
		return reconcile.Stats{}, err
	}
	_, stats := p.engine.PatchStats(ctx, p.tree, next, p.root)
	p.tree = next
	p.logger.Debug("frame patched", "frame", i, "created", stats.Created, "removed", stats.Removed, "moved", stats.Moved)
	return stats, nil
}

// playTo patches frames 0 through last in order.
func (p *player) playTo(ctx context.Context, last int) error {
	for i := 0; i <= last; i++ {
		if _, err := p.step(ctx, i); err != nil {
			return err
		}
	}
	return nil
}

// reload switches to a new file, keeping the current tree so the next
// step patches against it.
func (p *player) reload(f *treefile.File, ops target, opts ...reconcile.Option) {
	next := newPlayer(f, ops, p.root, p.logger, opts...)
	next.tree = p.tree
	*p = *next
}

func actionLogger(logger *slog.Logger) treefile.Handler {
	return func(action string) func(any) {
		return func(payload any) {
			logger.Info("action", "action", action, "payload", payload)
		}
	}
}
