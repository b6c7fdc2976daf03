package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/patchwork/internal/config"
	"github.com/vango-dev/patchwork/internal/snapshot"
	"github.com/vango-dev/patchwork/internal/treefile"
	"github.com/vango-dev/patchwork/pkg/dom"
)

func renderCmd(flags *globalFlags) *cobra.Command {
	var (
		frame  int
		pretty bool
		upload bool
	)

	cmd := &cobra.Command{
		Use:   "render <tree-file>",
		Short: "Print the HTML of a frame",
		Long: `Render patches every frame up to the selected one into an
in-memory document and prints the resulting HTML.

Frames are patched in order, so the output reflects the
reconciled tree rather than a fresh render.

Examples:
  patchwork render app.yaml
  patchwork render app.yaml --frame 2 --pretty
  patchwork render app.yaml --upload`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := flags.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			f, err := treefile.Load(args[0])
			if err != nil {
				return err
			}
			last, err := frameIndex(f, frame)
			if err != nil {
				return err
			}

			doc := dom.NewDocument()
			p := newPlayer(f, doc, doc.Root(), logger)
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if err := p.playTo(ctx, last); err != nil {
				return err
			}

			opts := dom.Options{Pretty: cfg.Render.Pretty, Indent: cfg.Render.Indent}
			if cmd.Flags().Changed("pretty") {
				opts.Pretty = pretty
			}
			out := cmd.OutOrStdout()
			for _, n := range doc.Root().Children() {
				if err := dom.Write(out, n, opts); err != nil {
					return err
				}
			}
			if !opts.Pretty {
				fmt.Fprintln(out)
			}

			if upload {
				if cfg.Snapshot.Bucket == "" {
					return fmt.Errorf("--upload needs snapshot.bucket in %s", config.ConfigFileName)
				}
				client, err := snapshot.NewClient(ctx, cfg.Snapshot)
				if err != nil {
					return err
				}
				up := snapshot.NewUploader(client, cfg.Snapshot.Bucket,
					snapshot.WithPrefix(cfg.Snapshot.Prefix),
					snapshot.WithLogger(logger),
				)
				key, err := up.Upload(ctx, fmt.Sprintf("frame-%d", last), doc)
				if err != nil {
					return err
				}
				success(cmd.ErrOrStderr(), "Uploaded s3://%s/%s", cfg.Snapshot.Bucket, key)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&frame, "frame", "f", -1, "Frame to render (negative counts from the end)")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Indent the output (default from patchwork.json)")
	cmd.Flags().BoolVar(&upload, "upload", false, "Upload the output to the configured snapshot bucket")

	return cmd
}

// frameIndex resolves a possibly negative frame index against f.
func frameIndex(f *treefile.File, i int) (int, error) {
	n := f.Len()
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("frame %d out of range: %s has %d frames", i, f.Name, n)
	}
	return i, nil
}
