package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/patchwork/internal/treefile"
	"github.com/vango-dev/patchwork/pkg/dom"
	"github.com/vango-dev/patchwork/pkg/protocol"
	"github.com/vango-dev/patchwork/pkg/remote"
)

func diffCmd(flags *globalFlags) *cobra.Command {
	var (
		from, to int
		out      string
		quiet    bool
	)

	cmd := &cobra.Command{
		Use:   "diff <tree-file>",
		Short: "Print the mutations between two frames",
		Long: `Diff patches the file's frames up to --from, then patches
--to over it and prints the resulting mutation batch.

With --out the snapshot of --from and the batch are also written
as protocol frames, readable with "patchwork decode".

Examples:
  patchwork diff app.yaml
  patchwork diff app.yaml --from 0 --to 3
  patchwork diff app.yaml --out session.bin`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, err := flags.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			f, err := treefile.Load(args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("to") {
				to = from + 1
			}
			if from, err = frameIndex(f, from); err != nil {
				return err
			}
			if to, err = frameIndex(f, to); err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			t := remote.NewTarget(dom.NewDocument())
			p := newPlayer(f, t, t.Root(), logger)
			if err := p.playTo(ctx, from); err != nil {
				return err
			}
			t.Flush(1)
			snap := t.Snapshot(1)

			stats, err := p.step(ctx, to)
			if err != nil {
				return err
			}
			batch := t.Flush(2)
			if batch == nil {
				batch = &protocol.MutationsFrame{Seq: 2}
			}

			w := cmd.OutOrStdout()
			if !quiet {
				for _, m := range batch.Mutations {
					fmt.Fprintln(w, m.String())
				}
			}
			info(w, "frame %d → %d: %d mutations, %d created, %d removed, %d moved, %d text updates",
				from, to, len(batch.Mutations), stats.Created, stats.Removed, stats.Moved, stats.TextUpdates)

			if out != "" {
				if err := writeRecording(out, snap, batch); err != nil {
					return err
				}
				success(w, "Wrote %s", out)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&from, "from", 0, "Frame to diff from")
	cmd.Flags().IntVar(&to, "to", 0, "Frame to diff to (default --from + 1)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the snapshot and batch as protocol frames to this file")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Print only the summary")

	return cmd
}

// writeRecording writes snap as a snapshot message followed by batch as
// a mutations message.
func writeRecording(path string, snap, batch *protocol.MutationsFrame) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeMessages(file, snap, batch); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func writeMessages(w io.Writer, snap, batch *protocol.MutationsFrame) error {
	messages := []struct {
		ft protocol.FrameType
		mf *protocol.MutationsFrame
	}{
		{protocol.FrameSnapshot, snap},
		{protocol.FrameMutations, batch},
	}
	for _, m := range messages {
		for _, fr := range protocol.Chunk(m.ft, protocol.FlagSequenced, protocol.EncodeMutations(m.mf)) {
			if err := protocol.WriteFrame(w, fr); err != nil {
				return err
			}
		}
	}
	return nil
}
