package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/patchwork/internal/errors"
	"github.com/vango-dev/patchwork/pkg/dom"
	"github.com/vango-dev/patchwork/pkg/protocol"
	"github.com/vango-dev/patchwork/pkg/remote"
)

func decodeCmd() *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:   "decode <recording>",
		Short: "Print a recorded protocol stream",
		Long: `Decode reads protocol frames from a file ("-" for stdin), joins
chunked messages and prints every message.

With --apply the snapshot and mutation batches are replayed into
an in-memory replica and its HTML is printed at the end.

Examples:
  patchwork diff app.yaml --out session.bin
  patchwork decode session.bin --apply`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				file, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer file.Close()
				r = file
			}

			var replica *remote.Replica
			if apply {
				replica = remote.NewReplica(dom.NewDocument(), nil)
			}
			w := cmd.OutOrStdout()
			if err := decodeStream(r, w, replica); err != nil {
				return err
			}
			if replica != nil {
				fmt.Fprintln(w, replica.Document().HTML())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "Replay the stream into a replica and print its HTML")

	return cmd
}

// decodeStream prints every message in r. Malformed input is a P001
// diagnostic naming the message offset.
func decodeStream(r io.Reader, w io.Writer, replica *remote.Replica) error {
	var (
		asm protocol.Reassembler
		msg int
	)
	for {
		fr, err := protocol.ReadFrame(r)
		if stderrors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return malformedFrame(msg, err)
		}
		ft, payload, done, err := asm.Add(fr)
		if err != nil {
			return malformedFrame(msg, err)
		}
		if !done {
			continue
		}
		if err := printMessage(w, ft, payload, replica); err != nil {
			return malformedFrame(msg, err)
		}
		msg++
	}
}

func printMessage(w io.Writer, ft protocol.FrameType, payload []byte, replica *remote.Replica) error {
	switch ft {
	case protocol.FrameSnapshot, protocol.FrameMutations:
		mf, err := protocol.DecodeMutations(payload)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s seq=%d (%d mutations)\n", ft, mf.Seq, len(mf.Mutations))
		for _, m := range mf.Mutations {
			fmt.Fprintf(w, "  %s\n", m)
		}
		if replica == nil {
			return nil
		}
		if ft == protocol.FrameSnapshot {
			return replica.ApplySnapshot(mf)
		}
		return replica.Apply(mf)
	case protocol.FrameHello:
		h, err := protocol.DecodeHello(payload)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s client=%s seq=%d\n", ft, h.ClientID, h.Seq)
	case protocol.FrameControl:
		c, err := protocol.DecodeControl(payload)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s %s\n", ft, c.Type)
	case protocol.FrameError:
		em, err := protocol.DecodeErrorMessage(payload)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s %s\n", ft, em.Error())
	default:
		return fmt.Errorf("unknown frame type %#x", uint8(ft))
	}
	return nil
}

func malformedFrame(msg int, err error) *errors.Error {
	return errors.New("P001").
		WithDetailf("message %d: %v", msg, err).
		WithSuggestion("Record streams with \"patchwork diff --out\"").
		Wrap(err)
}
