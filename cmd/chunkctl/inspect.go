package main

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	chunkfile "chunky/chunk/file"
	"chunky/arena"
	"chunky/ident"
	"chunky/multiarena"
	"chunky/queue"
)

func newInspectCmd(logger *slog.Logger) *cobra.Command {
	var kind string
	var rootIdent string
	var chunkSize int
	var itemSize int
	var baseSize int

	cmd := &cobra.Command{
		Use:   "inspect <dir>",
		Short: "Print the persisted layout of a collection in a chunky directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			storage, err := chunkfile.New(chunkfile.Config{Dir: dir, Logger: logger})
			if err != nil {
				return fmt.Errorf("open %q: %w", dir, err)
			}
			defer storage.Close()

			id := ident.New(rootIdent)
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			defer w.Flush()

			switch kind {
			case "arena":
				a, err := arena.New(id, chunkSize, itemSize, storage)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "kind\tarena\n")
				fmt.Fprintf(w, "ident\t%s\n", id)
				fmt.Fprintf(w, "len\t%d\n", a.Len())
			case "queue":
				q, err := queue.New(id, chunkSize, storage)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "kind\tqueue\n")
				fmt.Fprintf(w, "ident\t%s\n", id)
				fmt.Fprintf(w, "len\t%d\n", q.Len())
			case "multiarena":
				m, err := multiarena.New(id, chunkSize, baseSize, storage)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "kind\tmultiarena\n")
				fmt.Fprintf(w, "ident\t%s\n", id)
				for _, binLen := range m.PopulatedBinIndicesAndLens() {
					fmt.Fprintf(w, "bin[%d]\t%d\n", binLen[0], binLen[1])
				}
			default:
				return fmt.Errorf("unknown kind %q, want arena, queue, or multiarena", kind)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "arena", "collection kind: arena, queue, or multiarena")
	cmd.Flags().StringVar(&rootIdent, "ident", "", "root identifier of the collection (required)")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 4096, "chunk size in bytes, as originally created")
	cmd.Flags().IntVar(&itemSize, "item-size", 8, "item size in bytes, for --kind arena")
	cmd.Flags().IntVar(&baseSize, "base-size", 8, "base bin item size, for --kind multiarena")
	cmd.MarkFlagRequired("ident")

	return cmd
}
