package main

import (
	"encoding/binary"
	"fmt"
	"log/slog"

	petname "github.com/dustinkirkland/golang-petname"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"chunky/arena"
	chunkfile "chunky/chunk/file"
	"chunky/ident"
	"chunky/multiarena"
	"chunky/queue"
)

func newDemoCmd(logger *slog.Logger) *cobra.Command {
	var count int
	var fresh bool

	cmd := &cobra.Command{
		Use:   "demo <dir>",
		Short: "Populate a throwaway arena, queue, and multiarena with sample data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			storage, err := chunkfile.New(chunkfile.Config{Dir: dir, Logger: logger})
			if err != nil {
				return err
			}
			defer storage.Close()

			root := ident.New("demo")
			if fresh {
				root = ident.New(uuid.NewString())
			}

			a, err := arena.New(root.Sub("arena"), 4096, 8, storage)
			if err != nil {
				return err
			}
			q, err := queue.New(root.Sub("queue"), 4096, storage)
			if err != nil {
				return err
			}
			m, err := multiarena.New(root.Sub("multiarena"), 4096, 8, storage)
			if err != nil {
				return err
			}

			for i := 0; i < count; i++ {
				name := petname.Generate(2, "-")

				buf, _, err := a.Push()
				if err != nil {
					return err
				}
				binary.LittleEndian.PutUint64(buf, uint64(len(name)))

				payload, err := q.Enqueue(len(name))
				if err != nil {
					return err
				}
				copy(payload, name)

				record, _, err := m.Push(len(name))
				if err != nil {
					return err
				}
				copy(record, name)

				fmt.Printf("added sample %q\n", name)
			}

			fmt.Printf("arena len=%d queue len=%d multiarena bins=%v\n", a.Len(), q.Len(), m.PopulatedBinIndicesAndLens())
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 5, "number of sample items to add")
	cmd.Flags().BoolVar(&fresh, "fresh", false, "use a random uuid namespace instead of the fixed demo_ idents")

	return cmd
}
