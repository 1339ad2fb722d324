package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/discochess/omfile/internal/builder"
)

var infoCmd = &cobra.Command{
	Use:   "info NAME",
	Short: "Show the stored shape of an array",
	Long: `Open a container and print its array name, data type, dimensions
and chunk dimensions. NAME is an array name from the manifest or a
container file name.`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	op, err := newOpener(ctx)
	if err != nil {
		return err
	}
	defer op.Close()

	r, err := op.Open(ctx, args[0])
	if err != nil {
		return fmt.Errorf("opening %s: %w", args[0], err)
	}
	defer r.Close()

	fmt.Printf("Name:       %s\n", r.Name())
	fmt.Printf("Type:       %s\n", r.DataType())
	fmt.Printf("Dimensions: %s\n", formatDims(r.Dimensions()))
	fmt.Printf("Chunks:     %s\n", formatDims(r.ChunkDimensions()))
	fmt.Printf("Size:       %s\n", builder.FormatBytes(int64(r.Size())))
	fmt.Printf("Codec:      %s\n", r.Codec())
	return nil
}
