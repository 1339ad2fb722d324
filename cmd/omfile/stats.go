package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/discochess/omfile"
	"github.com/discochess/omfile/internal/builder"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show statistics about the containers in the manifest",
	Long: `Display statistics about the built containers including:
- Number of arrays
- Total size on disk
- Compression ratio per array`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	op, err := newOpener(cmd.Context())
	if err != nil {
		return err
	}
	defer op.Close()

	m := op.Manifest()
	if m == nil || len(m.Arrays) == 0 {
		fmt.Println("No arrays found in manifest.")
		fmt.Println("Run 'omfile build' to create a container.")
		return nil
	}

	var totalSize int64
	for _, a := range m.Arrays {
		totalSize += a.Size
	}

	fmt.Printf("Arrays:     %d\n", len(m.Arrays))
	fmt.Printf("Total size: %s\n", builder.FormatBytes(totalSize))
	if !m.BuiltAt.IsZero() {
		fmt.Printf("Built:      %s\n", m.BuiltAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Println()
	for _, a := range m.Arrays {
		fmt.Printf("  %-20s %-8s %-6s %-16s %10s  %.2fx\n",
			a.Name, a.DataType, a.Codec, formatDims(a.Dimensions),
			builder.FormatBytes(a.Size), ratio(a))
	}
	return nil
}

// ratio returns raw size over container size.
func ratio(a builder.Array) float64 {
	if a.Size == 0 {
		return 0
	}
	dt, err := omfile.ParseDataType(a.DataType)
	if err != nil {
		return 0
	}
	raw := dt.Size()
	for _, d := range a.Dimensions {
		raw *= d
	}
	return float64(raw) / float64(a.Size)
}
