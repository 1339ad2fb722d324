package main

import (
	"encoding/binary"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/discochess/omfile"
	"github.com/discochess/omfile/internal/builder"
)

var compressCmd = &cobra.Command{
	Use:   "compress FILE",
	Short: "Measure the integer codec on a raw uint16 file",
	Long: `Compress a raw little-endian uint16 file with the delta bit-packing
integer codec, decompress it again and report the ratio and timings.
The round trip must reproduce the input exactly.`,
	Args: cobra.ExactArgs(1),
	RunE: runCompress,
}

var compressOutput string

func init() {
	compressCmd.Flags().StringVarP(&compressOutput, "output", "o", "", "write the compressed bytes to this file")
	rootCmd.AddCommand(compressCmd)
}

func runCompress(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	if len(raw)%2 != 0 {
		return fmt.Errorf("input is %d bytes, not a whole number of uint16 values", len(raw))
	}
	values := make([]uint16, len(raw)/2)
	for i := range values {
		values[i] = binary.LittleEndian.Uint16(raw[2*i:])
	}

	c := omfile.NewCompressor(
		omfile.WithCapacity(len(values)),
		omfile.WithCompressorStats(collector),
	)
	defer c.Close()

	if err := c.SetData(values); err != nil {
		return err
	}

	start := time.Now()
	packed, err := c.Compress()
	if err != nil {
		return err
	}
	compressTime := time.Since(start)

	start = time.Now()
	unpacked, err := c.Decompress(len(values))
	if err != nil {
		return err
	}
	decompressTime := time.Since(start)

	if !slices.Equal(unpacked, values) {
		return fmt.Errorf("round trip mismatch")
	}

	if compressOutput != "" {
		if err := os.WriteFile(compressOutput, packed, 0644); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
	}

	fmt.Printf("Values:     %d\n", len(values))
	fmt.Printf("Input:      %s\n", builder.FormatBytes(int64(len(raw))))
	fmt.Printf("Output:     %s\n", builder.FormatBytes(int64(len(packed))))
	fmt.Printf("Ratio:      %.2fx\n", float64(len(raw))/float64(len(packed)))
	fmt.Printf("Compress:   %s\n", compressTime)
	fmt.Printf("Decompress: %s\n", decompressTime)
	return nil
}
