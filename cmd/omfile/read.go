package main

import (
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/discochess/omfile"
)

var readCmd = &cobra.Command{
	Use:   "read NAME",
	Short: "Read a box of values from an array",
	Long: `Read the box [start, end) from an array and print the values in
row-major order. Only chunks overlapping the box are fetched.

Examples:
  # First time step of a 24x721x1440 grid, 10x10 cells
  omfile read t2m --start 0,100,200 --end 1,110,210

  # Print min, max, mean and standard deviation instead of values
  omfile read t2m --start 0,0,0 --end 24,721,1440 --summary`,
	Args: cobra.ExactArgs(1),
	RunE: runRead,
}

var (
	readStart   string
	readEnd     string
	readSummary bool
	readTiming  bool
	ioSizeMax   uint64
	ioSizeMerge uint64
)

func init() {
	readCmd.Flags().StringVar(&readStart, "start", "", "comma-separated start index per dimension")
	readCmd.Flags().StringVar(&readEnd, "end", "", "comma-separated exclusive end index per dimension")
	readCmd.Flags().BoolVar(&readSummary, "summary", false, "print summary statistics instead of values")
	readCmd.Flags().BoolVar(&readTiming, "timing", false, "show read timing")
	readCmd.Flags().Uint64Var(&ioSizeMax, "io-size-max", 0, "largest merged fetch in bytes (0 = engine default)")
	readCmd.Flags().Uint64Var(&ioSizeMerge, "io-size-merge", 0, "largest gap merged between fetches in bytes (0 = engine default)")
	readCmd.MarkFlagRequired("start")
	readCmd.MarkFlagRequired("end")
	rootCmd.AddCommand(readCmd)
}

func runRead(cmd *cobra.Command, args []string) error {
	ranges, err := parseRanges(readStart, readEnd)
	if err != nil {
		return err
	}

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

	start := time.Now()
	values, err := readFloat64(r, ranges, omfile.WithIOSizeMax(ioSizeMax), omfile.WithIOSizeMerge(ioSizeMerge))
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}
	elapsed := time.Since(start)

	if readSummary {
		printSummary(values)
	} else {
		for _, v := range values {
			fmt.Println(v)
		}
	}
	if readTiming {
		fmt.Printf("Time:   %s\n", elapsed)
	}
	return nil
}

// readFloat64 reads ranges in the stored type and widens the values.
func readFloat64(r *omfile.Reader, ranges []omfile.Range, opts ...omfile.DecodeOption) ([]float64, error) {
	switch r.DataType() {
	case omfile.DataTypeInt8:
		return widen[int8](omfile.Read[int8](r, ranges, opts...))
	case omfile.DataTypeUint8:
		return widen[uint8](omfile.Read[uint8](r, ranges, opts...))
	case omfile.DataTypeInt16:
		return widen[int16](omfile.Read[int16](r, ranges, opts...))
	case omfile.DataTypeUint16:
		return widen[uint16](omfile.Read[uint16](r, ranges, opts...))
	case omfile.DataTypeInt32:
		return widen[int32](omfile.Read[int32](r, ranges, opts...))
	case omfile.DataTypeUint32:
		return widen[uint32](omfile.Read[uint32](r, ranges, opts...))
	case omfile.DataTypeInt64:
		return widen[int64](omfile.Read[int64](r, ranges, opts...))
	case omfile.DataTypeUint64:
		return widen[uint64](omfile.Read[uint64](r, ranges, opts...))
	case omfile.DataTypeFloat32:
		return widen[float32](omfile.Read[float32](r, ranges, opts...))
	case omfile.DataTypeFloat64:
		return omfile.Read[float64](r, ranges, opts...)
	default:
		return nil, fmt.Errorf("cannot print values of type %s", r.DataType())
	}
}

func widen[T omfile.Numeric](values []T, err error) ([]float64, error) {
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out, nil
}

// summarize drops NaN fill values and describes the rest.
func summarize(values []float64) (n int, minV, maxV, mean, std float64) {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return 0, math.NaN(), math.NaN(), math.NaN(), math.NaN()
	}
	mean, std = stat.MeanStdDev(finite, nil)
	return len(finite), floats.Min(finite), floats.Max(finite), mean, std
}

func printSummary(values []float64) {
	n, minV, maxV, mean, std := summarize(values)
	fmt.Printf("Values: %d (%d NaN)\n", len(values), len(values)-n)
	fmt.Printf("Min:    %g\n", minV)
	fmt.Printf("Max:    %g\n", maxV)
	fmt.Printf("Mean:   %g\n", mean)
	fmt.Printf("StdDev: %g\n", std)
}
