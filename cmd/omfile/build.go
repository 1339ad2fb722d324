package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/discochess/omfile"
	"github.com/discochess/omfile/internal/builder"
	"github.com/discochess/omfile/internal/codec/codecs"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Convert a raw array into a chunked container",
	Long: `Convert a raw little-endian row-major array into a container.

This command will:
1. Download the source (or use a local file); .zst sources are decompressed
2. Split the array into chunks of the given shape
3. Compress the chunks in parallel with the chosen codec
4. Write NAME.om and record it in the output directory's manifest.json

Examples:
  # Build from a local file
  omfile build --source ./t2m.raw --name t2m --dims 24,721,1440 --chunks 6,32,32

  # Build from a URL with snappy chunks
  omfile build --source https://example.com/t2m.raw.zst --name t2m \
    --dims 24,721,1440 --chunks 6,32,32 --codec snappy

  # Build and upload to GCS (for cronjobs). The upload replaces the
  # manifest under the prefix with one listing only this build.
  omfile build --source ./t2m.raw --name t2m --dims 24,721,1440 \
    --chunks 6,32,32 --output-gcs gs://my-bucket/grids`,
	RunE: runBuild,
}

var (
	sourceURL  string
	outputDir  string
	outputGCS  string
	arrayName  string
	typeName   string
	dimsFlag   string
	chunksFlag string
	codecName  string
	workers    int
)

func init() {
	buildCmd.Flags().StringVar(&sourceURL, "source", "", "source URL or local file path")
	buildCmd.Flags().StringVarP(&outputDir, "output", "o", "./data", "output directory for containers (local builds)")
	buildCmd.Flags().StringVar(&outputGCS, "output-gcs", "", "GCS path for output (gs://bucket/prefix)")
	buildCmd.Flags().StringVar(&arrayName, "name", "", "array name stored in the container")
	buildCmd.Flags().StringVar(&typeName, "type", "float32", "element type of the source values")
	buildCmd.Flags().StringVar(&dimsFlag, "dims", "", "comma-separated array dimensions")
	buildCmd.Flags().StringVar(&chunksFlag, "chunks", "", "comma-separated chunk dimensions")
	buildCmd.Flags().StringVar(&codecName, "codec", "zstd", "chunk codec: none, gzip, zstd, snappy, pfor")
	buildCmd.Flags().IntVar(&workers, "workers", 4, "number of parallel workers for compression")
	buildCmd.MarkFlagRequired("source")
	buildCmd.MarkFlagRequired("name")
	buildCmd.MarkFlagRequired("dims")
	buildCmd.MarkFlagRequired("chunks")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	dt, err := omfile.ParseDataType(typeName)
	if err != nil {
		return fmt.Errorf("--type: %w", err)
	}
	dims, err := parseUints(dimsFlag)
	if err != nil {
		return fmt.Errorf("--dims: %w", err)
	}
	chunks, err := parseUints(chunksFlag)
	if err != nil {
		return fmt.Errorf("--chunks: %w", err)
	}
	c, err := codecs.ByName(codecName)
	if err != nil {
		return fmt.Errorf("--codec: %w", err)
	}

	// Check if source is a local file.
	isLocalFile := false
	if _, err := os.Stat(sourceURL); err == nil {
		isLocalFile = true
	}

	// Setup context with cancellation.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			fmt.Println("\nInterrupted, cleaning up...")
			cancel()
		case <-ctx.Done():
		}
	}()

	// Determine output directory.
	localOutput := outputDir
	if outputGCS != "" {
		// Build to temp directory, then upload to GCS.
		tmpDir, err := os.MkdirTemp("", "omfile-build-*")
		if err != nil {
			return fmt.Errorf("creating temp directory: %w", err)
		}
		localOutput = tmpDir
		defer os.RemoveAll(tmpDir)
	} else if err := os.MkdirAll(localOutput, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	b := builder.NewBuilder(
		builder.WithSourceURL(sourceURL),
		builder.WithOutputDir(localOutput),
		builder.WithName(arrayName),
		builder.WithDataType(dt),
		builder.WithDimensions(dims...),
		builder.WithChunks(chunks...),
		builder.WithCodec(c),
		builder.WithWorkers(workers),
		builder.WithProgress(builder.DefaultProgressFunc),
	)

	fmt.Printf("Building container\n")
	fmt.Printf("  Source:     %s\n", sourceURL)
	if outputGCS != "" {
		fmt.Printf("  Output:     %s (via local temp)\n", outputGCS)
	} else {
		fmt.Printf("  Output:     %s\n", localOutput)
	}
	fmt.Printf("  Array:      %s %s %s\n", arrayName, dt, formatDims(dims))
	fmt.Printf("  Chunks:     %s\n", formatDims(chunks))
	fmt.Printf("  Codec:      %s\n", codecName)
	fmt.Printf("  Workers:    %d\n", workers)
	fmt.Println()

	if isLocalFile {
		_, err = b.BuildFromFile(ctx, sourceURL, time.Time{})
	} else {
		err = b.Build(ctx)
	}
	if err != nil {
		return err
	}

	// Upload to GCS if specified.
	if outputGCS != "" {
		fmt.Println()
		fmt.Printf("[Upload] Uploading to %s...\n", outputGCS)

		uploader, err := builder.NewGCSUploader(ctx, outputGCS)
		if err != nil {
			return fmt.Errorf("creating GCS uploader: %w", err)
		}
		defer uploader.Close()

		if err := uploader.Upload(ctx, localOutput, builder.DefaultProgressFunc); err != nil {
			return fmt.Errorf("uploading to GCS: %w", err)
		}

		fmt.Println("[Upload] Done")
	}

	return nil
}
