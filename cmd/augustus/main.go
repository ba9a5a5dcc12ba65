package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/modelop/augustus/pkg/avroschema"
	"github.com/modelop/augustus/pkg/avrostream"
	"github.com/modelop/augustus/pkg/columnar"
	"github.com/modelop/augustus/pkg/json"
	"github.com/modelop/augustus/pkg/logger"
	"github.com/modelop/augustus/pkg/streamconfig"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load() // Ignore error if .env doesn't exist

	var logLevel string

	root := &cobra.Command{
		Use:   "augustus",
		Short: "Augustus - projected column extraction from Avro container files",
		Long: `Augustus reads Avro object container files and extracts a chosen subset
of fields into flat typed columns, processed in bounded-size batches.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logger.Init(logger.Config{
				Level:    logLevel,
				Encoding: "console",
			})
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", envOr("AUGUSTUS_LOG_LEVEL", "warn"), "log level (debug, info, warn, error)")

	// Version command
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Augustus v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(schemaCommand())
	root.AddCommand(extractCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// schemaCommand prints the schema embedded in a container file
func schemaCommand() *cobra.Command {
	var pretty bool

	cmd := &cobra.Command{
		Use:   "schema <file>",
		Short: "Print the schema embedded in a container file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cursor, err := avrostream.NewCursor(args[0])
			if err != nil {
				return err
			}
			defer cursor.Close()

			schema, err := avroschema.Parse(cursor.SchemaJSON())
			if err != nil {
				return err
			}

			rendered := schema.JSON()
			if pretty {
				var doc interface{}
				if err := json.Unmarshal([]byte(rendered), &doc); err == nil {
					if indented, err := json.MarshalIndent(doc, "", "  "); err == nil {
						rendered = string(indented)
					}
				}
			}

			fmt.Println(rendered)
			return nil
		},
	}

	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent the schema output")
	return cmd
}

// extractCommand pulls projected columns out of a container file as CSV
func extractCommand() *cobra.Command {
	var (
		configPath string
		outputPath string
		capacity   int
	)

	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Extract projected columns from a container file as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := streamconfig.Load(configPath)
			if err != nil {
				return err
			}
			specs, err := cfg.Specs()
			if err != nil {
				return err
			}
			if capacity > 0 {
				cfg.Capacity = capacity
			}

			stream, err := avrostream.Open(args[0], cfg.Capacity, specs)
			if err != nil {
				return err
			}
			defer stream.Close()

			out := os.Stdout
			if outputPath != "" {
				out, err = os.Create(outputPath) //nolint:gosec // G304: output path is user-specified
				if err != nil {
					return err
				}
				defer out.Close()
			}

			return writeCSV(out, stream, specs)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "projection configuration file (required)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file (default stdout)")
	cmd.Flags().IntVar(&capacity, "capacity", 0, "override the batch capacity")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

// writeCSV drives the stream to exhaustion and writes one CSV row per record
func writeCSV(out *os.File, stream *avrostream.Stream, specs []avrostream.ProjectionSpec) error {
	writer := csv.NewWriter(out)
	defer writer.Flush()

	header := make([]string, len(specs))
	for i, spec := range specs {
		header[i] = spec.Name
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	var total int64
	row := make([]string, len(specs))
	for {
		batch, err := stream.Next()
		if err != nil {
			return err
		}
		rows := batch.Rows()
		if rows == 0 {
			break
		}

		for r := 0; r < rows; r++ {
			for i, spec := range specs {
				row[i] = cellString(batch[spec.Name], r)
			}
			if err := writer.Write(row); err != nil {
				return err
			}
		}
		total += int64(rows)
	}

	logger.Info("extraction complete", zap.Int64("records", total))
	return nil
}

// cellString renders one column cell for CSV output
func cellString(col columnar.Column, i int) string {
	switch v := col.Get(i).(type) {
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
