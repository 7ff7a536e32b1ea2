package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/dshills/Vectra/internal/config"
	"github.com/dshills/Vectra/internal/log"
	"github.com/dshills/Vectra/internal/sql/exec"
	"github.com/dshills/Vectra/internal/sql/types"
)

var (
	version = "0.1.0"
	commit  = "unknown"
)

func main() {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
		parquetFile = flag.String("parquet", "", "Parquet file to read (omit to run the built-in demo rows)")
		columnSpec  = flag.String("columns", "", "Projected columns as name:type pairs, e.g. id:bigint,name:text")
		limit       = flag.Int64("limit", 10, "DISTINCT LIMIT row count")
		logLevel    = flag.String("log-level", "", "Log level (debug, info, warn, error)")
	)

	flag.Parse()

	if *showVersion {
		fmt.Printf("Vectra v%s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	cfg := config.DefaultConfig()
	if *configFile != "" {
		var err error
		cfg, err = config.LoadFromFile(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config file: %v\n", err)
			os.Exit(1)
		}
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	log.Configure(log.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if err := run(cfg, *parquetFile, *columnSpec, *limit); err != nil {
		log.Error("query failed", "error", err.Error())
		os.Exit(1)
	}
}

func run(cfg *config.Config, parquetFile, columnSpec string, limit int64) error {
	governor := exec.NewMemoryGovernor(cfg.Executor.MemoryCeiling)
	execCtx := exec.NewExecContext(governor, log.Default())

	source, channelTypes, columns, err := buildSource(execCtx, cfg, parquetFile, columnSpec)
	if err != nil {
		return err
	}

	factory, err := exec.NewDistinctLimitOperatorFactory(1, channelTypes, limit)
	if err != nil {
		return err
	}
	defer factory.Close()

	distinct, err := factory.CreateOperator(execCtx)
	if err != nil {
		return err
	}

	driver, err := exec.NewDriver(execCtx, source, distinct)
	if err != nil {
		return err
	}

	fmt.Println(strings.Join(columns, "\t"))
	rowCount := 0
	err = driver.Run(context.Background(), func(b *exec.Batch) error {
		cursors := make([]*exec.Cursor, b.ChannelCount())
		for i := range cursors {
			cursors[i] = b.Cursor(i)
		}
		for cursors[0].Advance() {
			fields := make([]string, len(cursors))
			fields[0] = cursors[0].Value().String()
			for i, cur := range cursors[1:] {
				cur.Advance()
				fields[i+1] = cur.Value().String()
			}
			fmt.Println(strings.Join(fields, "\t"))
			rowCount++
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info("query complete",
		"rows", rowCount,
		"memory_peak", humanize.IBytes(uint64(governor.Peak())),
	)
	return nil
}

func buildSource(execCtx *exec.ExecContext, cfg *config.Config, parquetFile, columnSpec string) (exec.Operator, []types.DataType, []string, error) {
	if parquetFile == "" {
		// Built-in demo rows with plenty of duplicates.
		columns := []string{"region", "code"}
		channelTypes := []types.DataType{types.Text, types.BigInt}
		regions := []string{"north", "south", "east", "west"}
		rows := make([][]types.Value, 0, 64)
		for i := 0; i < 64; i++ {
			rows = append(rows, []types.Value{
				types.NewValue(regions[i%len(regions)]),
				types.NewValue(int64(i % 6)),
			})
		}
		source, err := exec.NewValuesOperator(execCtx.RegisterStage(0, "ValuesOperator"),
			channelTypes, rows, cfg.Executor.VectorSize)
		return source, channelTypes, columns, err
	}

	columns, channelTypes, err := parseColumnSpec(columnSpec)
	if err != nil {
		return nil, nil, nil, err
	}
	source, err := exec.NewParquetScanOperator(execCtx.RegisterStage(0, "ParquetScanOperator"),
		columns, channelTypes, parquetFile, cfg.Executor.VectorSize)
	return source, channelTypes, columns, err
}

func parseColumnSpec(spec string) ([]string, []types.DataType, error) {
	if spec == "" {
		return nil, nil, fmt.Errorf("-columns is required when reading a parquet file")
	}

	var columns []string
	var channelTypes []types.DataType
	for _, part := range strings.Split(spec, ",") {
		name, typeName, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			return nil, nil, fmt.Errorf("invalid column spec %q, want name:type", part)
		}
		dt, err := typeByName(typeName)
		if err != nil {
			return nil, nil, err
		}
		columns = append(columns, name)
		channelTypes = append(channelTypes, dt)
	}
	return columns, channelTypes, nil
}

func typeByName(name string) (types.DataType, error) {
	switch strings.ToLower(name) {
	case "boolean", "bool":
		return types.Boolean, nil
	case "integer", "int":
		return types.Integer, nil
	case "bigint", "int64":
		return types.BigInt, nil
	case "double", "float64":
		return types.Double, nil
	case "text", "string", "varchar":
		return types.Text, nil
	case "bytea", "bytes":
		return types.Bytea, nil
	default:
		return nil, fmt.Errorf("unknown column type %q", name)
	}
}
