// Command normalize runs one record through a pipeline and prints the
// canonical record, or a failure report and exit status 1.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"catalognorm/internal/app"
	"catalognorm/internal/config"
	"catalognorm/internal/logging"
	"catalognorm/internal/pipeline"
	"catalognorm/internal/record"
	"catalognorm/internal/secrets"
	"catalognorm/internal/util/jsonutil"
)

func main() {
	name := flag.String("pipeline", app.PipelineStandardize, "pipeline to run: standardize|inventory")
	in := flag.String("in", "", "input file (default stdin)")
	flag.Parse()

	os.Exit(run(*name, *in, os.Stdout))
}

func run(name, in string, stdout io.Writer) int {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	defer func() { _ = logger.Sync() }()

	raw, err := readInput(in)
	if err != nil {
		logger.Error("failed to read input", zap.Error(err))
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger, secrets.EnvSource{})
	if err != nil {
		logger.Error("failed to initialize app", zap.Error(err))
		return 2
	}
	defer func() { _ = a.Close() }()

	t, ok := a.Transformer(name)
	if !ok {
		logger.Error("unknown pipeline", zap.String("pipeline", name))
		return 2
	}

	out, err := t.Run(ctx, record.RawRecord(raw))
	if err != nil {
		_ = emit(stdout, pipeline.FailureFrom(err))
		return 1
	}
	if out.Fallback != nil {
		logger.Warn("price left unconverted",
			zap.String("objectID", out.Fallback.ObjectID),
			zap.String("currency", out.Fallback.Currency),
			zap.String("reason", out.Fallback.Reason))
	}
	if err := emit(stdout, out.Record); err != nil {
		logger.Error("failed to write output", zap.Error(err))
		return 2
	}
	return 0
}

func emit(w io.Writer, v any) error {
	b, err := jsonutil.MarshalNoEscape(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
