package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/meigma/combustion"
	"github.com/meigma/combustion/internal/config"
	"github.com/meigma/combustion/report"
)

func runVerify(args []string, stdout io.Writer) error {
	fs := pflag.NewFlagSet("verify", pflag.ContinueOnError)
	reportPath := fs.String("report", "", "conversion report")
	inputPath := fs.String("input", "", "retail map the report was produced from")
	if help, err := parse(fs, args, stdout); help || err != nil {
		return err
	}
	if *reportPath == "" {
		return errors.New("verify: --report is required")
	}
	if fs.NArg() != 1 {
		return errors.New("verify: exactly one converted map is required")
	}

	raw, err := os.ReadFile(*reportPath)
	if err != nil {
		return err
	}
	rep, err := report.Load(raw)
	if err != nil {
		return err
	}

	out, err := readInput(fs.Arg(0), config.DefaultMaxInputSize)
	if err != nil {
		return fmt.Errorf("read %s: %w", fs.Arg(0), err)
	}
	if err := rep.VerifyOutput(out); err != nil {
		return err
	}
	if *inputPath != "" {
		in, err := readInput(*inputPath, config.DefaultMaxInputSize)
		if err != nil {
			return fmt.Errorf("read %s: %w", *inputPath, err)
		}
		if err := rep.VerifyInput(in); err != nil {
			return err
		}
	}

	totals := rep.Totals()
	fmt.Fprintf(stdout, "%s: ok (%s)\n", fs.Arg(0), rep.Output)
	for _, a := range []combustion.Action{
		combustion.ActionPassthrough,
		combustion.ActionMatched,
		combustion.ActionRepacked,
		combustion.ActionSkipped,
	} {
		fmt.Fprintf(stdout, "  %s: %d\n", a, totals[a])
	}
	return nil
}
