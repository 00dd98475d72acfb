package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"vulnforest/pipeline"
)

const menuText = `
=== VULNERABILITY CLASSIFIER ===
1. Train model
2. Predict example
3. Exit
Choose an option: `

// runMenu loops until option 3 or end of input. Action errors are printed and the loop continues.
func runMenu(e *env, in *bufio.Scanner, out io.Writer, term Terminal) error {
	for {
		term.Clear()
		fmt.Fprint(out, menuText)
		if !in.Scan() {
			fmt.Fprintln(out)
			return in.Err()
		}

		switch strings.TrimSpace(in.Text()) {
		case "1":
			term.Clear()
			fmt.Fprintln(out, "\nTraining model...")
			if err := trainDefault(e, out); err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
			}
			term.Pause()
		case "2":
			term.Clear()
			fmt.Fprintln(out, "\nRunning prediction...")
			if err := predictDefault(e, out); err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
			}
			term.Pause()
		case "3":
			term.Clear()
			fmt.Fprintln(out, "Exiting...")
			return nil
		default:
			fmt.Fprintln(out, "\nInvalid option. Choose 1, 2 or 3.")
			term.Pause()
		}
	}
}

func trainDefault(e *env, out io.Writer) error {
	cfg := e.cfg
	summary, err := e.trainer().Run(cfg.Data.TrainPath, cfg.Data.TestPath, cfg.Model.Path, cfg.Output.PredictionsPath)
	if err != nil {
		return err
	}
	e.cache.Invalidate(cfg.Model.Path)
	printSummary(out, summary)
	return nil
}

func predictDefault(e *env, out io.Writer) error {
	report, err := e.inference().Run(e.cfg.Model.Path, e.cfg.Data.ExamplePath)
	if err != nil {
		return err
	}
	printReport(out, report)
	return nil
}

func prepareDefault(e *env, out io.Writer) error {
	cfg := e.cfg
	summary, err := pipeline.NewPreparer(cfg, e.logger).Run(cfg.Data.RawPath, cfg.Data.TrainPath, cfg.Data.TestPath)
	if err != nil {
		return err
	}
	printPrepareSummary(out, summary)
	return nil
}
