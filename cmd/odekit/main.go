package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/odekit/internal/config"
	"github.com/san-kum/odekit/internal/driver"
	"github.com/san-kum/odekit/internal/export"
	"github.com/san-kum/odekit/internal/ode"
	"github.com/san-kum/odekit/internal/problems"
	"github.com/san-kum/odekit/internal/viz"
)

var (
	methodName string
	atol       float64
	rtol       float64
	hMax       float64
	duration   float64
	configFile string
	exportPath string
	component  int
	numRuns    int
	spread     float64
	frameRate  int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "odekit",
		Short: "adaptive ODE/DAE integration lab",
	}

	runCmd := &cobra.Command{
		Use:   "run [problem]",
		Short: "integrate a demo problem and plot the trajectory",
		Args:  cobra.ExactArgs(1),
		RunE:  runProblem,
	}
	runCmd.Flags().StringVar(&methodName, "method", config.DefaultMethod, "step method (rk45|bdf|radau)")
	runCmd.Flags().Float64Var(&atol, "atol", config.DefaultAtol, "absolute tolerance")
	runCmd.Flags().Float64Var(&rtol, "rtol", config.DefaultRtol, "relative tolerance")
	runCmd.Flags().Float64Var(&hMax, "hmax", 0, "maximum step size (0 = unbounded)")
	runCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "integration span")
	runCmd.Flags().StringVar(&configFile, "config", "", "YAML config file")
	runCmd.Flags().IntVar(&component, "component", 0, "state component to plot")
	runCmd.Flags().StringVar(&exportPath, "export", "", "write the trajectory to a .json or .csv file")

	sweepCmd := &cobra.Command{
		Use:   "sweep [problem]",
		Short: "run a parallel ensemble over perturbed initial states",
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	sweepCmd.Flags().StringVar(&methodName, "method", config.DefaultMethod, "step method")
	sweepCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "integration span")
	sweepCmd.Flags().IntVar(&numRuns, "runs", 8, "ensemble size")
	sweepCmd.Flags().Float64Var(&spread, "spread", 0.5, "initial-state scale range around the default")

	watchCmd := &cobra.Command{
		Use:   "watch [problem]",
		Short: "live view of a running integration",
		Args:  cobra.ExactArgs(1),
		RunE:  runWatch,
	}
	watchCmd.Flags().StringVar(&methodName, "method", config.DefaultMethod, "step method")
	watchCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "integration span")
	watchCmd.Flags().IntVar(&component, "component", 0, "state component to plot")
	watchCmd.Flags().IntVar(&frameRate, "fps", 30, "playback frame rate")

	rootCmd.AddCommand(runCmd, sweepCmd, watchCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildConfig() (ode.Config, error) {
	fileCfg := config.Default()
	if configFile != "" {
		c, err := config.Load(configFile)
		if err != nil {
			return ode.Config{}, err
		}
		fileCfg = c
		if fileCfg.Duration > 0 {
			duration = fileCfg.Duration
		}
	} else {
		fileCfg.Method = methodName
		fileCfg.Atol = atol
		fileCfg.Rtol = rtol
		fileCfg.HMax = hMax
	}
	return fileCfg.Engine()
}

func runProblem(cmd *cobra.Command, args []string) error {
	sys, y0, err := problems.New(args[0])
	if err != nil {
		return err
	}
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	d, err := driver.New(sys, cfg)
	if err != nil {
		return err
	}
	res, err := d.Run(context.Background(), y0, 0, duration)
	if err != nil {
		return err
	}

	fmt.Println(viz.Component(res.Samples, component, 80, 12))
	fmt.Println()
	printDiagnostics(res.Diag)

	if exportPath != "" {
		if err := export.Write(exportPath, args[0], cfg.Method.String(), res); err != nil {
			return err
		}
		fmt.Printf("\nwrote %s\n", exportPath)
	}
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	name := args[0]
	_, y0, err := problems.New(name)
	if err != nil {
		return err
	}
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	x0s := make([]ode.State, numRuns)
	for i := range x0s {
		scale := 1.0
		if numRuns > 1 {
			scale = 1 - spread/2 + spread*float64(i)/float64(numRuns-1)
		}
		x := y0.Clone()
		for c := range x {
			x[c] *= scale
		}
		x0s[i] = x
	}

	ens := driver.NewEnsemble(func() (*driver.Driver, error) {
		sys, _, err := problems.New(name)
		if err != nil {
			return nil, err
		}
		return driver.New(sys, cfg)
	})
	results, err := ens.Run(context.Background(), x0s, 0, duration)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "run\ty0[0]\tyEnd[0]\tsteps\tevals")
	for i, r := range results {
		last := r.Samples[len(r.Samples)-1]
		fmt.Fprintf(w, "%d\t%.6g\t%.6g\t%d\t%d\n", i, x0s[i][0], last.Y[0], r.Diag.Accepted, r.Diag.Evals)
	}
	return w.Flush()
}

func printDiagnostics(d ode.Diagnostics) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "accepted steps\t%d\n", d.Accepted)
	fmt.Fprintf(w, "rejected steps\t%d\n", d.Rejected)
	fmt.Fprintf(w, "function evals\t%d\n", d.Evals)
	fmt.Fprintf(w, "jacobian evals\t%d\n", d.JacEvals)
	fmt.Fprintf(w, "newton iterations\t%d\n", d.NewtonIters)
	fmt.Fprintf(w, "newton failures\t%d\n", d.NewtonFails)
	fmt.Fprintf(w, "events\t%d\n", d.Events)
	w.Flush()
}
