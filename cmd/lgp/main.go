// SPDX-License-Identifier: Apache-2.0
package main

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"lgp/internal/config"
	"lgp/internal/dataset"
	"lgp/internal/evolve"
	"lgp/internal/generate"
	"lgp/internal/op"
	"lgp/internal/registers"
	"lgp/internal/trainer"
)

var (
	configPath    string
	dataPath      string
	modelKind     string
	runsOverride  int
	workers       int
	distributed   bool
	timeout       time.Duration
	verbosity     int
	dumpProgram   bool
	effectiveOnly bool
)

var rootCmd = &cobra.Command{
	Use:   "lgp",
	Short: "Linear genetic programming engine",
	Long: `lgp evolves populations of register-transfer programs to minimize a
fitness function over a labeled dataset.

MODELS:
  steady-state - sequential steady-state evolution (default)
  master-slave - steady-state with parallel evaluation
  islands      - ring-migrating sub-populations`,
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Evolve programs against a CSV dataset",
	RunE:  runTrain,
}

func init() {
	trainCmd.Flags().StringVarP(&configPath, "config", "c", "", "configuration file (YAML or JSON)")
	trainCmd.Flags().StringVarP(&dataPath, "data", "d", "", "dataset CSV file")
	trainCmd.Flags().StringVarP(&modelKind, "model", "m", "steady-state", "evolution model")
	trainCmd.Flags().IntVar(&runsOverride, "runs", 0, "override the configured number of runs")
	trainCmd.Flags().IntVar(&workers, "workers", runtime.NumCPU(), "worker pool size for parallel stages")
	trainCmd.Flags().BoolVar(&distributed, "distributed", false, "run the repetitions on a worker pool")
	trainCmd.Flags().DurationVar(&timeout, "timeout", 0, "per-run timeout (0 disables)")
	trainCmd.Flags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity")
	trainCmd.Flags().BoolVar(&dumpProgram, "dump-program", false, "print the best evolved program")
	trainCmd.Flags().BoolVar(&effectiveOnly, "effective", false, "comment out intron lines in the dump")
	trainCmd.MarkFlagRequired("config")
	trainCmd.MarkFlagRequired("data")
	rootCmd.AddCommand(trainCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		color.Red("error: %s", err)
		os.Exit(1)
	}
}

func runTrain(cmd *cobra.Command, args []string) error {
	commonlog.Configure(verbosity, nil)
	log := commonlog.GetLogger("lgp")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	f, err := os.Open(dataPath)
	if err != nil {
		return err
	}
	ds, err := dataset.FromCSV[float64](f, cfg.NumFeatures)
	f.Close()
	if err != nil {
		return err
	}
	if ds.NumTargets > cfg.NumCalculationRegisters {
		return fmt.Errorf("dataset has %d target(s) but only %d calculation register(s)",
			ds.NumTargets, cfg.NumCalculationRegisters)
	}

	factory, err := buildFactory(cfg, ds, log)
	if err != nil {
		return err
	}

	runs := cfg.NumberOfRuns
	if runsOverride > 0 {
		runs = runsOverride
	}
	seed := cfg.Seed()
	log.Infof("training: model=%s runs=%d seed=%d cases=%d", modelKind, runs, seed, len(ds.Cases))

	var result *trainer.TrainingResult[float64]
	if distributed {
		t := &trainer.Distributed[float64]{
			Model: factory, Runs: runs, Seed: seed, Timeout: timeout, Workers: workers, Log: log,
		}
		result, err = t.Train(cmd.Context())
	} else {
		t := &trainer.Sequential[float64]{
			Model: factory, Runs: runs, Seed: seed, Timeout: timeout, Log: log,
		}
		result, err = t.Train(cmd.Context())
	}
	if err != nil {
		return err
	}

	report(result)
	return nil
}

func report(result *trainer.TrainingResult[float64]) {
	for run, res := range result.Results {
		marker := ""
		if res.Cancelled {
			marker = " (cancelled)"
		}
		fmt.Printf("run %2d: best fitness %g%s\n", run, res.Best.Fitness, marker)
	}
	color.Green("best fitness %g (run %d, %d instruction(s), %d effective)",
		result.Best.Fitness, result.BestRun, result.Best.Len(), len(result.Best.Effective()))

	if dumpProgram {
		fmt.Println()
		if effectiveOnly {
			fmt.Print(result.Best.RenderEffective())
		} else {
			fmt.Print(result.Best.String())
		}
	}
}

// buildFactory wires the configuration and dataset into a per-run model
// constructor. All pieces derived purely from configuration are shared;
// everything mutable is created inside the model per run.
func buildFactory(cfg *config.Config, ds *dataset.Dataset[float64], log commonlog.Logger) (trainer.Factory[float64], error) {
	set, err := op.Builtins[float64]().Resolve(cfg.Operations)
	if err != nil {
		return nil, err
	}
	constants, err := cfg.ParsedConstants()
	if err != nil {
		return nil, err
	}
	regP, opP, constP, err := cfg.FieldProbabilities()
	if err != nil {
		return nil, err
	}

	file := registers.NewFile[float64](cfg.NumCalculationRegisters, cfg.NumFeatures, constants, 0)
	outputs := make([]int, ds.NumTargets)
	for i := range outputs {
		outputs[i] = i
	}

	instructions := generate.NewInstructionGenerator(set, file, cfg.ConstantsRate, cfg.BranchInitializationRate)
	var source evolve.ProgramSource[float64]
	if cfg.EffectiveInitialization {
		source = &generate.EffectiveProgramGenerator[float64]{
			Instructions: instructions, Prototype: file, Outputs: outputs,
			MinLength: cfg.InitialMinimumProgramLength, MaxLength: cfg.InitialMaximumProgramLength,
		}
	} else {
		source = &generate.ProgramGenerator[float64]{
			Instructions: instructions, Prototype: file, Outputs: outputs,
			MinLength: cfg.InitialMinimumProgramLength, MaxLength: cfg.InitialMaximumProgramLength,
		}
	}

	fn := evolve.MSE[float64]
	if ds.NumTargets > 1 {
		fn = evolve.SumOfMeanSquaredErrors[float64]
	}
	fitness := &evolve.Context[float64]{Cases: ds.Cases, Fn: fn}
	events := evolve.LogSink{Log: log}

	steady := func(run int) evolve.SteadyState[float64] {
		return evolve.SteadyState[float64]{
			RunIndex:          run,
			PopulationSize:    cfg.PopulationSize,
			Generations:       cfg.Generations,
			NumOffspring:      cfg.NumOffspring,
			CrossoverRate:     cfg.CrossoverRate,
			MacroMutationRate: cfg.MacroMutationRate,
			MicroMutationRate: cfg.MicroMutationRate,
			StoppingCriterion: cfg.StoppingCriterion,
			Selector:          evolve.Tournament[float64]{Size: cfg.TournamentSize},
			Crossover: &evolve.Crossover[float64]{
				MaxSegmentLength:    cfg.MaxSegmentLength,
				MaxDistance:         cfg.MaxCrossoverDistance,
				MaxLengthDifference: cfg.MaxSegmentLengthDifference,
				MinLength:           cfg.MinimumProgramLength,
				MaxLength:           cfg.MaximumProgramLength,
			},
			Macro: &evolve.MacroMutation[float64]{
				InsertionRate: cfg.MacroMutationInsertionRate,
				MinLength:     cfg.MinimumProgramLength,
				MaxLength:     cfg.MaximumProgramLength,
				Generator:     instructions,
				Effective:     cfg.EffectiveInitialization,
			},
			Micro: &evolve.MicroMutation[float64]{
				RegisterRate:   regP,
				OperatorRate:   opP,
				ConstantRate:   constP,
				Ops:            set,
				ConstantStdDev: cfg.ConstantMutationStdDev,
			},
			Fitness:   fitness,
			Generator: source,
			Events:    events,
			Log:       log,
		}
	}

	switch modelKind {
	case "steady-state":
		return func(run int) evolve.Model[float64] {
			ss := steady(run)
			return &ss
		}, nil
	case "master-slave":
		return func(run int) evolve.Model[float64] {
			return &evolve.MasterSlave[float64]{SteadyState: steady(run), Workers: workers}
		}, nil
	case "islands":
		return func(run int) evolve.Model[float64] {
			return &evolve.IslandMigration[float64]{
				Prototype:         steady(run),
				Islands:           cfg.NumberOfIslands,
				MigrationInterval: cfg.MigrationInterval,
				MigrationSize:     cfg.MigrationSize,
			}
		}, nil
	default:
		return nil, fmt.Errorf("unknown model %q (want steady-state, master-slave, or islands)", modelKind)
	}
}
