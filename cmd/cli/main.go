package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"slices"
	"strings"

	"github.com/limaJavier/invigilation/internal/config"
	"github.com/limaJavier/invigilation/internal/logger"
	"github.com/limaJavier/invigilation/internal/store"
	"github.com/limaJavier/invigilation/pkg/model"
	"github.com/limaJavier/invigilation/pkg/roster"
	"github.com/limaJavier/invigilation/pkg/sat"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Exit codes
const (
	exitRoster     = 10 // A roster was produced
	exitAudit      = 15 // The produced roster broke a hard rule
	exitNoRoster   = 20 // Infeasible, or timed out without an acceptable roster
	exitValidation = 30 // The input was rejected
)

var validFormats = []string{store.FormatJson, store.FormatYaml}

func main() {
	// Define arguments
	filePathPtr := flag.String("file", "", "Path to the input file (sessions, teachers and preferences as JSON)")
	configPathPtr := flag.String("config", "", "Path to the configuration file; if empty, invigilation.yaml or invigilation.json in the working directory is used when present")
	outDirPtr := flag.String("out", "", "Directory where the roster will be committed; if empty, it'll be written into the Standard Output")
	formatPtr := flag.String("format", store.FormatJson, "Output format. Allowed values are: \"json\" and \"yaml\", where \"json\" is the default")
	dumpPathPtr := flag.String("dump", "", "Write the compiled pseudo-boolean problem in OPB format to this path and exit")
	flag.Parse()
	filePath := *filePathPtr
	format := strings.ToLower(*formatPtr)

	// Validate arguments
	if filePath == "" {
		log.Fatal("an input file must be specified")
	} else if !slices.Contains(validFormats, format) {
		log.Fatalf("%v is not a valid format", format)
	}

	cfg, err := config.Load(*configPathPtr)
	if err != nil {
		log.Fatalf("cannot load configuration: %v", err)
	}
	zapLogger, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("cannot build logger: %v", err)
	}
	defer zapLogger.Sync()

	// Extract input
	input, err := model.InputFromJson(filePath)
	if err != nil {
		log.Fatalf("cannot parse input file: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *dumpPathPtr != "" {
		dump(ctx, input, cfg.Run, *dumpPathPtr)
		return
	}

	// Initialize engine
	solver, err := newSolver(cfg.Solver)
	if err != nil {
		log.Fatalf("cannot initialize solver: %v", err)
	}
	rosterer := roster.NewRosterer(solver, roster.WithLogger(zapLogger))

	// Build roster
	result, err := rosterer.Run(ctx, input, cfg.Run)
	printDiagnostics(result.Diagnostics)

	var validationError *model.ValidationError
	var auditError *model.AuditViolationError
	switch {
	case errors.As(err, &validationError):
		for _, problem := range validationError.Problems {
			fmt.Fprintf(os.Stderr, "%v %q: %v\n", problem.Entity, problem.Id, problem.Reason)
		}
		os.Exit(exitValidation)
	case errors.As(err, &auditError):
		for _, violation := range auditError.Violations {
			fmt.Fprintf(os.Stderr, "[%v] %v\n", violation.Rule, violation.Detail)
		}
		os.Exit(exitAudit)
	case err != nil:
		log.Fatalf("an error occurred during roster construction: %v", err)
	case result.Roster == nil:
		os.Exit(exitNoRoster)
	}

	// Write roster
	if *outDirPtr == "" {
		content, err := store.Encode(result.Roster, format)
		if err != nil {
			log.Fatalf("an error occurred while building the output: %v", err)
		}
		fmt.Println(string(content))
	} else {
		fileStore, err := store.NewFileStore(*outDirPtr, format)
		if err != nil {
			log.Fatalf("cannot open roster store: %v", err)
		}
		path, err := fileStore.Commit(*result.Roster)
		if err != nil {
			log.Fatalf("an error occurred while committing the roster: %v", err)
		}
		zapLogger.Info("roster committed", zap.String("path", path))
	}

	os.Exit(exitRoster)
}

func newSolver(solverConfig config.SolverConfig) (sat.Solver, error) {
	if solverConfig.Backend != config.BackendExternal {
		return sat.NewGophersatSolver(), nil
	}
	externalConfig, err := sat.ExternalConfigFromMap(solverConfig.Map())
	if err != nil {
		return nil, err
	}
	return sat.NewExternalSolver(externalConfig), nil
}

func dump(ctx context.Context, input model.RawInput, runConfig model.RunConfiguration, path string) {
	problem, err := roster.Compile(ctx, input, runConfig)
	if err != nil {
		log.Fatalf("cannot compile input: %v", err)
	}
	if err := os.WriteFile(path, []byte(problem.ToOPB()), 0666); err != nil {
		log.Fatalf("an error occurred while writing the problem: %v", err)
	}
	fmt.Fprintf(os.Stderr, "Variables: %v\n", problem.Variables)
	fmt.Fprintf(os.Stderr, "Constraints: %v\n", len(problem.Constraints))
}

func printDiagnostics(diagnostics roster.SolveDiagnostics) {
	fmt.Fprintf(os.Stderr, "Status: %v\n", diagnostics.Status)
	fmt.Fprintf(os.Stderr, "Variables: %v\n", diagnostics.Variables)
	fmt.Fprintf(os.Stderr, "Constraints: %v\n", diagnostics.Constraints)
	if diagnostics.Caveat != "" {
		fmt.Fprintf(os.Stderr, "Caveat: %v\n", diagnostics.Caveat)
	}
	for _, conflict := range diagnostics.Conflicts {
		fmt.Fprintf(os.Stderr, "Conflict [%v]: %v\n", conflict.Class, conflict.Detail)
	}
	if len(diagnostics.MinimalClasses) > 0 {
		fmt.Fprintf(os.Stderr, "Conflicting rules: %v\n", diagnostics.MinimalClasses)
	}
}
