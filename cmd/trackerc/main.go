package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/pflag"
	"github.com/sqweek/dialog"

	"github.com/SpecCade/SpecCade-sub006/compose"
	"github.com/SpecCade/SpecCade-sub006/pipeline"
	"github.com/SpecCade/SpecCade-sub006/spec"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "", log.Ldate|log.Ltime)

	// Get the current working directory.
	cwd, err := os.Getwd()
	if err != nil {
		logger.Fatalf("failed to get current working directory: %v", err)
	}

	var (
		seed    uint64
		outPath string
		dump    bool
	)
	pflag.Uint64VarP(&seed, "seed", "s", 0, "seed for synthesized instrument noise")
	pflag.StringVarP(&outPath, "output", "o", "", "output file path (default: input path with the format extension)")
	pflag.BoolVar(&dump, "dump", false, "dump the expanded song model to stdout")
	pflag.Parse()

	// Get the path of the song specification file.
	path, err := choosePath(cwd, pflag.Args())
	if err != nil {
		if errors.Is(err, dialog.ErrCancelled) {
			logger.Printf("User cancelled the file dialog")
			os.Exit(1)
		}
		logger.Fatalf("failed to determine file path: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Fatalf("error reading file: %v", err)
	}

	doc, err := spec.Parse(data)
	if err != nil {
		logger.Fatalf("parse error: %v", err)
	}

	logger.Printf("Compiling %q to %s with seed %d", doc.Name, doc.Format, seed)

	if dump {
		model, _, err := compose.Expand(doc, spec.DefaultBudget())
		if err != nil {
			logger.Fatalf("expand error: %v", err)
		}
		spew.Dump(model)
	}

	result, err := pipeline.Generate(doc, pipeline.Options{Seed: seed})
	if err != nil {
		logger.Fatalf("compile error: %v", err)
	}
	for _, w := range result.Warnings {
		logger.Printf("warning: %s: %s", w.Context, w.Message)
	}

	// Write next to the source file unless an output path was given.
	if outPath == "" {
		ext := filepath.Ext(path)
		outPath = strings.TrimSuffix(path, ext) + "." + doc.Format
	}
	err = os.WriteFile(outPath, result.Bytes, 0o644)
	if err != nil {
		logger.Fatalf("Error writing output file: %v", err)
	}
	logger.Printf("Wrote %d bytes to %s", len(result.Bytes), outPath)
}

// choosePath returns the file path either from the command-line args
// or from an interactive file dialog.
func choosePath(cwd string, args []string) (string, error) {
	// If an argument was passed to the program, use it.
	if len(args) > 0 {
		path := args[0]
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("cannot get absolute path: %w", err)
		}
		if err := validatePath(absPath); err != nil {
			return "", fmt.Errorf("passed argument is not a valid path: %w", err)
		}
		return absPath, nil
	}

	// Otherwise open the file dialog.
	path, err := dialog.
		File().
		Title("Open song specification").
		Filter("Song specifications (*.json)", "json").
		SetStartDir(cwd).
		Load()
	if err != nil {
		// Propagate the error. Caller will check for dialog.ErrCancelled.
		return "", err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot get absolute path: %w", err)
	}

	// Check for empty path just in case.
	if absPath == "" {
		return "", dialog.ErrCancelled
	}
	if err := validatePath(absPath); err != nil {
		return "", fmt.Errorf("dialog selection invalid: %w", err)
	}
	return absPath, nil
}

// validatePath performs simple checks to verify if a file exists or not.
func validatePath(p string) error {
	if strings.ToLower(filepath.Ext(p)) != ".json" {
		return fmt.Errorf("file must have .json extension")
	}
	if _, err := os.Stat(p); err != nil {
		return fmt.Errorf("cannot stat file: %w", err)
	}
	return nil
}
