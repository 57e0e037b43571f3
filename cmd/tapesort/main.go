// Command tapesort sorts a tape of fixed-size records by natural merge
// sort, or drives the generator/importer/archive/shell collaborators
// around it. Adapted from the teacher codebase's cmd/benchmark entry
// point, which is not part of this repository (see DESIGN.md).
package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/originalmk/tapesort/internal/archive"
	"github.com/originalmk/tapesort/internal/config"
	"github.com/originalmk/tapesort/internal/generator"
	"github.com/originalmk/tapesort/internal/histogram"
	"github.com/originalmk/tapesort/internal/shell"
	"github.com/originalmk/tapesort/internal/sortengine"
	"github.com/originalmk/tapesort/internal/tape"
	"github.com/originalmk/tapesort/internal/tape/runlog"
	"github.com/originalmk/tapesort/internal/textimport"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "sort":
		err = runSort(os.Args[2:])
	case "count":
		err = runCount(os.Args[2:])
	case "cat":
		err = runCat(os.Args[2:])
	case "gen":
		err = runGen(os.Args[2:])
	case "import":
		err = runImport(os.Args[2:])
	case "export":
		err = runExport(os.Args[2:])
	case "stats":
		err = runStats(os.Args[2:])
	case "histogram":
		err = runHistogram(os.Args[2:])
	case "shell":
		err = shell.New(os.Stdin, os.Stdout).Run()
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "tapesort: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  tapesort sort   <tape> [--scratch-a PATH] [--scratch-b PATH] [-v]
  tapesort count  <tape>
  tapesort cat    <tape>
  tapesort gen    <tape> --records N [--seed N]
  tapesort import <tape> <text-file>
  tapesort export <tape> <archive-file>
  tapesort stats  <tape>
  tapesort histogram <tape>
  tapesort shell`)
}

func runSort(args []string) error {
	var verbose bool
	var scratchA, scratchB string
	primary, rest := shiftPositional(args)
	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case "-v", "--verbose":
			verbose = true
		case "--scratch-a":
			i++
			scratchA = rest[i]
		case "--scratch-b":
			i++
			scratchB = rest[i]
		}
	}
	if primary == "" {
		return fmt.Errorf("usage: tapesort sort <tape> [--scratch-a PATH] [--scratch-b PATH] [-v]")
	}

	cfg, err := config.Load(primary)
	if err != nil {
		return err
	}
	if scratchA == "" {
		scratchA = cfg.ScratchA
	}
	if scratchA == "" {
		scratchA = primary + ".a"
	}
	if scratchB == "" {
		scratchB = cfg.ScratchB
	}
	if scratchB == "" {
		scratchB = primary + ".b"
	}
	cfg.SetScratch(scratchA, scratchB)
	if err := cfg.Save(); err != nil {
		return err
	}

	info, err := sortengine.Sort(primary, scratchA, scratchB, verbose)
	if err != nil {
		return err
	}
	fmt.Printf("reads=%d writes=%d phases=%d", info.Reads, info.Writes, info.Phases)
	if verbose {
		fmt.Printf(" approxDistinct=%d", info.ApproxDistinctRecords)
	}
	fmt.Println()

	return runlog.Save(primary, runlog.Entry{
		Reads: info.Reads, Writes: info.Writes, Phases: info.Phases,
		ApproxDistinctRecords: info.ApproxDistinctRecords,
		FinishedAt:            time.Now(),
	})
}

func runCount(args []string) error {
	primary, _ := shiftPositional(args)
	if primary == "" {
		return fmt.Errorf("usage: tapesort count <tape>")
	}
	n, err := sortengine.CountRuns(primary)
	if err != nil {
		return err
	}
	fmt.Println(n)
	return nil
}

func runCat(args []string) error {
	primary, _ := shiftPositional(args)
	if primary == "" {
		return fmt.Errorf("usage: tapesort cat <tape>")
	}
	it, err := sortengine.IterateTape(primary)
	if err != nil {
		return err
	}
	defer it.Close()
	for {
		rr, ok, err := it.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		fmt.Printf("run %d: %v\n", rr.RunIndex, rr.Record.Items())
	}
}

func runGen(args []string) error {
	primary, rest := shiftPositional(args)
	if primary == "" {
		return fmt.Errorf("usage: tapesort gen <tape> --records N [--seed N]")
	}
	records, seed := 0, int64(1)
	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case "--records":
			i++
			fmt.Sscanf(rest[i], "%d", &records)
		case "--seed":
			i++
			fmt.Sscanf(rest[i], "%d", &seed)
		}
	}
	if records <= 0 {
		return fmt.Errorf("--records must be positive")
	}

	wb, err := tape.OpenWriteBuffer(primary, tape.Truncate)
	if err != nil {
		return err
	}
	if err := generator.Write(wb, records, rand.New(rand.NewSource(seed))); err != nil {
		wb.Close()
		return err
	}
	return wb.Close()
}

func runImport(args []string) error {
	primary, rest := shiftPositional(args)
	if primary == "" || len(rest) < 1 {
		return fmt.Errorf("usage: tapesort import <tape> <text-file>")
	}
	recs, err := textimport.Import(rest[0])
	if err != nil {
		return err
	}
	wb, err := tape.OpenWriteBuffer(primary, tape.Truncate)
	if err != nil {
		return err
	}
	for _, r := range recs {
		if err := wb.WriteNext(r); err != nil {
			wb.Close()
			return err
		}
	}
	if err := wb.Close(); err != nil {
		return err
	}
	fmt.Printf("imported %d records\n", len(recs))
	return nil
}

func runExport(args []string) error {
	primary, rest := shiftPositional(args)
	if primary == "" || len(rest) < 1 {
		return fmt.Errorf("usage: tapesort export <tape> <archive-file>")
	}
	return archive.Export(primary, rest[0], time.Now())
}

func runStats(args []string) error {
	primary, _ := shiftPositional(args)
	if primary == "" {
		return fmt.Errorf("usage: tapesort stats <tape>")
	}
	entry, ok, err := runlog.Load(primary)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("no sort has been run on this tape yet")
		return nil
	}
	fmt.Printf("reads=%d writes=%d phases=%d approxDistinct=%d finishedAt=%s\n",
		entry.Reads, entry.Writes, entry.Phases, entry.ApproxDistinctRecords, entry.FinishedAt)
	return nil
}

func runHistogram(args []string) error {
	primary, _ := shiftPositional(args)
	if primary == "" {
		return fmt.Errorf("usage: tapesort histogram <tape>")
	}
	counts, err := histogram.Count(primary)
	if err != nil {
		return err
	}
	for v, n := range counts {
		if n > 0 {
			fmt.Printf("%3d: %d\n", v, n)
		}
	}
	return nil
}

// shiftPositional pulls the first non-flag argument off args as the
// positional tape path, returning it and the remainder untouched (flags
// are parsed by each subcommand since they take differing shapes).
func shiftPositional(args []string) (string, []string) {
	if len(args) == 0 {
		return "", nil
	}
	return args[0], args[1:]
}
