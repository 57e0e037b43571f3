// Package shell is the out-of-core interactive command-line shell: an
// external collaborator of the sort engine, not part of its core
// contract. It offers sort/count/cat/gen/import/stats/histogram/quit commands over
// stdin, each delegating to the core packages.
//
// Signal handling is grounded on this codebase's Unix-socket daemon,
// adapted to a synchronous REPL with no accept loop: the core gives no
// suspension or cancellation points (see internal/sortengine), so a
// SIGINT/SIGTERM only sets a flag that is checked between commands,
// letting any in-flight phase run to completion.
package shell

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/originalmk/tapesort/internal/config"
	"github.com/originalmk/tapesort/internal/generator"
	"github.com/originalmk/tapesort/internal/histogram"
	"github.com/originalmk/tapesort/internal/sortengine"
	"github.com/originalmk/tapesort/internal/tape"
	"github.com/originalmk/tapesort/internal/tape/runlog"
	"github.com/originalmk/tapesort/internal/textimport"
)

// Shell is a REPL over an in, out stream pair. The zero value is not
// usable; construct with New.
type Shell struct {
	in       *bufio.Scanner
	out      io.Writer
	stopping chan struct{}
}

// New constructs a Shell reading commands from in and writing output to out.
func New(in io.Reader, out io.Writer) *Shell {
	return &Shell{in: bufio.NewScanner(in), out: out, stopping: make(chan struct{})}
}

// Run reads commands until "quit", EOF, or a terminating signal.
func (s *Shell) Run() error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		close(s.stopping)
	}()
	defer signal.Stop(sigCh)

	fmt.Fprintln(s.out, "tapesort shell. Type 'help' for commands.")
	for {
		select {
		case <-s.stopping:
			fmt.Fprintln(s.out, "\nshutting down")
			return nil
		default:
		}

		fmt.Fprint(s.out, "> ")
		if !s.in.Scan() {
			return s.in.Err()
		}
		line := strings.TrimSpace(s.in.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return nil
		}
		if err := s.dispatch(line); err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
	}
}

func (s *Shell) dispatch(line string) error {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "help":
		fmt.Fprintln(s.out, "sort <tape> [scratchA scratchB] | count <tape> | cat <tape> | gen <tape> <n> [seed] | import <tape> <textfile> | stats <tape> | histogram <tape> | quit")
		return nil
	case "sort":
		return s.cmdSort(args)
	case "count":
		return s.cmdCount(args)
	case "cat":
		return s.cmdCat(args)
	case "gen":
		return s.cmdGen(args)
	case "import":
		return s.cmdImport(args)
	case "stats":
		return s.cmdStats(args)
	case "histogram":
		return s.cmdHistogram(args)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (s *Shell) cmdSort(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: sort <tape> [scratchA scratchB]")
	}
	primary := args[0]
	scratchA, scratchB := primary+".a", primary+".b"

	cfg, err := config.Load(primary)
	if err == nil {
		if cfg.ScratchA != "" {
			scratchA = cfg.ScratchA
		}
		if cfg.ScratchB != "" {
			scratchB = cfg.ScratchB
		}
	}
	if len(args) >= 3 {
		scratchA, scratchB = args[1], args[2]
	}

	info, err := sortengine.Sort(primary, scratchA, scratchB, true)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "reads=%d writes=%d phases=%d approxDistinct=%d\n",
		info.Reads, info.Writes, info.Phases, info.ApproxDistinctRecords)
	return runlog.Save(primary, runlog.Entry{
		Reads: info.Reads, Writes: info.Writes, Phases: info.Phases,
		ApproxDistinctRecords: info.ApproxDistinctRecords,
		FinishedAt:            time.Now(),
	})
}

func (s *Shell) cmdCount(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: count <tape>")
	}
	n, err := sortengine.CountRuns(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, n)
	return nil
}

func (s *Shell) cmdCat(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: cat <tape>")
	}
	it, err := sortengine.IterateTape(args[0])
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
		fmt.Fprintf(s.out, "run %d: %v\n", rr.RunIndex, rr.Record.Items())
	}
}

func (s *Shell) cmdGen(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: gen <tape> <n> [seed]")
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("bad record count %q: %w", args[1], err)
	}
	seed := int64(1)
	if len(args) >= 3 {
		seed, err = strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return fmt.Errorf("bad seed %q: %w", args[2], err)
		}
	}

	wb, err := tape.OpenWriteBuffer(args[0], tape.Truncate)
	if err != nil {
		return err
	}
	if err := generator.Write(wb, n, rand.New(rand.NewSource(seed))); err != nil {
		wb.Close()
		return err
	}
	return wb.Close()
}

func (s *Shell) cmdImport(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: import <tape> <textfile>")
	}
	recs, err := textimport.Import(args[1])
	if err != nil {
		return err
	}
	wb, err := tape.OpenWriteBuffer(args[0], tape.Truncate)
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
	fmt.Fprintf(s.out, "imported %d records\n", len(recs))
	return nil
}

func (s *Shell) cmdHistogram(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: histogram <tape>")
	}
	counts, err := histogram.Count(args[0])
	if err != nil {
		return err
	}
	for v, n := range counts {
		if n > 0 {
			fmt.Fprintf(s.out, "%3d: %d\n", v, n)
		}
	}
	return nil
}

func (s *Shell) cmdStats(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: stats <tape>")
	}
	entry, ok, err := runlog.Load(args[0])
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(s.out, "no sort has been run on this tape yet")
		return nil
	}
	fmt.Fprintf(s.out, "reads=%d writes=%d phases=%d approxDistinct=%d finishedAt=%s\n",
		entry.Reads, entry.Writes, entry.Phases, entry.ApproxDistinctRecords, entry.FinishedAt)
	return nil
}
