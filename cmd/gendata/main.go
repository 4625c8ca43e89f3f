// Command gendata synthesizes a labeled emergency situation table and writes
// it as CSV, printing the label distribution and the heuristic score spread.
//
// Usage:
//
//	go run ./cmd/gendata -count 2000 -seed 42 -out data/emergency_dataset.csv
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/couchcryptid/emergency-severity/internal/dataset"
	"github.com/couchcryptid/emergency-severity/internal/domain"
	"github.com/couchcryptid/emergency-severity/internal/synth"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	count := flag.Int("count", 2000, "number of records to synthesize")
	seed := flag.Uint64("seed", 42, "random seed")
	out := flag.String("out", "data/emergency_dataset.csv", "output CSV path (\"-\" for stdout)")
	force := flag.Bool("force", false, "overwrite an existing output file")
	flag.Parse()

	if *count <= 0 {
		flag.Usage()
		return fmt.Errorf("-count must be positive, got %d", *count)
	}

	records := synth.Generate(*count, *seed)

	if *out == "-" {
		if err := dataset.Write(os.Stdout, records); err != nil {
			return err
		}
	} else {
		if _, err := os.Stat(*out); err == nil && !*force {
			return fmt.Errorf("%s already exists; pass -force to overwrite", *out)
		}
		store := dataset.NewStore(*out, slog.New(slog.NewTextHandler(io.Discard, nil)))
		if err := store.Save(records); err != nil {
			return err
		}
		log.Printf("wrote %d records to %s", len(records), *out)
	}

	printStats(os.Stderr, records)
	return nil
}

func printStats(w io.Writer, records []domain.SituationRecord) {
	counts := synth.SeverityCounts(records)
	fmt.Fprintln(w, "severity distribution:")
	for _, s := range domain.Severities() {
		fmt.Fprintf(w, "  %-9s %5d  %5.1f%%\n", s, counts[s], 100*float64(counts[s])/float64(len(records)))
	}

	scores := make(map[int]int)
	for _, r := range records {
		scores[synth.HeuristicScore(r.Situation)]++
	}
	fmt.Fprintln(w, "heuristic score spread:")
	for score := 0; score <= 6; score++ {
		if scores[score] == 0 {
			continue
		}
		fmt.Fprintf(w, "  score %d  %5d  band %v\n", score, scores[score], synth.ScoreBand(score))
	}
}
