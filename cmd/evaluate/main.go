// Command evaluate trains the severity model twice under one seed and checks
// that the runs agree, that the split is stratified, that importances are
// normalized, and that a canonical high-risk situation lands in the urgent
// band. It then prints the evaluation report.
//
// Usage:
//
//	go run ./cmd/evaluate -count 2000 -seed 42
//	go run ./cmd/evaluate -data data/emergency_dataset.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/couchcryptid/emergency-severity/internal/dataset"
	"github.com/couchcryptid/emergency-severity/internal/domain"
	"github.com/couchcryptid/emergency-severity/internal/severity"
	"github.com/couchcryptid/emergency-severity/internal/synth"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jonboulle/clockwork"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// scenario is the canonical urgent situation: heuristic score 5.
var scenario = domain.Situation{
	City:              domain.Delhi,
	TimeOfDay:         domain.Night,
	DayOfWeek:         domain.Friday,
	Weather:           domain.Stormy,
	Temperature:       35,
	PopulationDensity: 9000,
	EmergencyType:     domain.Fire,
}

func main() {
	dataPath := flag.String("data", "", "CSV table to load (generated and saved there if missing); empty keeps the table in memory")
	count := flag.Int("count", 2000, "rows to synthesize when no table is loaded")
	seed := flag.Uint64("seed", 42, "synthesis, split and forest seed")
	trees := flag.Int("trees", severity.DefaultTrees, "forest size")
	testFraction := flag.Float64("test-fraction", severity.DefaultTestFraction, "held-out share")
	flag.Parse()

	if *count <= 0 || *trees <= 0 || *testFraction <= 0 || *testFraction >= 1 {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*dataPath, *count, *seed, *trees, *testFraction))
}

func run(dataPath string, count int, seed uint64, trees int, testFraction float64) int {
	// Fixed clock so both runs stamp identical training times.
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)))
	defer domain.SetClock(nil)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	fmt.Println("=== Severity Model Evaluation ===")
	fmt.Println()

	table, err := loadTable(ctx, dataPath, count, seed, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load table: %v\n", err)
		return 1
	}

	trainer := severity.NewTrainer(severity.Options{Seed: seed, Trees: trees, TestFraction: testFraction}, logger)

	wall := time.Now()
	model, first, err := trainer.Train(ctx, table)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: first training run: %v\n", err)
		return 1
	}
	_, second, err := trainer.Train(ctx, table)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: second training run: %v\n", err)
		return 1
	}
	elapsed := time.Since(wall)

	phases := []*phase{
		validateDeterminism(first, second),
		validateStratification(first, len(table), testFraction),
		validateImportances(first),
		validateScenario(model),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d (train %d, test %d), trees %d, seed %d, two runs in %s\n",
		len(table), first.TrainSize, first.TestSize, trees, seed, elapsed.Round(time.Millisecond))
	printReport(first)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll evaluations passed.")
		return 0
	}
	fmt.Println("\nEvaluation FAILED.")
	return 1
}

func loadTable(ctx context.Context, path string, count int, seed uint64, logger *slog.Logger) ([]domain.SituationRecord, error) {
	if path == "" {
		return synth.Generate(count, seed), nil
	}
	records, _, err := dataset.NewStore(path, logger).LoadOrGenerate(ctx, count, seed)
	return records, err
}

// ── Phases ──

func validateDeterminism(a, b severity.Report) *phase {
	p := &phase{name: "Phase 1: Reproducible training"}
	if diff := cmp.Diff(a, b, cmpopts.IgnoreFields(severity.Report{}, "Duration")); diff != "" {
		p.errorf("reports differ between runs (-first +second):\n%s", diff)
	}
	return p
}

func validateStratification(r severity.Report, rows int, testFraction float64) *phase {
	p := &phase{name: "Phase 2: Stratified split"}

	if r.TrainSize+r.TestSize != rows {
		p.errorf("train %d + test %d != %d rows", r.TrainSize, r.TestSize, rows)
	}
	want := testFraction * float64(rows)
	if math.Abs(float64(r.TestSize)-want) > float64(len(r.Labels)) {
		p.errorf("test size %d, want about %.0f", r.TestSize, want)
	}
	for _, label := range r.Labels {
		trainShare := share(r.TrainClasses[label], r.TrainSize)
		testShare := share(r.TestClasses[label], r.TestSize)
		if math.Abs(trainShare-testShare) > 0.02 {
			p.errorf("%s: train share %.3f, test share %.3f", label, trainShare, testShare)
		}
	}
	return p
}

func validateImportances(r severity.Report) *phase {
	p := &phase{name: "Phase 3: Feature importances"}

	sum := 0.0
	for _, fi := range r.Importances {
		if fi.Importance < 0 {
			p.errorf("%s: negative importance %f", fi.Feature, fi.Importance)
		}
		sum += fi.Importance
	}
	if math.Abs(sum-1) > 1e-6 {
		p.errorf("importances sum to %f, want 1", sum)
	}
	return p
}

func validateScenario(model *severity.Model) *phase {
	p := &phase{name: "Phase 4: Urgent scenario (Delhi night fire)"}

	pred, err := model.Predict(scenario)
	if err != nil {
		p.errorf("predict: %v", err)
		return p
	}
	if !pred.Escalate() {
		p.errorf("label %s, want High or Critical", pred.Label)
	}
	urgent := pred.Probabilities[domain.High] + pred.Probabilities[domain.Critical]
	calm := pred.Probabilities[domain.Low] + pred.Probabilities[domain.Medium]
	if urgent <= calm {
		p.errorf("P(High|Critical)=%.3f not above P(Low|Medium)=%.3f", urgent, calm)
	}
	fmt.Printf("  scenario (score %d): %s, confidence %.3f\n",
		synth.HeuristicScore(scenario), pred.Label, pred.Confidence)
	return p
}

// ── Report ──

func printReport(r severity.Report) {
	fmt.Printf("\nAccuracy: %.4f\n\n", r.Accuracy)
	fmt.Printf("  %-9s %9s %9s %9s %8s\n", "", "precision", "recall", "f1", "support")
	for _, c := range r.Classes {
		fmt.Printf("  %-9s %9.3f %9.3f %9.3f %8d\n", c.Label, c.Precision, c.Recall, c.F1, c.Support)
	}
	fmt.Printf("  %-9s %9.3f %9.3f %9.3f\n", "macro", r.MacroAvg.Precision, r.MacroAvg.Recall, r.MacroAvg.F1)
	fmt.Printf("  %-9s %9.3f %9.3f %9.3f\n", "weighted", r.WeightedAvg.Precision, r.WeightedAvg.Recall, r.WeightedAvg.F1)

	fmt.Println("\nConfusion (rows true, columns predicted):")
	fmt.Printf("  %-9s", "")
	for _, l := range r.Labels {
		fmt.Printf(" %8s", l)
	}
	fmt.Println()
	for i, row := range r.Confusion {
		fmt.Printf("  %-9s", r.Labels[i])
		for _, n := range row {
			fmt.Printf(" %8d", n)
		}
		fmt.Println()
	}

	fmt.Println("\nFeature importances:")
	for _, fi := range r.Importances {
		fmt.Printf("  %-32s %.4f\n", fi.Feature, fi.Importance)
	}
}

func share(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}
