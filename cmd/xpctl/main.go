/*
main.go - xpctl, the operations CLI

PURPOSE:
  Command-line access to the status engine without going through the
  HTTP API: bulk event imports, standing checks, cycle history, and
  demo scenario loading, all against the same SQLite database the
  server uses.

COMMANDS:
  import <member-id> <events.json>   Append events from a JSON file
  status <member-id>                 Print a member's current standing
  cycles <member-id>                 Print a member's cycle history
  demo [scenario-id]                 Load a demo scenario; lists them
                                     when called without arguments

FLAGS:
  --db         SQLite database path (default: DB_PATH or status.db)
  --as-of      Evaluation date YYYY-MM-DD (status, cycles)
  --cached     Print the stored snapshot instead of recomputing (status)
  --secondary  Show secondary windows instead of primary cycles (cycles)

IMPORT FILE FORMAT:
  [
    {"kind": "flight", "occurred_at": "2025-11-03", "points": 85,
     "secondary_points": 40, "idempotency_key": "pnr-X7K2-1"}
  ]

EXAMPLES:
  xpctl demo silver-climber
  xpctl status sky-002
  xpctl cycles sky-002 --as-of 2025-12-01
  xpctl import sky-002 november-flights.json

SEE ALSO:
  - api/handlers.go: the compute path this shares
  - api/scenarios.go: the demo scenarios
*/
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/skyward/status-engine/api"
	"github.com/skyward/status-engine/ledger"
	"github.com/skyward/status-engine/qualification"
	"github.com/skyward/status-engine/store/sqlite"
)

var rootCmd = &cobra.Command{
	Use:           "xpctl",
	Short:         "Operations CLI for the Skyward status engine",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var args struct {
	db        string
	asOf      string
	cached    bool
	secondary bool
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&args.db, "db", "", "SQLite database path (default: DB_PATH or status.db)")

	importCmd := &cobra.Command{
		Use:   "import <member-id> <events.json>",
		Short: "Append events from a JSON file",
		Args:  cobra.ExactArgs(2),
		RunE:  runImport,
	}

	statusCmd := &cobra.Command{
		Use:   "status <member-id>",
		Short: "Print a member's current standing",
		Args:  cobra.ExactArgs(1),
		RunE:  runStatus,
	}
	statusCmd.Flags().StringVar(&args.asOf, "as-of", "", "evaluation date (YYYY-MM-DD, default today)")
	statusCmd.Flags().BoolVar(&args.cached, "cached", false, "print the stored snapshot instead of recomputing")

	cyclesCmd := &cobra.Command{
		Use:   "cycles <member-id>",
		Short: "Print a member's cycle history",
		Args:  cobra.ExactArgs(1),
		RunE:  runCycles,
	}
	cyclesCmd.Flags().StringVar(&args.asOf, "as-of", "", "evaluation date (YYYY-MM-DD, default today)")
	cyclesCmd.Flags().BoolVar(&args.secondary, "secondary", false, "show secondary windows instead of primary cycles")

	demoCmd := &cobra.Command{
		Use:   "demo [scenario-id]",
		Short: "Load a demo scenario, or list them",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runDemo,
	}

	rootCmd.AddCommand(importCmd, statusCmd, cyclesCmd, demoCmd)
}

func dbPath() string {
	if args.db != "" {
		return args.db
	}
	if p := os.Getenv("DB_PATH"); p != "" {
		return p
	}
	return "status.db"
}

func openHandler() (*api.Handler, *sqlite.Store, error) {
	store, err := sqlite.New(dbPath())
	if err != nil {
		return nil, nil, fmt.Errorf("opening database %s: %w", dbPath(), err)
	}
	engine, err := qualification.NewEngine(qualification.DefaultRuleset())
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return api.NewHandler(store, qualification.NewCachedEngine(engine, 0)), store, nil
}

func asOfTime() (time.Time, error) {
	if args.asOf == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse("2006-01-02", args.asOf)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --as-of %q, want YYYY-MM-DD", args.asOf)
	}
	return t, nil
}

// =============================================================================
// IMPORT
// =============================================================================

type importEvent struct {
	Kind            string  `json:"kind"`
	OccurredAt      string  `json:"occurred_at"`
	Points          float64 `json:"points"`
	SecondaryPoints float64 `json:"secondary_points"`
	Scheduled       bool    `json:"scheduled"`
	IdempotencyKey  string  `json:"idempotency_key"`
	Note            string  `json:"note"`
}

func runImport(cmd *cobra.Command, argv []string) error {
	memberID, path := argv[0], argv[1]

	handler, store, err := openHandler()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	m, err := store.GetMember(ctx, memberID)
	if err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("member %q not found", memberID)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var raw []importEvent
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(raw) == 0 {
		return fmt.Errorf("%s contains no events", path)
	}

	events := make([]ledger.PointEvent, 0, len(raw))
	for i, in := range raw {
		kind, ok := ledger.ParseEventKind(in.Kind)
		if !ok {
			return fmt.Errorf("event %d: unknown kind %q (flight, bonus, correction)", i, in.Kind)
		}
		occurred, err := time.Parse("2006-01-02", in.OccurredAt)
		if err != nil {
			return fmt.Errorf("event %d: invalid occurred_at %q, want YYYY-MM-DD", i, in.OccurredAt)
		}
		events = append(events, ledger.PointEvent{
			ID:              ledger.NewEventID(),
			MemberID:        ledger.MemberID(memberID),
			Kind:            kind,
			OccurredAt:      occurred,
			Points:          qualification.NewPoints(in.Points, qualification.UnitXP),
			SecondaryPoints: qualification.NewPoints(in.SecondaryPoints, qualification.UnitUXP),
			Scheduled:       in.Scheduled,
			IdempotencyKey:  in.IdempotencyKey,
			Note:            in.Note,
		})
	}

	if err := handler.Ledger.AppendBatch(ctx, events); err != nil {
		if errors.Is(err, ledger.ErrDuplicateIdempotencyKey) {
			return fmt.Errorf("import rejected, idempotency key already used: %w", err)
		}
		return err
	}

	fmt.Printf("Imported %d events for %s\n", len(events), memberID)
	return nil
}

// =============================================================================
// STATUS
// =============================================================================

func runStatus(cmd *cobra.Command, argv []string) error {
	memberID := argv[0]

	handler, store, err := openHandler()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()

	if args.cached {
		return printSnapshot(ctx, store, memberID)
	}

	asOf, err := asOfTime()
	if err != nil {
		return err
	}

	m, err := store.GetMember(ctx, memberID)
	if err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("member %q not found", memberID)
	}

	res, err := handler.ComputeResult(ctx, memberID, asOf)
	if err != nil {
		return err
	}

	fmt.Printf("Member:    %s  %s\n", m.ID, m.Name)
	fmt.Printf("As of:     %s\n", asOf.Format("2006-01-02"))
	fmt.Printf("Standing:  %s\n", res.EffectiveTier(asOf))

	if c, err := qualification.FindActiveCycle(res.Cycles, asOf); err == nil {
		fmt.Printf("Cycle:     %s to %s, %s balance\n",
			c.StartDate.Format("2006-01-02"), c.EndDate.Format("2006-01-02"), c.ActualPoints)
	}
	if s, err := qualification.FindActiveSecondaryCycle(res.SecondaryCycles, asOf); err == nil && s.Contains(asOf) {
		fmt.Printf("Window:    %s to %s, %s balance\n",
			s.StartDate.Format("2006-01-02"), s.EndDate.Format("2006-01-02"), s.ActualPoints)
	}

	if p, err := res.Progress(asOf); err == nil {
		if p.AtTop {
			fmt.Printf("Progress:  top of the primary ladder\n")
		} else {
			fmt.Printf("Progress:  %s needed for %s\n", p.Needed, p.Next)
		}
	}

	for _, w := range res.Warnings {
		fmt.Printf("Warning:   %s\n", w)
	}
	return nil
}

func printSnapshot(ctx context.Context, store *sqlite.Store, memberID string) error {
	snap, err := store.GetSnapshot(ctx, memberID)
	if err != nil {
		return err
	}
	if snap == nil {
		return fmt.Errorf("no snapshot for %q, run the server sweep first", memberID)
	}

	var pretty json.RawMessage = []byte(snap.StatusJSON)
	out, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		return err
	}

	fmt.Printf("Snapshot computed at %s:\n%s\n", snap.ComputedAt.Format(time.RFC3339), out)
	return nil
}

// =============================================================================
// CYCLES
// =============================================================================

func runCycles(cmd *cobra.Command, argv []string) error {
	memberID := argv[0]

	handler, store, err := openHandler()
	if err != nil {
		return err
	}
	defer store.Close()

	asOf, err := asOfTime()
	if err != nil {
		return err
	}

	res, err := handler.ComputeResult(context.Background(), memberID, asOf)
	if err != nil {
		if errors.Is(err, api.ErrMemberNotFound) {
			return fmt.Errorf("member %q not found", memberID)
		}
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "START\tEND\tTIER\tACTUAL\tPROJECTED\tROLL-IN\tROLL-OUT\tSTATE")

	if args.secondary {
		for i, s := range res.SecondaryCycles {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				s.StartDate.Format("2006-01-02"), s.EndDate.Format("2006-01-02"),
				s.StartingTier, s.ActualPoints.Value, s.ProjectedPoints.Value,
				s.RolloverIn.Value, s.RolloverOut.Value,
				cycleState(s.ClosedEarly, i == len(res.SecondaryCycles)-1))
		}
		return nil
	}

	for i, c := range res.Cycles {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			c.StartDate.Format("2006-01-02"), c.EndDate.Format("2006-01-02"),
			c.StartingTier, c.ActualPoints.Value, c.ProjectedPoints.Value,
			c.RolloverIn.Value, c.RolloverOut.Value,
			cycleState(c.ClosedEarly, i == len(res.Cycles)-1))
	}
	return nil
}

// cycleState labels a row: the final cycle is the one still running.
func cycleState(closedEarly, last bool) string {
	if closedEarly {
		return "early"
	}
	if last {
		return "open"
	}
	return "settled"
}

// =============================================================================
// DEMO
// =============================================================================

func runDemo(cmd *cobra.Command, argv []string) error {
	if len(argv) == 0 {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		defer w.Flush()
		fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
		for _, s := range api.Scenarios() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", s.ID, s.Name, s.Description)
		}
		return nil
	}

	handler, store, err := openHandler()
	if err != nil {
		return err
	}
	defer store.Close()

	id := argv[0]
	if err := handler.LoadScenarioByID(context.Background(), id); err != nil {
		if errors.Is(err, api.ErrUnknownScenario) {
			return fmt.Errorf("unknown scenario %q, run `xpctl demo` for the list", id)
		}
		return err
	}

	fmt.Printf("Scenario %q loaded into %s\n", id, dbPath())
	return nil
}
