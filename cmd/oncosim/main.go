package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"oncosim/internal/cases"
	"oncosim/internal/config"
	"oncosim/internal/growth"
	"oncosim/internal/integrators"
	"oncosim/internal/metrics"
	"oncosim/internal/patient"
	"oncosim/internal/session"
	"oncosim/internal/sim"
	"oncosim/internal/storage"
	"oncosim/internal/transfer"
	"oncosim/internal/treatment"
	"oncosim/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	caseID     string
	casesFile  string

	days      float64
	dt        float64
	sensitive float64
	resistant float64

	age           int
	smoker        bool
	packYears     float64
	diet          string
	geneticFactor float64

	treatmentName string
	treatmentDay  float64

	snapshotInterval float64
	maxDeltas        int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "oncosim",
		Short: "tumor growth simulation lab",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".oncosim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation and store the result",
		RunE:  runSimulation,
	}
	addSessionFlags(runCmd)
	runCmd.Flags().Float64Var(&days, "days", config.DefaultDuration, "simulated days")
	runCmd.Flags().StringVar(&treatmentName, "treatment", "none", "treatment to apply")
	runCmd.Flags().Float64Var(&treatmentDay, "treatment-day", 0, "day the treatment starts")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "interactive live session",
		RunE:  runLive,
	}
	addSessionFlags(liveCmd)

	casesCmd := &cobra.Command{
		Use:   "cases",
		Short: "list the clinical case library",
		RunE:  listCases,
	}
	casesCmd.Flags().StringVar(&casesFile, "file", "", "additional cases file (yaml)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list patient presets",
		RunE:  listPatientPresets,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	compareCmd := &cobra.Command{
		Use:   "compare [treatment1] [treatment2] ...",
		Short: "compare treatments on the same patient",
		Args:  cobra.MinimumNArgs(1),
		RunE:  compareArms,
	}
	addSessionFlags(compareCmd)
	compareCmd.Flags().Float64Var(&days, "days", config.DefaultDuration, "simulated days")

	rootCmd.AddCommand(runCmd, liveCmd, casesCmd, presetsCmd, listCmd, plotCmd, exportCmd, compareCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSessionFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "scenario file (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "default", "patient preset")
	cmd.Flags().StringVar(&caseID, "case", "", "clinical case id (library mode)")
	cmd.Flags().Float64Var(&dt, "dt", 0, "integration step in days")
	cmd.Flags().Float64Var(&sensitive, "sensitive", config.DefaultSensitive, "initial sensitive volume, cm³")
	cmd.Flags().Float64Var(&resistant, "resistant", config.DefaultResistant, "initial resistant volume, cm³")
	cmd.Flags().IntVar(&age, "age", 0, "patient age (overrides preset)")
	cmd.Flags().BoolVar(&smoker, "smoker", false, "patient smokes")
	cmd.Flags().Float64Var(&packYears, "pack-years", 0, "smoking pack-years")
	cmd.Flags().StringVar(&diet, "diet", "normal", "diet quality: poor, normal, healthy")
	cmd.Flags().Float64Var(&geneticFactor, "genetic", 1.0, "genetic risk factor")
	cmd.Flags().Float64Var(&snapshotInterval, "snapshot-interval", 0, "days between automatic checkpoints")
	cmd.Flags().IntVar(&maxDeltas, "max-deltas", 0, "deltas per checkpoint")
}

// buildSessionConfig resolves the session seed: a clinical case wins, then a
// scenario file, then flags on top of the named preset.
func buildSessionConfig(cmd *cobra.Command) (session.Config, error) {
	if caseID != "" {
		c, err := cases.Get(caseID)
		if err != nil {
			return session.Config{}, err
		}
		return session.Config{
			Profile:          c.Profile(),
			Sensitive:        c.SensitiveVolume,
			Resistant:        c.ResistantVolume,
			StepSize:         dt,
			SnapshotInterval: snapshotInterval,
			MaxDeltas:        maxDeltas,
			Mode:             transfer.ModeLibrary,
			CaseID:           c.ID,
		}, nil
	}

	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			return session.Config{}, fmt.Errorf("failed to load config: %w", err)
		}
		if !cmd.Flags().Changed("days") {
			days = cfg.Duration
		}
		if !cmd.Flags().Changed("treatment") {
			treatmentName = cfg.Treatment.Kind
		}
		if !cmd.Flags().Changed("treatment-day") && cmd.Flags().Lookup("treatment-day") != nil {
			treatmentDay = cfg.Treatment.StartDay
		}
		return cfg.SessionConfig()
	}

	profile, ok := patient.GetPreset(preset)
	if !ok {
		return session.Config{}, fmt.Errorf("unknown preset: %s (available: %v)", preset, patient.ListPresets())
	}
	if cmd.Flags().Changed("age") {
		profile.Age = age
	}
	if cmd.Flags().Changed("smoker") {
		profile.Smoker = smoker
	}
	if cmd.Flags().Changed("pack-years") {
		profile.PackYears = packYears
	}
	if cmd.Flags().Changed("diet") {
		profile.Diet = patient.Diet(diet)
	}
	if cmd.Flags().Changed("genetic") {
		profile.GeneticFactor = geneticFactor
	}

	return session.Config{
		Profile:          profile,
		Sensitive:        sensitive,
		Resistant:        resistant,
		StepSize:         dt,
		SnapshotInterval: snapshotInterval,
		MaxDeltas:        maxDeltas,
		Mode:             transfer.ModeFree,
	}, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	sc, err := buildSessionConfig(cmd)
	if err != nil {
		return err
	}
	kind, err := treatment.Parse(treatmentName)
	if err != nil {
		return err
	}

	sess, err := session.New(sc)
	if err != nil {
		return err
	}

	peak := metrics.NewPeakVolume()
	meanRes := metrics.NewMeanResistanceFraction()
	toStageIII := metrics.NewTimeToStage(growth.StageIII)
	sess.Observe(peak)
	sess.Observe(meanRes)
	sess.Observe(toStageIII)

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	defer st.Close()

	fmt.Printf("simulating %.0f days...\n", days)
	start := time.Now()

	treatmentPending := kind != treatment.None
	trajectory := []sim.Point{point(sess)}
	for day := 1.0; day <= days; day++ {
		if treatmentPending && treatmentDue(treatmentDay, day-1) {
			sess.SetTreatment(kind)
			treatmentPending = false
		}
		if err := sess.Advance(1); err != nil {
			return err
		}
		trajectory = append(trajectory, point(sess))
	}
	elapsed := time.Since(start)

	summary := sess.Summarize()
	record := sess.Record()

	runID, err := st.Save(storage.RunMetadata{
		CaseID:      sc.CaseID,
		Mode:        string(record.Mode),
		PatientAge:  record.Age,
		Treatment:   record.ActiveTreatment,
		Duration:    summary.Days,
		Dt:          sc.StepSize,
		FinalVolume: summary.TotalVolume,
		FinalStage:  summary.Stage.String(),
		Metrics:     summary.Metrics,
	}, trajectory)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("final volume: %.3f cm³ (stage %s)\n", summary.TotalVolume, summary.Stage)
	fmt.Printf("resistance: %.1f%%\n", summary.Resistance*100)
	fmt.Printf("history: %d checkpoints, %d deltas, %.0f%% of naive size\n",
		summary.Footprint.Snapshots, summary.Footprint.Deltas, summary.Footprint.Ratio*100)
	fmt.Println("\nmetrics:")
	for name, val := range summary.Metrics {
		if math.IsInf(val, 1) {
			fmt.Printf("  %s: never\n", name)
			continue
		}
		fmt.Printf("  %s: %.4f\n", name, val)
	}

	return nil
}

// treatmentDue reports whether a pending treatment should begin before the
// day starting at now; fractional start days fire at the next whole-day
// boundary rather than being skipped.
func treatmentDue(startDay, now float64) bool {
	return startDay <= now
}

func point(sess *session.Session) sim.Point {
	eng := sess.Engine()
	return sim.Point{
		Time:  eng.CurrentTime(),
		State: sim.State{eng.SensitiveVolume(), eng.ResistantVolume()},
	}
}

func runLive(cmd *cobra.Command, args []string) error {
	sc, err := buildSessionConfig(cmd)
	if err != nil {
		return err
	}
	sess, err := session.New(sc)
	if err != nil {
		return err
	}

	p := tea.NewProgram(viz.NewModel(sess))
	_, err = p.Run()
	return err
}

func listCases(cmd *cobra.Command, args []string) error {
	all := cases.List()
	if casesFile != "" {
		extra, err := cases.Load(casesFile)
		if err != nil {
			return err
		}
		all = append(all, extra...)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tAGE\tSMOKER\tDIET\tINITIAL")
	for _, c := range all {
		fmt.Fprintf(w, "%s\t%s\t%d\t%v\t%s\t%.1f cm³\n",
			c.ID, c.Title, c.Age, c.Smoker, c.Diet, c.SensitiveVolume+c.ResistantVolume)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println("\nrun a case with: oncosim live --case <id>")
	return nil
}

func listPatientPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tAGE\tSMOKER\tPACK-YEARS\tDIET\tGENETIC")
	names := patient.ListPresets()
	sort.Strings(names)
	for _, name := range names {
		p, _ := patient.GetPreset(name)
		fmt.Fprintf(w, "%s\t%d\t%v\t%.0f\t%s\t%.1f\n",
			name, p.Age, p.Smoker, p.PackYears, p.Diet, p.GeneticFactor)
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tMODE\tCASE\tTREATMENT\tDAYS\tFINAL\tSTAGE")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.0f\t%.2f\t%s\n",
			run.ID,
			run.CreatedAt.Format("2006-01-02 15:04:05"),
			run.Mode,
			run.CaseID,
			run.Treatment,
			run.Duration,
			run.FinalVolume,
			run.FinalStage,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	defer st.Close()

	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	trajectory, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("treatment: %s, final stage %s\n\n", meta.Treatment, meta.FinalStage)
	fmt.Println(viz.PlotTrajectory(trajectory, "total volume, cm³"))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	defer st.Close()

	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	trajectory, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSONTo(os.Stdout, *meta, trajectory)
}

func compareArms(cmd *cobra.Command, args []string) error {
	sc, err := buildSessionConfig(cmd)
	if err != nil {
		return err
	}

	arms := make([]growth.Arm, 0, len(args))
	for _, name := range args {
		kind, err := treatment.Parse(name)
		if err != nil {
			return err
		}
		arms = append(arms, growth.Arm{Name: kind.String(), Kind: kind})
	}

	eng, err := growth.NewWithStep(sc.Profile, stepOrDefault(sc.StepSize))
	if err != nil {
		return err
	}
	if err := eng.SetInitialConditions(sc.Sensitive, sc.Resistant); err != nil {
		return err
	}

	fmt.Printf("comparing %d arms over %.0f days\n\n", len(arms), days)
	results := growth.CompareTreatments(context.Background(), eng, arms, int(days))

	series := make([][]float64, 0, len(results))
	legends := make([]string, 0, len(results))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TREATMENT\tFINAL\tSTAGE")
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(w, "%s\terror: %v\t\n", r.Arm.Name, r.Err)
			continue
		}
		fmt.Fprintf(w, "%s\t%.3f cm³\t%s\n", r.Arm.Name, r.Final.Total(), r.FinalStage)
		totals := make([]float64, len(r.Trajectory))
		for i, p := range r.Trajectory {
			totals[i] = p.State.Total()
		}
		series = append(series, totals)
		legends = append(legends, r.Arm.Name)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(viz.PlotSeries(series, legends))
	return nil
}

func stepOrDefault(step float64) float64 {
	if step == 0 {
		return integrators.DefaultStepSize
	}
	return step
}
