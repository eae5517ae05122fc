package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"

	"chronorate/domain/circadian"
	"chronorate/domain/core"
	"chronorate/internal/config"
	"chronorate/internal/container"
	"chronorate/internal/report"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "chronorate",
		Short:        "Synthetic circadian corpora and chronotype-aware rate adjustment",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newGenerateCmd(),
		newFeaturesCmd(),
		newInferCmd(),
		newRateCmd(),
		newSummaryCmd(),
		newListCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads .env and configuration and opens whatever infrastructure is configured.
func setup(ctx context.Context) (*container.Container, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	c, err := container.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create application container: %w", err)
	}
	if err := c.InitWithDatabase(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := c.InitModels(ctx); err != nil {
		c.Shutdown(ctx)
		return nil, fmt.Errorf("failed to initialize models: %w", err)
	}
	return c, nil
}

func newGenerateCmd() *cobra.Command {
	var (
		subjects  int
		days      int
		seed      int64
		workers   int
		noPerturb bool
		noExport  bool
		noPersist bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a perturbed synthetic population",
		Long: `Generate a population of synthetic subjects from the Van der Pol oscillator,
apply the behavioral perturbation stack and export the training artifacts.

Defaults come from GEN_* environment variables; flags override them.

Example: chronorate generate --subjects 1000 --days 30 --seed 42`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := setup(ctx)
			if err != nil {
				return err
			}
			defer c.Shutdown(ctx)

			req := c.BuildRequest()
			flags := cmd.Flags()
			if flags.Changed("subjects") {
				req.TotalSubjects = subjects
			}
			if flags.Changed("days") {
				req.DaysPerSubject = days
			}
			if flags.Changed("seed") {
				req.Seed = seed
			}
			if flags.Changed("workers") {
				req.Workers = workers
			}
			req.Perturb = !noPerturb
			req.Export = !noExport
			req.Persist = req.Persist && !noPersist

			result, err := c.Corpus.Build(ctx, req)
			if err != nil {
				return err
			}

			printSummary(result.Summary)
			for _, f := range result.Files {
				fmt.Printf("wrote %s\n", f)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&subjects, "subjects", 1000, "Number of subjects")
	cmd.Flags().IntVar(&days, "days", 30, "Days simulated per subject")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed for deterministic generation")
	cmd.Flags().IntVar(&workers, "workers", 1, "Concurrent subject workers")
	cmd.Flags().BoolVar(&noPerturb, "no-perturb", false, "Skip the perturbation stack")
	cmd.Flags().BoolVar(&noExport, "no-export", false, "Do not write JSON artifacts")
	cmd.Flags().BoolVar(&noPersist, "no-persist", false, "Do not store the population in the database")
	return cmd
}

func newFeaturesCmd() *cobra.Command {
	var runID string
	var variant string

	cmd := &cobra.Command{
		Use:   "features",
		Short: "Build the feature matrix for one signal variant",
		Long: `Extract the 9-dimensional feature vector for every subject of a stored population.

Example: chronorate features --variant stress`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := setup(ctx)
			if err != nil {
				return err
			}
			defer c.Shutdown(ctx)

			pop, err := c.Corpus.Load(ctx, core.RunID(runID))
			if err != nil {
				return err
			}
			set, err := c.Corpus.TrainingSet(pop, variant)
			if err != nil {
				return err
			}

			fmt.Printf("variant %s: %d rows x %d features\n", set.Variant, set.Len(), circadian.FeatureDim)
			for class := circadian.Early; class <= circadian.Late; class++ {
				fmt.Printf("  %-12s %d\n", class, set.ClassDistribution[class])
			}
			path, err := c.Store.WriteJSON(fmt.Sprintf("features_%s.json", set.Variant), set)
			if err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run-id", "", "Population run id (defaults to the exported population)")
	cmd.Flags().StringVar(&variant, "variant", circadian.VariantBase, "Signal variant: base|social_jetlag|stress|seasonal|travel_jetlag")
	return cmd
}

func newInferCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "infer [activity...]",
		Short: "Infer the chronotype of an hourly activity pattern",
		Long: `Infer a chronotype from hourly activity values given as arguments or as a
JSON array in --file.

Example: chronorate infer --file pattern.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			activity, err := readActivity(file, args)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			c, err := setup(ctx)
			if err != nil {
				return err
			}
			defer c.Shutdown(ctx)

			result := c.Scoring.Infer(ctx, activity)
			return printJSON(map[string]interface{}{
				"chronotype":      int(result.Label),
				"chronotype_name": result.LabelName,
				"confidence":      result.Confidence,
				"success":         result.Success,
				"degraded":        result.Degraded,
				"error":           result.ErrorMessage(),
			})
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "JSON file holding an array of hourly activity values")
	return cmd
}

func newRateCmd() *cobra.Command {
	var (
		baseRate   int64
		hour       int
		label      string
		confidence float64
		file       string
	)

	cmd := &cobra.Command{
		Use:   "rate",
		Short: "Adjust a base rate by hour and chronotype",
		Long: `Adjust a base rate. Pass --chronotype to price a known label, or --file with an
activity pattern to infer it first.

Example: chronorate rate --base 10000 --hour 3 --chronotype early`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := setup(ctx)
			if err != nil {
				return err
			}
			defer c.Shutdown(ctx)

			if file != "" {
				activity, err := readActivity(file, nil)
				if err != nil {
					return err
				}
				result, err := c.Scoring.Score(ctx, baseRate, hour, activity)
				if err != nil {
					return err
				}
				return printJSON(result)
			}

			class, err := parseLabel(label)
			if err != nil {
				return err
			}
			quote, err := c.Scoring.Adjust(baseRate, hour, class, confidence)
			if err != nil {
				return err
			}
			return printJSON(quote)
		},
	}

	cmd.Flags().Int64Var(&baseRate, "base", 10000, "Base rate in minor units")
	cmd.Flags().IntVar(&hour, "hour", 12, "Hour of day (0-23)")
	cmd.Flags().StringVar(&label, "chronotype", "intermediate", "Chronotype name or label (0, 1, 2)")
	cmd.Flags().Float64Var(&confidence, "confidence", 1, "Classifier confidence, recorded only")
	cmd.Flags().StringVar(&file, "file", "", "JSON activity pattern to infer the chronotype from")
	return cmd
}

func newSummaryCmd() *cobra.Command {
	var runID string
	var htmlPath string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarize a stored population",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := setup(ctx)
			if err != nil {
				return err
			}
			defer c.Shutdown(ctx)

			pop, err := c.Corpus.Load(ctx, core.RunID(runID))
			if err != nil {
				return err
			}
			summary := report.Summarize(pop)
			fmt.Print(summary.Markdown())

			if htmlPath != "" {
				if err := os.WriteFile(htmlPath, []byte(summary.HTML()), 0644); err != nil {
					return fmt.Errorf("failed to write %s: %w", htmlPath, err)
				}
				fmt.Printf("\nwrote %s\n", htmlPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run-id", "", "Population run id (defaults to the exported population)")
	cmd.Flags().StringVar(&htmlPath, "html", "", "Also write the report as HTML to this path")
	return cmd
}

func newListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List populations stored in the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := setup(ctx)
			if err != nil {
				return err
			}
			defer c.Shutdown(ctx)

			rows, err := c.Corpus.List(ctx, limit)
			if err != nil {
				return err
			}
			for _, r := range rows {
				fmt.Printf("%s  %s  subjects=%d days=%d early=%d intermediate=%d late=%d seed=%d\n",
					r.CreatedAt.Format("2006-01-02 15:04:05"), r.RunID, r.TotalSubjects, r.DaysPerSubject,
					r.EarlyCount, r.Intermediate, r.LateCount, r.Seed)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum populations to list (0 for all)")
	return cmd
}

func printSummary(s *report.Summary) {
	fmt.Printf("Population %s: %d subjects x %d days\n", s.RunID, s.TotalUsers, s.DaysPerSubject)
	for _, cs := range s.Classes {
		fmt.Printf("  %-12s %4d  tau=%.2f±%.2f  mu=%.2f±%.2f  peak=%.1fh\n",
			cs.Class, cs.Count, cs.Tau.Mean, cs.Tau.Std, cs.Mu.Mean, cs.Mu.Std, cs.PeakHour.Mean)
	}
	fmt.Printf("  events: %d stress, %d travel\n", s.StressEvents, s.TravelEvents)
}

func readActivity(file string, args []string) ([]float64, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file, err)
		}
		var values []float64
		if err := json.Unmarshal(data, &values); err != nil {
			return nil, fmt.Errorf("%s must hold a JSON array of numbers: %w", file, err)
		}
		return values, nil
	}

	values := make([]float64, 0, len(args))
	for _, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid activity value %q: %w", a, err)
		}
		values = append(values, v)
	}
	return values, nil
}

func parseLabel(s string) (circadian.ChronotypeClass, error) {
	if n, err := strconv.Atoi(s); err == nil {
		class := circadian.ChronotypeClass(n)
		if !class.Valid() {
			return 0, fmt.Errorf("chronotype label %d outside 0-2", n)
		}
		return class, nil
	}
	return circadian.ParseChronotype(s)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
