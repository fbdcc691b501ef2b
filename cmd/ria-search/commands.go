package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ria-hunter/internal/app"
	"ria-hunter/internal/common/camunda"
	"ria-hunter/internal/common/config"
	"ria-hunter/internal/common/fundtype"
	"ria-hunter/internal/common/location"
	"ria-hunter/internal/common/logger"
	"ria-hunter/internal/models"
	"ria-hunter/pkg/registry"

	qe "ria-hunter/internal/workers/data-access/query-elasticsearch"
	qp "ria-hunter/internal/workers/data-access/query-postgresql"
	dql "ria-hunter/internal/workers/ria-search/decompose-query-llm"
	dqr "ria-hunter/internal/workers/ria-search/decompose-query-rules"
	er "ria-hunter/internal/workers/ria-search/execute-retrieval"
	mrc "ria-hunter/internal/workers/ria-search/merge-rank-candidates"
	sr "ria-hunter/internal/workers/ria-search/search-rias"
	ss "ria-hunter/internal/workers/ria-search/select-strategy"
)

// servedTaskTypes are the task types cmd/worker-manager can serve.
var servedTaskTypes = []string{
	sr.TaskType,
	dqr.TaskType,
	dql.TaskType,
	ss.TaskType,
	er.TaskType,
	mrc.TaskType,
	qp.TaskType,
	qe.TaskType,
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// cliLogger keeps stdout clean for command output.
func cliLogger(cfg *config.Config) logger.Logger {
	level := "warn"
	if cfg != nil && cfg.Logging.Level == "debug" {
		level = "debug"
	}
	return logger.NewZapAdapter(logger.NewWithOutput(level, "console", "stderr"))
}

func queryText(args []string) (string, error) {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return "", fmt.Errorf("query text is required")
	}
	return text, nil
}

// ==========================
// Offline commands
// ==========================

func parseLocationCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse-location <text>",
		Short: "Parse a free-form location into city and state",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc := location.Parse(strings.Join(args, " "))
			out := map[string]interface{}{"location": loc}
			if loc.City != nil {
				out["cityVariants"] = location.CityVariants(*loc.City)
			}
			return writeOutput(cmd, out)
		},
	}
}

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify <label>...",
		Short: "Map raw fund-type labels to canonical types",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			counts, _ := cmd.Flags().GetBool("counts")
			if !counts {
				out := make([]map[string]string, 0, len(args))
				for _, label := range args {
					out = append(out, map[string]string{
						"label":  label,
						"type":   string(fundtype.Classify(label)),
						"bucket": fundtype.BucketLabel(label),
					})
				}
				return writeOutput(cmd, out)
			}

			raw := make(map[string]int)
			for _, label := range args {
				raw[fundtype.BucketLabel(label)]++
			}
			buckets := make([]models.FundTypeCount, 0, len(raw))
			for label, n := range raw {
				buckets = append(buckets, models.FundTypeCount{Label: label, Count: n})
			}
			agg := fundtype.Aggregate(buckets)

			out := make([]map[string]interface{}, 0, len(agg))
			for _, t := range fundtype.SortedTypes(agg) {
				out = append(out, map[string]interface{}{"type": t, "count": agg[t]})
			}
			return writeOutput(cmd, out)
		},
	}
	cmd.Flags().Bool("counts", false, "aggregate labels into per-type counts")
	return cmd
}

func decomposeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decompose <text>",
		Short: "Show the structured filters a query decomposes into",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := queryText(args)
			if err != nil {
				return err
			}

			useLLM, _ := cmd.Flags().GetBool("llm")
			if !useLLM {
				return writeOutput(cmd, map[string]interface{}{
					"fallbackFilters": dqr.Decompose(text, dqr.LoadConfig().FallbackConfidence),
				})
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			fallback := dqr.Decompose(text, cfg.Search.FallbackConfidence)

			outcome := models.LLMOutcome{Reason: sr.ReasonLLMDisabled}
			backend, err := app.NewLLMBackend(cfg)
			if err != nil {
				return err
			}
			if backend != nil {
				llmCfg := app.LLMConfig(cfg)
				outcome = dql.NewDecomposer(backend, llmCfg.Timeout, llmCfg.MaxRetries).Attempt(cmd.Context(), text)
			}

			return writeOutput(cmd, map[string]interface{}{
				"fallbackFilters": fallback,
				"llmOutcome":      outcome,
				"selection":       ss.NewSelector(cfg.Search.ConfidenceThreshold).Select(outcome, fallback),
			})
		},
	}
	cmd.Flags().Bool("llm", false, "also run the configured LLM backend and strategy selection")
	return cmd
}

// ==========================
// Online commands
// ==========================

func addRequestFlags(cmd *cobra.Command) {
	cmd.Flags().Int("limit", 0, "maximum number of results")
	cmd.Flags().String("city", "", "city override")
	cmd.Flags().String("state", "", "state override (name or two-letter code)")
	cmd.Flags().Float64("min-aum", 0, "minimum assets under management")
	cmd.Flags().Bool("vc", false, "require (or, with --vc=false, exclude) venture capital activity")
}

func buildRequest(cmd *cobra.Command, args []string) (models.SearchRequest, error) {
	text, err := queryText(args)
	if err != nil {
		return models.SearchRequest{}, err
	}
	req := models.SearchRequest{Text: text}
	flags := cmd.Flags()

	if flags.Changed("limit") {
		limit, _ := flags.GetInt("limit")
		req.Limit = models.IntPtr(limit)
	}

	overrides := &models.FilterOverrides{}
	set := false
	if flags.Changed("city") {
		city, _ := flags.GetString("city")
		overrides.City, set = models.StringPtr(city), true
	}
	if flags.Changed("state") {
		state, _ := flags.GetString("state")
		overrides.State, set = models.StringPtr(state), true
	}
	if flags.Changed("min-aum") {
		minAum, _ := flags.GetFloat64("min-aum")
		overrides.MinAum, set = models.FloatPtr(minAum), true
	}
	if flags.Changed("vc") {
		vc, _ := flags.GetBool("vc")
		overrides.HasVcActivity, set = models.BoolPtr(vc), true
	}
	if set {
		req.Filters = overrides
	}
	return req, nil
}

func searchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Run the search pipeline in-process",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildRequest(cmd, args)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log := cliLogger(cfg)

			ctx := cmd.Context()
			stores, err := app.Connect(ctx, cfg, app.RetryPolicy{Attempts: 1}, log)
			if err != nil {
				return err
			}
			defer stores.Close()

			deps, err := app.NewSearchDependencies(cfg, stores, nil, log)
			if err != nil {
				return err
			}

			resp := sr.NewPipeline(app.SearchConfig(cfg), deps, log).Search(ctx, req)
			return writeResponse(cmd, resp)
		},
	}
	addRequestFlags(cmd)
	return cmd
}

func submitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit <text>",
		Short: "Start the search process on the workflow engine and wait for the result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildRequest(cmd, args)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			if err := validateAgainstRegistry(cfg.Registry.Path, req); err != nil {
				return err
			}

			client, err := camunda.NewClientWithConfig(&camunda.ClientConfig{
				GatewayAddress:         cfg.Camunda.BrokerAddress,
				UsePlaintextConnection: cfg.Camunda.UsePlaintext,
				ConnectionTimeout:      10 * time.Second,
				RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
			})
			if err != nil {
				return err
			}
			defer client.Close()

			resp, err := client.SubmitSearch(cmd.Context(), cfg.Camunda.SearchProcessID, req)
			if err != nil {
				return err
			}
			return writeResponse(cmd, resp)
		},
	}
	addRequestFlags(cmd)
	return cmd
}

// validateAgainstRegistry checks req against the registered input schema of
// the search activity. A missing registry skips the check.
func validateAgainstRegistry(path string, req models.SearchRequest) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return nil
	}
	activity, ok := reg.Find(sr.TaskType)
	if !ok {
		return nil
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return err
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(payload, &doc); err != nil {
		return err
	}

	if result := activity.ValidateInput(doc); !result.Valid {
		return fmt.Errorf("request rejected by %s input schema: %s", activity.ID, result.Error())
	}
	return nil
}

// ==========================
// Registry
// ==========================

func registryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect and maintain the activity registry",
	}
	cmd.PersistentFlags().String("path", "configs/activity-registry.json", "registry file path")

	validate := &cobra.Command{
		Use:   "validate",
		Short: "Check the registry against the task types the workers serve",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadRegistry(cmd)
			if err != nil {
				return err
			}
			if err := reg.Validate(servedTaskTypes); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registry valid: %d activities\n", len(reg.Activities))
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List registered activities",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadRegistry(cmd)
			if err != nil {
				return err
			}
			return writeActivities(cmd, reg.Activities)
		},
	}

	setStatus := &cobra.Command{
		Use:   "set-status <activity-id> <status>",
		Short: "Update the implementation status of one activity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("path")
			reg, err := registry.LoadRegistry(path)
			if err != nil {
				return err
			}
			for i := range reg.Activities {
				if reg.Activities[i].ID == args[0] {
					reg.Activities[i].ImplementationStatus = args[1]
					if err := reg.Save(path, time.Now()); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "updated %s: %s\n", args[0], args[1])
					return nil
				}
			}
			return fmt.Errorf("activity %s not found", args[0])
		},
	}

	cmd.AddCommand(validate, list, setStatus)
	return cmd
}

func loadRegistry(cmd *cobra.Command) (*registry.ActivityRegistry, error) {
	path, _ := cmd.Flags().GetString("path")
	return registry.LoadRegistry(path)
}
