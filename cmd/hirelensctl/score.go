package main

import (
	"github.com/spf13/cobra"

	"hirelens-backend/internal/bootstrap"
	"hirelens-backend/internal/jobs"
	"hirelens-backend/internal/llm"
	"hirelens-backend/internal/scoring"
	"hirelens-backend/internal/shared/config"
)

type scoreOptions struct {
	skills     []string
	experience string
	education  string
	useAI      bool
}

func newScoreCmd() *cobra.Command {
	opts := &scoreOptions{}
	cmd := &cobra.Command{
		Use:   "score <file>",
		Short: "Score a resume against ad-hoc job requirements",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := parseFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			strategy := scoring.Strategy(scoring.NewEngine(scoring.RuleBased{}))
			if opts.useAI {
				cfg := config.Load()
				cfg.ScoringStrategy = scoring.StrategyAI
				var gen llm.Generator
				gen, err = bootstrap.NewGenerator(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				strategy = bootstrap.NewScorer(cfg, gen)
			}

			result, err := strategy.Score(cmd.Context(), fs, jobs.Requirements{
				Title:              "CLI job",
				RequiredSkills:     opts.skills,
				ExperienceRequired: opts.experience,
				Education:          opts.education,
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringSliceVar(&opts.skills, "skills", nil, "required skills, comma separated")
	cmd.Flags().StringVar(&opts.experience, "experience", "", `required experience, e.g. "3+ years"`)
	cmd.Flags().StringVar(&opts.education, "education", "", "required education level")
	cmd.Flags().BoolVar(&opts.useAI, "ai", false, "score with the configured AI provider, falling back to rules")
	return cmd
}
