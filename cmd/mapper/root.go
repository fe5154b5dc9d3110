package main

import (
	"context"
	"fmt"

	"github.com/gosuri/uiprogress"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/datadna/etl-mapper/pkg/config"
	"github.com/datadna/etl-mapper/pkg/connector"
	"github.com/datadna/etl-mapper/pkg/embed"
	"github.com/datadna/etl-mapper/pkg/mapper"
	"github.com/datadna/etl-mapper/pkg/store"
)

var (
	flagNoCache bool
	flagCSV     string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mapper",
		Short: "Profile warehouse schemas and propose column mappings",
		Long: `mapper profiles the columns of Snowflake schemas from sampled values
and proposes a best-match target column for every source column.
Signatures and mapping runs are cached in PostgreSQL.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false,
		"ignore cached signatures and mappings, always re-run")

	root.AddCommand(newProfileCmd())
	root.AddCommand(newMatchCmd())

	return root
}

func newProfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile <schema>",
		Short: "Profile every column of a schema and store its signatures",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMapper(cmd.Context(), func(ctx context.Context, m *mapper.Mapper) error {
				descriptors, err := m.ProfileSchema(ctx, args[0], !flagNoCache, progressBar("profiling"))
				if err != nil {
					return err
				}
				fmt.Printf("Profiled %d columns in schema %s\n", len(descriptors), args[0])
				return nil
			})
		},
	}
}

func newMatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match <source-schema> <target-schema>",
		Short: "Propose a best-match target column for every source column",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMapper(cmd.Context(), func(ctx context.Context, m *mapper.Mapper) error {
				results, err := m.MatchSchemas(ctx, args[0], args[1], !flagNoCache, progressBar("matching"))
				if err != nil {
					return err
				}

				matched := 0
				for _, r := range results {
					if r.Matched() {
						matched++
					}
				}
				fmt.Printf("Matched %d of %d source columns\n", matched, len(results))

				if flagCSV != "" {
					if err := mapper.WriteCSV(flagCSV, results); err != nil {
						return err
					}
					fmt.Printf("Wrote mapping CSV to %s\n", flagCSV)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&flagCSV, "csv", "", "export mapping results to a CSV file")
	return cmd
}

// withMapper loads config, builds the connectors, store and mapper, runs
// fn, and tears everything down.
func withMapper(ctx context.Context, fn func(context.Context, *mapper.Mapper) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger, err := buildLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer logger.Sync()

	factory := connector.NewConnectorFactory(cfg, logger)
	snow, pg, err := factory.CreateAllConnectors(ctx)
	if err != nil {
		return err
	}
	defer snow.Close()
	defer pg.Close()

	if err := snow.Validate(); err != nil {
		return err
	}
	if err := pg.Validate(); err != nil {
		return err
	}

	st := store.NewStore(pg.DB(), logger)
	if err := st.EnsureSchema(ctx); err != nil {
		return err
	}

	opts := []mapper.Option{
		mapper.WithStore(st),
		mapper.WithWorkerCount(cfg.WorkerPoolSize),
		mapper.WithSampleSize(cfg.SampleSize),
		mapper.WithCreatedBy(cfg.CreatedBy),
	}

	if cfg.Embeddings != nil && cfg.Embeddings.Enabled {
		logger.Info("Embeddings enabled", zap.String("model", cfg.Embeddings.Model))
		opts = append(opts, mapper.WithEmbedder(embed.NewOpenAIProvider(cfg.Embeddings, logger)))
	}

	return fn(ctx, mapper.New(snow, logger, opts...))
}

// progressBar adapts a uiprogress bar to the mapper's progress callback
func progressBar(label string) mapper.Progress {
	var bar *uiprogress.Bar
	return func(done, total int) {
		if bar == nil {
			uiprogress.Start()
			bar = uiprogress.AddBar(total).AppendCompleted().PrependElapsed()
			bar.PrependFunc(func(b *uiprogress.Bar) string {
				return label
			})
		}
		bar.Set(done)
		if done >= total {
			uiprogress.Stop()
		}
	}
}
