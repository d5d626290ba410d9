package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/inodb/vibe-mgsync/internal/duckdb"
	"github.com/inodb/vibe-mgsync/internal/ingest"
	"github.com/inodb/vibe-mgsync/internal/output"
	"github.com/inodb/vibe-mgsync/internal/project"
	"github.com/inodb/vibe-mgsync/internal/synchronize"
	"github.com/inodb/vibe-mgsync/internal/vcf"
)

func newSyncCmd() *cobra.Command {
	var (
		outputFile   string
		variantsFile string
		noDB         bool
	)

	cmd := &cobra.Command{
		Use:   "sync [flags] <vcf-file>...",
		Short: "Build offset lists from VCF files",
		Long: `Ingest the VCF files of a project, then synchronize every chromosome,
genome and allele against the project-wide insertions.

Results are stored in the DuckDB database (--db) for later translate queries
and optionally written as tab-delimited text.`,
		Example: `  vibe-mgsync sync --project trio.yaml trio.vcf.gz
  vibe-mgsync sync --project trio.yaml -o offsets.tsv --no-db a.vcf b.vcf
  cat trio.vcf | vibe-mgsync sync --project trio.yaml -`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), args, outputFile, variantsFile, noDB)
		},
	}

	cmd.Flags().String("project", "", "Project file listing chromosomes and genomes")
	cmd.Flags().Int("workers", 0, "Synchronization workers (default: number of CPUs)")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Also write offset lists to this file ('-' for stdout)")
	cmd.Flags().StringVar(&variantsFile, "variants", "", "Write the aligned per-genome calls to this file")
	cmd.Flags().BoolVar(&noDB, "no-db", false, "Do not store results in the database")

	_ = viper.BindPFlag("project", cmd.Flags().Lookup("project"))
	_ = viper.BindPFlag("workers", cmd.Flags().Lookup("workers"))

	return cmd
}

func runSync(ctx context.Context, inputs []string, outputFile, variantsFile string, noDB bool) error {
	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	projectPath := viper.GetString("project")
	if projectPath == "" {
		return errors.New("no project file: use --project or 'vibe-mgsync config set project <file>'")
	}
	p, err := project.Load(projectPath)
	if err != nil {
		return err
	}
	logger.Info("loaded project",
		zap.String("name", p.Name),
		zap.Int("chromosomes", len(p.Chromosomes)),
		zap.Int("genomes", len(p.Genomes)))

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	// Phase 1: ingestion of every file must finish before synchronization.
	in, err := ingest.NewIngester(p)
	if err != nil {
		return err
	}
	in.SetLogger(logger)

	for _, path := range inputs {
		if err := ingestFile(ctx, in, path); err != nil {
			return err
		}
	}
	ingested := in.Result()
	logger.Info("ingestion complete",
		zap.Int("lines", ingested.Stats.Lines),
		zap.Int("offsets", ingested.Stats.Offsets),
		zap.Int("invalid_chromosomes", ingested.Stats.InvalidChromosomes),
		zap.Int("out_of_range", ingested.Stats.OutOfRange),
		zap.Int("malformed_genotypes", ingested.Stats.MalformedGenotypes),
		zap.Int("malformed_info", ingested.Stats.MalformedInfo),
		zap.Int("malformed_lines", ingested.Stats.MalformedLines))
	for _, name := range p.Genomes {
		var types []string
		for _, t := range vcf.VariantTypes {
			if ingested.Supports(name, t) {
				types = append(types, t.String())
			}
		}
		logger.Debug("variant types", zap.String("genome", name), zap.Strings("types", types))
	}

	// Phase 2: synchronization.
	s := synchronize.NewSynchronizer(viper.GetInt("workers"))
	s.SetLogger(logger)
	res, err := s.Run(ctx, p, ingested)
	if err != nil {
		return fmt.Errorf("synchronize: %w", err)
	}
	for _, e := range multierr.Errors(res.Failures) {
		logger.Error("track not synchronized", zap.Error(e))
	}

	if outputFile != "" {
		if err := writeOffsets(outputFile, p, res); err != nil {
			return err
		}
	}

	if variantsFile != "" {
		if err := writeVariants(variantsFile, p, ingested, res); err != nil {
			return err
		}
	}

	if noDB {
		return nil
	}
	return storeResult(viper.GetString("db"), inputs, res, logger)
}

func ingestFile(ctx context.Context, in *ingest.Ingester, path string) error {
	parser, err := vcf.NewParser(path)
	if err != nil {
		return err
	}
	defer parser.Close()

	if err := in.Ingest(ctx, parser); err != nil {
		return fmt.Errorf("ingest %s: %w", path, err)
	}
	return nil
}

func writeOffsets(path string, p *project.Project, res *synchronize.Result) error {
	out := os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	w := output.NewTabWriter(out)
	if err := w.WriteHeader(); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := w.WriteResult(p, res); err != nil {
		return fmt.Errorf("write offsets: %w", err)
	}
	return w.Flush()
}

func writeVariants(path string, p *project.Project, in ingest.Result, res *synchronize.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create variants file: %w", err)
	}
	defer f.Close()

	w := output.NewVariantWriter(f)
	if err := w.WriteHeader(); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, chrom := range p.ChromosomeNames() {
		if err := w.WriteChromosome(p, chrom, in.Variants, res.ReferenceTranslator(chrom)); err != nil {
			return fmt.Errorf("write variants: %w", err)
		}
	}
	return w.Flush()
}

func storeResult(dbPath string, inputs []string, res *synchronize.Result, logger *zap.Logger) error {
	store, err := duckdb.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.WriteResult(res); err != nil {
		return fmt.Errorf("store offsets: %w", err)
	}

	var fps []duckdb.FileFingerprint
	for _, path := range inputs {
		if path == "-" {
			continue
		}
		fp, err := duckdb.StatFile(path)
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}
		fps = append(fps, fp)
	}
	if err := store.ReplaceSources(fps); err != nil {
		return fmt.Errorf("record sources: %w", err)
	}

	metaOffsets, err := store.CountOffsets(duckdb.KindMeta)
	if err != nil {
		return fmt.Errorf("count offsets: %w", err)
	}
	logger.Info("stored offsets",
		zap.String("db", dbPath),
		zap.Int("tracks", len(res.Meta)),
		zap.Int("meta_offsets", metaOffsets))
	return nil
}
