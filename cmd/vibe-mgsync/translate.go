package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-mgsync/internal/duckdb"
	"github.com/inodb/vibe-mgsync/internal/genome"
	"github.com/inodb/vibe-mgsync/internal/offset"
	"github.com/inodb/vibe-mgsync/internal/output"
	"github.com/inodb/vibe-mgsync/internal/project"
)

// referenceTrack selects the reference genome's own translator.
const referenceTrack = "reference"

func newTranslateCmd() *cobra.Command {
	var (
		chrom      string
		genomeName string
		allele     string
		from       string
	)

	cmd := &cobra.Command{
		Use:   "translate [flags] <position>...",
		Short: "Convert positions between genome, reference and meta-genome coordinates",
		Long: `Translate positions using the offset lists stored by 'vibe-mgsync sync'.

Each position is read in the --from coordinate space and printed in all three.
Use --genome reference for the reference genome track.`,
		Example: `  vibe-mgsync translate --chrom 1 --genome G1 --allele A 1001 2000
  vibe-mgsync translate --chrom 1 --genome G1 --allele B --from meta 1004
  vibe-mgsync translate --chrom 1 --genome reference 1001`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(cmd.OutOrStdout(), chrom, genomeName, allele, from, args)
		},
	}

	cmd.Flags().StringVar(&chrom, "chrom", "", "Chromosome")
	cmd.Flags().StringVar(&genomeName, "genome", referenceTrack, "Genome name")
	cmd.Flags().StringVar(&allele, "allele", "A", "Allele: A (first) or B (second)")
	cmd.Flags().StringVar(&from, "from", "genome", "Input coordinate space: genome, reference or meta")
	_ = cmd.MarkFlagRequired("chrom")

	return cmd
}

func runTranslate(out io.Writer, chrom, genomeName, allele, from string, args []string) error {
	positions := make([]int64, len(args))
	for i, a := range args {
		p, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid position %q", a)
		}
		positions[i] = p
	}

	store, err := duckdb.Open(viper.GetString("db"))
	if err != nil {
		return err
	}
	defer store.Close()

	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()
	warnIfStale(store, logger)

	var (
		tr    *offset.Translator
		track string
	)
	if genomeName == referenceTrack {
		tr, err = store.ReferenceTranslator(chrom)
		track = chrom + ":" + referenceTrack
	} else {
		a, aerr := genome.ParseAllele(allele)
		if aerr != nil {
			return aerr
		}
		key := project.TrackKey{Chromosome: chrom, Genome: genomeName, Allele: a}
		tr, err = store.Translator(key)
		track = key.String()
	}
	if err != nil {
		return err
	}

	w := output.NewPositionWriter(out)
	if err := w.WriteHeader(); err != nil {
		return err
	}
	for _, pos := range positions {
		g, exact, err := toGenome(tr, from, pos)
		if err != nil {
			return err
		}
		if err := w.Write(track, tr.Position(g), exact); err != nil {
			return err
		}
	}
	return w.Flush()
}

// warnIfStale logs when a VCF file recorded by sync changed since.
func warnIfStale(store *duckdb.Store, logger *zap.Logger) {
	stored, err := store.Sources()
	if err != nil {
		logger.Warn("read sources", zap.Error(err))
		return
	}
	var current []duckdb.FileFingerprint
	for _, fp := range stored {
		now, err := duckdb.StatFile(fp.Path)
		if err != nil {
			logger.Warn("source file no longer readable", zap.String("path", fp.Path), zap.Error(err))
			return
		}
		current = append(current, now)
	}
	ok, err := store.SourcesCurrent(current)
	if err != nil {
		logger.Warn("check sources", zap.Error(err))
		return
	}
	if !ok {
		logger.Warn("VCF files changed since last sync; offsets may be stale")
	}
}

// toGenome converts pos from the named coordinate space to genome
// coordinates.
func toGenome(tr *offset.Translator, from string, pos int64) (int64, bool, error) {
	switch from {
	case "genome":
		return pos, true, nil
	case "reference":
		g, ok := tr.FromReferencePosition(pos)
		return g, ok, nil
	case "meta":
		g, ok := tr.FromMetaGenomePosition(pos)
		return g, ok, nil
	}
	return 0, false, fmt.Errorf("unknown coordinate space %q (want genome, reference or meta)", from)
}
