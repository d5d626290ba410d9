package synchronize

import (
	"context"
	"runtime"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/inodb/vibe-mgsync/internal/genome"
	"github.com/inodb/vibe-mgsync/internal/ingest"
	"github.com/inodb/vibe-mgsync/internal/offset"
	"github.com/inodb/vibe-mgsync/internal/project"
)

// Result holds every finished offset list of a run.
type Result struct {
	// Reference is the normalized reference offset list per chromosome.
	Reference map[string]offset.List
	// ReferenceTrack is the meta list of the reference genome itself.
	ReferenceTrack map[string]offset.List
	// Meta maps each track to its meta - genome offsets.
	Meta map[project.TrackKey]offset.List
	// ToReference maps each track to its reference - genome offsets.
	ToReference map[project.TrackKey]offset.List
	// Failures collects per-track errors; those tracks have no lists.
	Failures error
}

// Translator returns the coordinate translator of a track.
func (r *Result) Translator(key project.TrackKey) (*offset.Translator, bool) {
	meta, ok := r.Meta[key]
	if !ok {
		return nil, false
	}
	return offset.NewTranslator(r.ToReference[key], meta), true
}

// ReferenceTranslator returns the translator of the reference genome track.
func (r *Result) ReferenceTranslator(chromosome string) *offset.Translator {
	return offset.NewTranslator(nil, r.ReferenceTrack[chromosome])
}

// Synchronizer runs the synchronization phase over a whole project.
type Synchronizer struct {
	workers int
	logger  *zap.Logger
}

// NewSynchronizer creates a synchronizer. If workers is 0, runtime.NumCPU()
// is used.
func NewSynchronizer(workers int) *Synchronizer {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Synchronizer{workers: workers, logger: zap.NewNop()}
}

// SetLogger sets the logger for warning and info messages.
func (s *Synchronizer) SetLogger(l *zap.Logger) {
	s.logger = l
}

// chromosomeResult is the private output of one chromosome task.
type chromosomeResult struct {
	reference      offset.List
	referenceTrack offset.List
	meta           map[project.TrackKey]offset.List
	toReference    map[project.TrackKey]offset.List
	failures       error
}

// Run synchronizes every (chromosome, genome, allele) track, one task per
// chromosome. in must be the complete ingestion result. A cancelled ctx
// discards all output.
func (s *Synchronizer) Run(ctx context.Context, p *project.Project, in ingest.Result) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	res := &Result{
		Reference:      make(map[string]offset.List, len(p.Chromosomes)),
		ReferenceTrack: make(map[string]offset.List, len(p.Chromosomes)),
		Meta:           make(map[project.TrackKey]offset.List),
		ToReference:    make(map[project.TrackKey]offset.List),
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, chrom := range p.ChromosomeNames() {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			cr, err := s.synchronizeChromosome(gctx, p, chrom, in)
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			res.Reference[chrom] = cr.reference
			res.ReferenceTrack[chrom] = cr.referenceTrack
			for k, l := range cr.meta {
				res.Meta[k] = l
			}
			for k, l := range cr.toReference {
				res.ToReference[k] = l
			}
			res.Failures = multierr.Append(res.Failures, cr.failures)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.logger.Info("synchronization complete",
		zap.Int("chromosomes", len(res.Reference)),
		zap.Int("tracks", len(res.Meta)),
		zap.Int("failures", len(multierr.Errors(res.Failures))))

	return res, nil
}

func (s *Synchronizer) synchronizeChromosome(ctx context.Context, p *project.Project, chrom string, in ingest.Result) (*chromosomeResult, error) {
	cr := &chromosomeResult{
		reference:   NormalizeReference(in.Reference[chrom]),
		meta:        make(map[project.TrackKey]offset.List, 2*len(p.Genomes)),
		toReference: make(map[project.TrackKey]offset.List, 2*len(p.Genomes)),
	}

	track, err := Synchronize(cr.reference, nil)
	if err != nil {
		return nil, err
	}
	cr.referenceTrack = track

	for _, name := range p.Genomes {
		for _, allele := range genome.Alleles {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			key := project.TrackKey{Chromosome: chrom, Genome: name, Allele: allele}
			raw := in.Alleles[key]

			meta, err := Synchronize(cr.reference, raw)
			if err == nil {
				var toRef offset.List
				toRef, err = GenomeToReference(raw)
				if err == nil {
					cr.meta[key] = meta
					cr.toReference[key] = toRef
					continue
				}
			}

			s.logger.Warn("skipping track",
				zap.String("track", key.String()),
				zap.Error(err))
			cr.failures = multierr.Append(cr.failures, &TrackError{Key: key, Err: err})
		}
	}

	s.logger.Debug("chromosome synchronized",
		zap.String("chrom", chrom),
		zap.Int("reference_offsets", len(cr.reference)))

	return cr, nil
}

// TrackError reports a track that could not be synchronized.
type TrackError struct {
	Key project.TrackKey
	Err error
}

func (e *TrackError) Error() string {
	return "track " + e.Key.String() + ": " + e.Err.Error()
}

func (e *TrackError) Unwrap() error {
	return e.Err
}
