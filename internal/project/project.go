// Package project describes the chromosomes and genomes a run works on.
package project

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"github.com/inodb/vibe-mgsync/internal/genome"
	"github.com/inodb/vibe-mgsync/internal/vcf"
)

var (
	ErrNoChromosomes     = errors.New("project has no chromosomes")
	ErrNoGenomes         = errors.New("project has no genomes")
	ErrInvalidChromosome = errors.New("chromosome not in project")
	ErrOutOfRange        = errors.New("position outside chromosome")
)

// Chromosome is one sequence of the reference assembly. A zero Length
// leaves positions unchecked.
type Chromosome struct {
	Name   string `mapstructure:"name" yaml:"name"`
	Length int64  `mapstructure:"length" yaml:"length"`
}

// Project is the context passed to ingestion and synchronization.
type Project struct {
	Name        string       `mapstructure:"name" yaml:"name"`
	Chromosomes []Chromosome `mapstructure:"chromosomes" yaml:"chromosomes"`
	Genomes     []string     `mapstructure:"genomes" yaml:"genomes"`

	chromIndex  map[string]string
	chromLength map[string]int64
	genomeIndex map[string]bool
}

// New creates a project over the given chromosomes and genome names.
func New(chromosomes []Chromosome, genomes []string) *Project {
	p := &Project{Chromosomes: chromosomes, Genomes: genomes}
	p.buildIndex()
	return p
}

// Load reads a project description (YAML, JSON or TOML) with viper.
func Load(path string) (*Project, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read project file: %w", err)
	}

	var p Project
	if err := v.Unmarshal(&p); err != nil {
		return nil, fmt.Errorf("decode project file: %w", err)
	}
	p.buildIndex()

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Project) buildIndex() {
	p.chromIndex = make(map[string]string, 2*len(p.Chromosomes))
	p.chromLength = make(map[string]int64, len(p.Chromosomes))
	for _, c := range p.Chromosomes {
		p.chromIndex[c.Name] = c.Name
		p.chromLength[c.Name] = c.Length
		// Also accept the name with or without the "chr" prefix.
		if norm := vcf.NormalizeChrom(c.Name); norm != c.Name {
			p.chromIndex[norm] = c.Name
		} else {
			p.chromIndex["chr"+c.Name] = c.Name
		}
	}
	p.genomeIndex = make(map[string]bool, len(p.Genomes))
	for _, g := range p.Genomes {
		p.genomeIndex[g] = true
	}
}

// Validate reports structural problems that must stop a run before it starts.
func (p *Project) Validate() error {
	if len(p.Chromosomes) == 0 {
		return ErrNoChromosomes
	}
	if len(p.Genomes) == 0 {
		return ErrNoGenomes
	}
	seen := make(map[string]bool, len(p.Chromosomes))
	for _, c := range p.Chromosomes {
		if c.Name == "" {
			return errors.New("project has a chromosome without a name")
		}
		if seen[c.Name] {
			return fmt.Errorf("duplicate chromosome %q", c.Name)
		}
		if c.Length < 0 {
			return fmt.Errorf("chromosome %q has negative length %d", c.Name, c.Length)
		}
		seen[c.Name] = true
	}
	return nil
}

// ResolveChromosome maps a VCF chromosome name to the project's name for it.
func (p *Project) ResolveChromosome(name string) (string, error) {
	if p.chromIndex == nil {
		p.buildIndex()
	}
	if c, ok := p.chromIndex[name]; ok {
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidChromosome, name)
}

// CheckPosition reports ErrOutOfRange when pos is not a 1-based position
// of chromosome, which must be a name returned by ResolveChromosome.
func (p *Project) CheckPosition(chromosome string, pos int64) error {
	if p.chromLength == nil {
		p.buildIndex()
	}
	length := p.chromLength[chromosome]
	if pos < 1 || (length > 0 && pos > length) {
		return fmt.Errorf("%w: %s:%d (length %d)", ErrOutOfRange, chromosome, pos, length)
	}
	return nil
}

// HasGenome reports whether name is one of the project's genomes.
func (p *Project) HasGenome(name string) bool {
	if p.genomeIndex == nil {
		p.buildIndex()
	}
	return p.genomeIndex[name]
}

// ChromosomeNames returns chromosome names in project order.
func (p *Project) ChromosomeNames() []string {
	names := make([]string, len(p.Chromosomes))
	for i, c := range p.Chromosomes {
		names[i] = c.Name
	}
	return names
}

// TrackKey identifies one (chromosome, genome, allele) offset list.
type TrackKey struct {
	Chromosome string
	Genome     string
	Allele     genome.Allele
}

func (k TrackKey) String() string {
	return fmt.Sprintf("%s:%s:%s", k.Chromosome, k.Genome, k.Allele)
}

// GenomeKey identifies one genome's variant stream on one chromosome.
type GenomeKey struct {
	Chromosome string
	Genome     string
}
