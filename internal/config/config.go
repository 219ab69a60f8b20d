// Package config loads and validates run configurations from YAML or JSON
// files. Validation fails fast: nothing evolves while the configuration is
// inconsistent.
package config

import (
	crand "crypto/rand"
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"lgp/internal/errors"
)

// Defaults for the options the file may omit.
const (
	DefaultMaxSegmentLength           = 10
	DefaultMaxCrossoverDistance       = 5
	DefaultMaxSegmentLengthDifference = 5
	DefaultConstantMutationStdDev     = 1.0
)

// Config holds every recognized option.
type Config struct {
	MinimumProgramLength        int `yaml:"minimumProgramLength" json:"minimumProgramLength"`
	MaximumProgramLength        int `yaml:"maximumProgramLength" json:"maximumProgramLength"`
	InitialMinimumProgramLength int `yaml:"initialMinimumProgramLength" json:"initialMinimumProgramLength"`
	InitialMaximumProgramLength int `yaml:"initialMaximumProgramLength" json:"initialMaximumProgramLength"`

	Operations    []string `yaml:"operations" json:"operations"`
	Constants     []string `yaml:"constants" json:"constants"`
	ConstantsRate float64  `yaml:"constantsRate" json:"constantsRate"`

	NumFeatures             int `yaml:"numFeatures" json:"numFeatures"`
	NumCalculationRegisters int `yaml:"numCalculationRegisters" json:"numCalculationRegisters"`

	PopulationSize int `yaml:"populationSize" json:"populationSize"`
	Generations    int `yaml:"generations" json:"generations"`
	NumOffspring   int `yaml:"numOffspring" json:"numOffspring"`

	CrossoverRate     float64 `yaml:"crossoverRate" json:"crossoverRate"`
	MacroMutationRate float64 `yaml:"macroMutationRate" json:"macroMutationRate"`
	MicroMutationRate float64 `yaml:"microMutationRate" json:"microMutationRate"`

	// Probability a macro-mutation chooses insertion over deletion.
	MacroMutationInsertionRate float64 `yaml:"macroMutationInsertionRate" json:"macroMutationInsertionRate"`

	// (register, operator, constant), non-negative, normalized on use.
	MicroMutationFieldProbabilities []float64 `yaml:"microMutationFieldProbabilities" json:"microMutationFieldProbabilities"`

	BranchInitializationRate float64 `yaml:"branchInitializationRate" json:"branchInitializationRate"`
	StoppingCriterion        float64 `yaml:"stoppingCriterion" json:"stoppingCriterion"`

	TournamentSize int `yaml:"tournamentSize" json:"tournamentSize"`

	NumberOfRuns      int `yaml:"numberOfRuns" json:"numberOfRuns"`
	NumberOfIslands   int `yaml:"numberOfIslands" json:"numberOfIslands"`
	MigrationInterval int `yaml:"migrationInterval" json:"migrationInterval"`
	MigrationSize     int `yaml:"migrationSize" json:"migrationSize"`

	// Optional: defaults to OS entropy when absent.
	RandomSeed *int64 `yaml:"randomSeed" json:"randomSeed"`

	// Crossover geometry; defaulted when omitted.
	MaxSegmentLength           int `yaml:"maxSegmentLength" json:"maxSegmentLength"`
	MaxCrossoverDistance       int `yaml:"maxCrossoverDistance" json:"maxCrossoverDistance"`
	MaxSegmentLengthDifference int `yaml:"maxSegmentLengthDifference" json:"maxSegmentLengthDifference"`

	ConstantMutationStdDev float64 `yaml:"constantMutationStdDev" json:"constantMutationStdDev"`

	// EffectiveInitialization selects the effective-program generator for
	// the initial population and effective macro-insertion.
	EffectiveInitialization bool `yaml:"effectiveInitialization" json:"effectiveInitialization"`
}

// Load reads a configuration file, dispatching on extension (.json parses
// as JSON, everything else as YAML), and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if filepath.Ext(path) == ".json" {
		err = json.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, errors.NewConfigurationError("", "failed to parse %s: %v", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.InitialMinimumProgramLength == 0 {
		c.InitialMinimumProgramLength = c.MinimumProgramLength
	}
	if c.InitialMaximumProgramLength == 0 {
		c.InitialMaximumProgramLength = c.MaximumProgramLength
	}
	if c.NumOffspring == 0 {
		c.NumOffspring = 2
	}
	if c.TournamentSize == 0 {
		c.TournamentSize = 2
	}
	if c.NumberOfRuns == 0 {
		c.NumberOfRuns = 1
	}
	if c.NumberOfIslands == 0 {
		c.NumberOfIslands = 1
	}
	if c.MigrationInterval == 0 {
		c.MigrationInterval = 1
	}
	if c.MaxSegmentLength == 0 {
		c.MaxSegmentLength = DefaultMaxSegmentLength
	}
	if c.MaxCrossoverDistance == 0 {
		c.MaxCrossoverDistance = DefaultMaxCrossoverDistance
	}
	if c.MaxSegmentLengthDifference == 0 {
		c.MaxSegmentLengthDifference = DefaultMaxSegmentLengthDifference
	}
	if c.ConstantMutationStdDev == 0 {
		c.ConstantMutationStdDev = DefaultConstantMutationStdDev
	}
	if c.MacroMutationInsertionRate == 0 {
		c.MacroMutationInsertionRate = 0.5
	}
}

// Validate checks every option for consistency.
func (c *Config) Validate() error {
	if c.MinimumProgramLength < 1 {
		return errors.NewConfigurationError("minimumProgramLength", "must be positive, got %d", c.MinimumProgramLength)
	}
	if c.MaximumProgramLength < c.MinimumProgramLength {
		return errors.NewConfigurationError("maximumProgramLength", "must be >= minimumProgramLength (%d), got %d",
			c.MinimumProgramLength, c.MaximumProgramLength)
	}
	if c.InitialMinimumProgramLength < c.MinimumProgramLength ||
		c.InitialMaximumProgramLength > c.MaximumProgramLength ||
		c.InitialMinimumProgramLength > c.InitialMaximumProgramLength {
		return errors.NewConfigurationError("initialMinimumProgramLength",
			"initial length range [%d, %d] must lie within [%d, %d]",
			c.InitialMinimumProgramLength, c.InitialMaximumProgramLength,
			c.MinimumProgramLength, c.MaximumProgramLength)
	}
	if len(c.Operations) == 0 {
		return errors.NewConfigurationError("operations", "at least one operation is required")
	}
	if _, err := c.ParsedConstants(); err != nil {
		return err
	}
	for _, rate := range []struct {
		name  string
		value float64
	}{
		{"constantsRate", c.ConstantsRate},
		{"crossoverRate", c.CrossoverRate},
		{"macroMutationRate", c.MacroMutationRate},
		{"microMutationRate", c.MicroMutationRate},
		{"branchInitializationRate", c.BranchInitializationRate},
		{"macroMutationInsertionRate", c.MacroMutationInsertionRate},
	} {
		if rate.value < 0 || rate.value > 1 {
			return errors.NewConfigurationError(rate.name, "must be in [0, 1], got %g", rate.value)
		}
	}
	if c.NumFeatures < 1 {
		return errors.NewConfigurationError("numFeatures", "must be positive, got %d", c.NumFeatures)
	}
	if c.NumCalculationRegisters < 1 {
		return errors.NewConfigurationError("numCalculationRegisters", "must be positive, got %d", c.NumCalculationRegisters)
	}
	if c.PopulationSize < 1 {
		return errors.NewConfigurationError("populationSize", "must be positive, got %d", c.PopulationSize)
	}
	if c.Generations < 1 {
		return errors.NewConfigurationError("generations", "must be positive, got %d", c.Generations)
	}
	if c.NumOffspring < 1 {
		return errors.NewConfigurationError("numOffspring", "must be positive, got %d", c.NumOffspring)
	}
	if c.TournamentSize < 1 {
		return errors.NewConfigurationError("tournamentSize", "must be positive, got %d", c.TournamentSize)
	}
	if _, _, _, err := c.FieldProbabilities(); err != nil {
		return err
	}
	if c.StoppingCriterion < 0 {
		return errors.NewConfigurationError("stoppingCriterion", "must be non-negative, got %g", c.StoppingCriterion)
	}
	if c.NumberOfRuns < 1 {
		return errors.NewConfigurationError("numberOfRuns", "must be >= 1, got %d", c.NumberOfRuns)
	}
	if c.NumberOfIslands < 1 {
		return errors.NewConfigurationError("numberOfIslands", "must be >= 1, got %d", c.NumberOfIslands)
	}
	if c.MigrationInterval < 1 {
		return errors.NewConfigurationError("migrationInterval", "must be >= 1, got %d", c.MigrationInterval)
	}
	if c.MigrationSize < 0 {
		return errors.NewConfigurationError("migrationSize", "must be >= 0, got %d", c.MigrationSize)
	}
	if c.NumberOfIslands > 1 && c.MigrationSize > c.PopulationSize/c.NumberOfIslands {
		return errors.NewConfigurationError("migrationSize", "exceeds island population %d",
			c.PopulationSize/c.NumberOfIslands)
	}
	if c.MaxSegmentLength < 1 {
		return errors.NewConfigurationError("maxSegmentLength", "must be positive, got %d", c.MaxSegmentLength)
	}
	if c.MaxCrossoverDistance < 0 {
		return errors.NewConfigurationError("maxCrossoverDistance", "must be >= 0, got %d", c.MaxCrossoverDistance)
	}
	if c.MaxSegmentLengthDifference < 0 {
		return errors.NewConfigurationError("maxSegmentLengthDifference", "must be >= 0, got %d", c.MaxSegmentLengthDifference)
	}
	if c.ConstantMutationStdDev < 0 {
		return errors.NewConfigurationError("constantMutationStdDev", "must be >= 0, got %g", c.ConstantMutationStdDev)
	}
	return nil
}

// ParsedConstants parses the configured constant literals.
func (c *Config) ParsedConstants() ([]float64, error) {
	out := make([]float64, len(c.Constants))
	for i, literal := range c.Constants {
		v, err := strconv.ParseFloat(literal, 64)
		if err != nil {
			return nil, errors.NewConfigurationError("constants", "cannot parse %q: %v", literal, err)
		}
		out[i] = v
	}
	return out, nil
}

// FieldProbabilities returns the normalized micro-mutation field
// probabilities (register, operator, constant).
func (c *Config) FieldProbabilities() (register, operator, constant float64, err error) {
	p := c.MicroMutationFieldProbabilities
	if len(p) != 3 {
		return 0, 0, 0, errors.NewConfigurationError("microMutationFieldProbabilities",
			"expected 3 values (register, operator, constant), got %d", len(p))
	}
	var sum float64
	for _, v := range p {
		if v < 0 {
			return 0, 0, 0, errors.NewConfigurationError("microMutationFieldProbabilities",
				"must be non-negative, got %g", v)
		}
		sum += v
	}
	if sum == 0 {
		return 0, 0, 0, errors.NewConfigurationError("microMutationFieldProbabilities", "must not all be zero")
	}
	return p[0] / sum, p[1] / sum, p[2] / sum, nil
}

// Seed returns the configured master seed, or one drawn from OS entropy
// when the option is absent.
func (c *Config) Seed() int64 {
	if c.RandomSeed != nil {
		return *c.RandomSeed
	}
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 1
	}
	return int64(binary.LittleEndian.Uint64(b[:]) >> 1)
}
