// Package config resolves the inputs and outputs of an evaluation run from
// the environment (optionally seeded by a .env file) and console flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/yumyai/annoteval/internal/util"
)

const DefaultDataDir = "./data"

// Environment variable names.
const (
	EnvDataDir       = "ANNOTEVAL_DATA"
	EnvOntology      = "ANNOTEVAL_ONTOLOGY"
	EnvTrain         = "ANNOTEVAL_TRAIN"
	EnvTest          = "ANNOTEVAL_TEST"
	EnvRules         = "ANNOTEVAL_RULES"
	EnvTerms         = "ANNOTEVAL_TERMS"
	EnvOutput        = "ANNOTEVAL_OUTPUT"
	EnvCurve         = "ANNOTEVAL_CURVE"
	EnvReport        = "ANNOTEVAL_REPORT"
	EnvDB            = "ANNOTEVAL_DB"
	EnvWorkers       = "ANNOTEVAL_WORKERS"
	EnvRelationships = "ANNOTEVAL_RELATIONSHIPS"
	EnvRestrict      = "ANNOTEVAL_RESTRICT_LABELS"
	EnvLogLevel      = "LOG_LEVEL"
)

var ErrMissingInput = errors.New("config: input file not found")

// Config holds everything one run needs. Empty optional paths disable the
// corresponding output.
type Config struct {
	DataDir string

	OntologyFile string
	TrainFile    string
	TestFile     string
	RulesFile    string
	TermsFile    string // optional vocabulary

	OutputFile string
	CurveFile  string // optional
	ReportFile string // optional
	DBFile     string // optional

	// Relationship types besides is_a that count as parent edges.
	Relationships  []string
	RestrictLabels bool
	Workers        int
}

// LoadDotEnv loads .env files into the environment without overriding
// variables that are already set. A missing file is reported, not fatal.
func LoadDotEnv(files ...string) error {
	return godotenv.Load(files...)
}

// FromEnv builds a Config from environment variables, falling back to the
// conventional file names under the data directory.
func FromEnv() (*Config, error) {
	dataDir := getenv(EnvDataDir, DefaultDataDir)
	inData := func(name string) string { return filepath.Join(dataDir, name) }

	cfg := &Config{
		DataDir:        dataDir,
		OntologyFile:   getenv(EnvOntology, inData("hp.obo")),
		TrainFile:      getenv(EnvTrain, inData("train.tsv")),
		TestFile:       getenv(EnvTest, inData("predictions.tsv")),
		RulesFile:      getenv(EnvRules, inData("rules_hp.txt")),
		TermsFile:      os.Getenv(EnvTerms),
		OutputFile:     getenv(EnvOutput, inData("predictions_max.tsv")),
		CurveFile:      os.Getenv(EnvCurve),
		ReportFile:     os.Getenv(EnvReport),
		DBFile:         os.Getenv(EnvDB),
		Relationships:  splitList(getenv(EnvRelationships, "part_of")),
		Workers:        1,
		RestrictLabels: false,
	}

	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("%s must be a positive integer, got %q", EnvWorkers, v)
		}
		cfg.Workers = n
	}
	if v := os.Getenv(EnvRestrict); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%s must be a boolean, got %q", EnvRestrict, v)
		}
		cfg.RestrictLabels = b
	}
	return cfg, nil
}

// Validate checks that every required input exists.
func (c *Config) Validate() error {
	inputs := []struct{ name, path string }{
		{"ontology", c.OntologyFile},
		{"training data", c.TrainFile},
		{"test data", c.TestFile},
		{"rules", c.RulesFile},
	}
	if c.TermsFile != "" {
		inputs = append(inputs, struct{ name, path string }{"terms", c.TermsFile})
	}

	var errs []error
	for _, in := range inputs {
		if !util.FileExists(in.path) {
			errs = append(errs, fmt.Errorf("%w: %s (%s)", ErrMissingInput, in.name, in.path))
		}
	}
	if c.RestrictLabels && c.TermsFile == "" {
		errs = append(errs, errors.New("config: restricting labels needs a terms file"))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("config: workers must be positive, got %d", c.Workers))
	}
	return errors.Join(errs...)
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
