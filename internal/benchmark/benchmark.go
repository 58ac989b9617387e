// Package benchmark holds the static stage reference data: typical
// financials per financing stage and the default PWERM scenario bands.
// The table ships as embedded defaults and can be swapped out from a
// config-supplied YAML file; it is read-only once loaded.
package benchmark

import (
	_ "embed"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/TalFeiny/Dilla-sub007/internal/model"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// StageBenchmark is the typical financial profile for one stage. Values
// are used only as fallbacks when actual data is absent.
type StageBenchmark struct {
	Revenue           float64 `yaml:"revenue" json:"revenue"`
	GrowthMultiplier  float64 `yaml:"growth_multiplier" json:"growth_multiplier"` // annual, 1.0 = flat
	BurnMonthly       float64 `yaml:"burn_monthly" json:"burn_monthly"`
	RunwayMonths      float64 `yaml:"runway_months" json:"runway_months"`
	ValuationMultiple float64 `yaml:"valuation_multiple" json:"valuation_multiple"` // revenue multiple
	RoundSize         float64 `yaml:"round_size" json:"round_size"`
	PreMoney          float64 `yaml:"pre_money" json:"pre_money"`
	OptionPoolPct     float64 `yaml:"option_pool_pct" json:"option_pool_pct"`
}

// ScenarioBand defines one default exit scenario relative to current
// valuation: the exit value is ExitMultiple x valuation.
type ScenarioBand struct {
	Name        string  `yaml:"name" json:"name"`
	Probability float64 `yaml:"probability" json:"probability"`
	ExitMultiple float64 `yaml:"exit_multiple" json:"exit_multiple"`
	Years       float64 `yaml:"years" json:"years"`
	ExitType    string  `yaml:"exit_type" json:"exit_type"`
}

// Table is the full benchmark dataset keyed by stage.
type Table struct {
	Stages    map[model.Stage]StageBenchmark `yaml:"stages"`
	Scenarios map[model.Stage][]ScenarioBand `yaml:"scenarios"`
}

// PlausibilityCeiling is the multiple of the stage benchmark above which an
// actual value is treated as implausible and replaced by inference.
const PlausibilityCeiling = 50.0

// Default returns the embedded benchmark table.
func Default() (*Table, error) {
	return parse(defaultsYAML)
}

// Load reads a benchmark table from the given YAML file, falling back to
// the embedded defaults when path is empty.
func Load(path string) (*Table, error) {
	if path == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "benchmark: read %s", path)
	}
	return parse(raw)
}

func parse(raw []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, eris.Wrap(err, "benchmark: unmarshal table")
	}
	if len(t.Stages) == 0 {
		return nil, eris.New("benchmark: table has no stages")
	}
	for _, st := range model.Stages {
		if _, ok := t.Stages[st]; !ok {
			return nil, eris.Errorf("benchmark: missing stage %s", st)
		}
	}
	if len(t.Scenarios) == 0 {
		return nil, eris.New("benchmark: table has no scenarios")
	}
	for _, st := range model.Stages {
		bands := t.Scenarios[st]
		if len(bands) == 0 {
			return nil, eris.Errorf("benchmark: missing scenarios for stage %s", st)
		}
		for _, b := range bands {
			if b.Probability <= 0 {
				return nil, eris.Errorf("benchmark: stage %s scenario %q has non-positive probability", st, b.Name)
			}
			if b.Years <= 0 {
				return nil, eris.Errorf("benchmark: stage %s scenario %q has non-positive years", st, b.Name)
			}
		}
	}
	return &t, nil
}

// ForStage returns the benchmark row for a stage. Unknown stages fall back
// to seed, matching the normalizer's low-confidence default.
func (t *Table) ForStage(stage model.Stage) StageBenchmark {
	if b, ok := t.Stages[stage]; ok {
		return b
	}
	return t.Stages[model.StageSeed]
}

// ScenarioBands returns the default scenario bands for a stage, falling
// back to seed when the stage has no entry.
func (t *Table) ScenarioBands(stage model.Stage) []ScenarioBand {
	if bands, ok := t.Scenarios[stage]; ok && len(bands) > 0 {
		return bands
	}
	return t.Scenarios[model.StageSeed]
}
