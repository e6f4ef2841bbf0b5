package pipeline

import (
	"context"
	"time"

	"github.com/rehabmetrics/gaitetl/pkg/anonymize"
	tbl "github.com/rehabmetrics/gaitetl/pkg/table"
	"github.com/rehabmetrics/gaitetl/pkg/transform/derive"
	"github.com/rehabmetrics/gaitetl/pkg/transform/standardize"
	"github.com/rehabmetrics/gaitetl/pkg/transform/validate"
)

// DatasetKind is the explicit tag a caller attaches to each dataset; it
// selects the rule set, replacing name-pattern matching.
type DatasetKind string

const (
	KindDeviceUsage     DatasetKind = "device_usage"
	KindPatientOutcomes DatasetKind = "patient_outcomes"
	// KindPassthrough datasets are anonymized and loaded without
	// domain-specific rules (e.g. the patient roster).
	KindPassthrough DatasetKind = "passthrough"
)

// minValidDate is the floor of the valid date window for every dataset.
var minValidDate = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

// columnClass is the family of kinds a declared column may arrive as.
type columnClass int

const (
	classString columnClass = iota
	classNumeric
	classDateOrString
)

func (c columnClass) matches(k tbl.Kind) bool {
	switch c {
	case classString:
		return k == tbl.KindString
	case classNumeric:
		return k == tbl.KindInt || k == tbl.KindFloat
	case classDateOrString:
		return k == tbl.KindDate || k == tbl.KindString
	}
	return false
}

func (c columnClass) String() string {
	switch c {
	case classString:
		return "string"
	case classNumeric:
		return "numeric"
	case classDateOrString:
		return "date"
	}
	return "invalid"
}

type columnReq struct {
	name  string
	class columnClass
}

type ruleSet struct {
	required []columnReq
	chain    func() *tbl.Chain
}

func ptr(v float64) *float64 { return &v }

var ruleSets = map[DatasetKind]ruleSet{
	KindDeviceUsage: {
		required: []columnReq{
			{"session_id", classString},
			{"patient_id", classString},
			{"device_id", classString},
			{"usage_date", classDateOrString},
			{"total_steps", classNumeric},
			{"distance_meters", classNumeric},
			{"active_time_minutes", classNumeric},
			{"battery_usage_percent", classNumeric},
			{"error_count", classNumeric},
		},
		chain: deviceUsageChain,
	},
	KindPatientOutcomes: {
		required: []columnReq{
			{"patient_id", classString},
			{"assessment_date", classDateOrString},
			{"facility_id", classString},
			{"gmfcs_level", classNumeric},
			{"walking_independence_score", classNumeric},
			{"mobility_score", classNumeric},
			{"quality_of_life_score", classNumeric},
			{"assessment_type", classString},
		},
		chain: patientOutcomesChain,
	},
	KindPassthrough: {
		chain: passthroughChain,
	},
}

func deviceUsageChain() *tbl.Chain {
	return tbl.NewChain().
		Add(&standardize.ParseDate{Column: "usage_date"}).
		Add(&derive.AverageSpeed{
			DistanceColumn: "distance_meters",
			MinutesColumn:  "active_time_minutes",
			OutColumn:      "average_speed_kmh",
		}).
		Add(&derive.QualityScore{
			StepsColumn:    "total_steps",
			DistanceColumn: "distance_meters",
			BatteryColumn:  "battery_usage_percent",
			ErrorsColumn:   "error_count",
			OutColumn:      "data_quality_score",
		}).
		Add(&validate.Range{Column: "total_steps", Min: ptr(0)}).
		Add(&validate.Range{Column: "distance_meters", Min: ptr(0)}).
		Add(&validate.Range{Column: "battery_usage_percent", Min: ptr(0), Max: ptr(100)}).
		Add(&validate.Range{Column: "active_time_minutes", Min: ptr(0)}).
		Add(&validate.Range{Column: "error_count", Min: ptr(0)}).
		Add(&validate.DateRange{Column: "usage_date", Min: minValidDate})
}

func patientOutcomesChain() *tbl.Chain {
	return tbl.NewChain().
		Add(&standardize.Trim{Column: "patient_id"}).
		Add(&anonymize.Anonymizer{}).
		Add(&standardize.ParseDate{Column: "assessment_date"}).
		Add(&standardize.Trim{Column: "assessment_type"}).
		Add(&standardize.Lower{Column: "assessment_type"}).
		Add(&standardize.MapValues{Column: "assessment_type", Map: map[string]string{
			"follow-up": "followup",
			"follow_up": "followup",
		}}).
		Add(&derive.Delta{
			CurrentColumn:  "walking_independence_score",
			BaselineColumn: "baseline_walking_score",
			OutColumn:      "walking_improvement",
		}).
		Add(&validate.Range{Column: "walking_independence_score", Min: ptr(0), Max: ptr(100)}).
		Add(&validate.Range{Column: "mobility_score", Min: ptr(0), Max: ptr(100)}).
		Add(&validate.Range{Column: "quality_of_life_score", Min: ptr(0), Max: ptr(100)}).
		Add(&validate.Range{Column: "gmfcs_level", Min: ptr(1), Max: ptr(5)}).
		Add(validate.NewInSet("assessment_type", []string{"baseline", "followup", "final"})).
		Add(&validate.DateRange{Column: "assessment_date", Min: minValidDate})
}

func passthroughChain() *tbl.Chain {
	return tbl.NewChain().
		Add(&standardize.Trim{Column: "patient_id"}).
		Add(&anonymize.Anonymizer{})
}

// Transform runs the kind's rule chain over a table. Before running it
// verifies that every declared column arrived with a checkable kind; a
// mismatch is a systemic problem with the dataset, not a per-row one.
func Transform(ctx context.Context, dataset string, kind DatasetKind, t *tbl.Table) (*tbl.Table, error) {
	rules, ok := ruleSets[kind]
	if !ok {
		return nil, &ValidationError{Dataset: dataset, Column: "", Reason: "unknown dataset kind " + string(kind)}
	}
	for _, req := range rules.required {
		for _, cs := range t.Schema().Columns {
			if cs.Name == req.name && !req.class.matches(cs.Type) {
				return nil, &ValidationError{
					Dataset: dataset,
					Column:  req.name,
					Reason:  "expected " + req.class.String() + " column, got " + cs.Type.String(),
				}
			}
		}
	}
	return rules.chain().Run(ctx, t)
}
