// Package gen builds realistic raw fixtures for exercising the pipeline.
// Randomness always flows from an explicit seeded source, never from global
// state, so a seed reproduces byte-identical fixtures.
package gen

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/rehabmetrics/gaitetl/pkg/io/csvio"
	"github.com/rehabmetrics/gaitetl/pkg/io/jsonio"
	tbl "github.com/rehabmetrics/gaitetl/pkg/table"
)

type Generator struct {
	rng *rand.Rand
	now time.Time
}

func New(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed)), now: time.Now().UTC()}
}

var (
	diagnoses       = []string{"Cerebral Palsy", "Spina Bifida", "Muscular Dystrophy", "Spinal Cord Injury"}
	genders         = []string{"Male", "Female", "Other"}
	regions         = []string{"North America", "Europe", "Asia"}
	assessmentTypes = []string{"baseline", "followup", "final"}
)

func (g *Generator) pick(vals []string) string { return vals[g.rng.Intn(len(vals))] }

func (g *Generator) daysAgo(min, max int) string {
	d := g.now.AddDate(0, 0, -(min + g.rng.Intn(max-min+1)))
	return d.Format(tbl.DateFormat)
}

// Patients builds the enrollment roster.
func (g *Generator) Patients(n int) *tbl.Table {
	t := tbl.New(tbl.Schema{Columns: []tbl.ColumnSchema{
		{Name: "patient_id", Type: tbl.KindString, Nullable: true},
		{Name: "age_at_enrollment", Type: tbl.KindInt, Nullable: true},
		{Name: "gender", Type: tbl.KindString, Nullable: true},
		{Name: "diagnosis_category", Type: tbl.KindString, Nullable: true},
		{Name: "enrollment_date", Type: tbl.KindString, Nullable: true},
		{Name: "region", Type: tbl.KindString, Nullable: true},
	}})
	for i := 1; i <= n; i++ {
		t.AppendNullRow()
		r := t.Rows() - 1
		_ = t.SetCell(r, "patient_id", fmt.Sprintf("PAT%04d", i))
		_ = t.SetCell(r, "age_at_enrollment", int64(3+g.rng.Intn(16)))
		_ = t.SetCell(r, "gender", g.pick(genders))
		_ = t.SetCell(r, "diagnosis_category", g.pick(diagnoses))
		_ = t.SetCell(r, "enrollment_date", g.daysAgo(30, 365))
		_ = t.SetCell(r, "region", g.pick(regions))
	}
	return t
}

// DeviceUsage builds telemetry sessions for nPatients patients across
// nDevices devices.
func (g *Generator) DeviceUsage(n, nPatients, nDevices int) *tbl.Table {
	t := tbl.New(tbl.Schema{Columns: []tbl.ColumnSchema{
		{Name: "session_id", Type: tbl.KindString, Nullable: true},
		{Name: "patient_id", Type: tbl.KindString, Nullable: true},
		{Name: "device_id", Type: tbl.KindString, Nullable: true},
		{Name: "usage_date", Type: tbl.KindString, Nullable: true},
		{Name: "total_steps", Type: tbl.KindInt, Nullable: true},
		{Name: "distance_meters", Type: tbl.KindFloat, Nullable: true},
		{Name: "active_time_minutes", Type: tbl.KindInt, Nullable: true},
		{Name: "battery_usage_percent", Type: tbl.KindFloat, Nullable: true},
		{Name: "error_count", Type: tbl.KindInt, Nullable: true},
	}})
	for i := 0; i < n; i++ {
		steps := int64(100 + g.rng.Intn(4901))
		distance := float64(steps) * 0.6 // average step length in meters
		t.AppendNullRow()
		r := t.Rows() - 1
		_ = t.SetCell(r, "session_id", fmt.Sprintf("SESS%05d", i+1))
		_ = t.SetCell(r, "patient_id", fmt.Sprintf("PAT%04d", 1+g.rng.Intn(nPatients)))
		_ = t.SetCell(r, "device_id", fmt.Sprintf("DEV%03d", 1+g.rng.Intn(nDevices)))
		_ = t.SetCell(r, "usage_date", g.daysAgo(0, 180))
		_ = t.SetCell(r, "total_steps", steps)
		_ = t.SetCell(r, "distance_meters", distance)
		_ = t.SetCell(r, "active_time_minutes", int64(15+g.rng.Intn(46)))
		_ = t.SetCell(r, "battery_usage_percent", 5+g.rng.Float64()*20)
		_ = t.SetCell(r, "error_count", g.errorCount())
	}
	return t
}

// errorCount skews heavily toward error-free sessions.
func (g *Generator) errorCount() int64 {
	v := g.rng.Intn(100)
	switch {
	case v < 85:
		return 0
	case v < 95:
		return 1
	default:
		return 2
	}
}

// PatientOutcomes builds clinical assessments.
func (g *Generator) PatientOutcomes(n, nPatients, nFacilities int) *tbl.Table {
	t := tbl.New(tbl.Schema{Columns: []tbl.ColumnSchema{
		{Name: "patient_id", Type: tbl.KindString, Nullable: true},
		{Name: "assessment_date", Type: tbl.KindString, Nullable: true},
		{Name: "facility_id", Type: tbl.KindString, Nullable: true},
		{Name: "gmfcs_level", Type: tbl.KindInt, Nullable: true},
		{Name: "baseline_walking_score", Type: tbl.KindFloat, Nullable: true},
		{Name: "walking_independence_score", Type: tbl.KindFloat, Nullable: true},
		{Name: "mobility_score", Type: tbl.KindFloat, Nullable: true},
		{Name: "quality_of_life_score", Type: tbl.KindFloat, Nullable: true},
		{Name: "assessment_type", Type: tbl.KindString, Nullable: true},
	}})
	for i := 0; i < n; i++ {
		kind := g.pick(assessmentTypes)
		baseline := 20 + g.rng.Float64()*30
		walking := baseline
		mobility := 25 + g.rng.Float64()*30
		if kind != "baseline" {
			walking = 40 + g.rng.Float64()*45
			mobility = 45 + g.rng.Float64()*45
		}
		t.AppendNullRow()
		r := t.Rows() - 1
		_ = t.SetCell(r, "patient_id", fmt.Sprintf("PAT%04d", 1+g.rng.Intn(nPatients)))
		_ = t.SetCell(r, "assessment_date", g.daysAgo(0, 365))
		_ = t.SetCell(r, "facility_id", fmt.Sprintf("FAC%03d", 1+g.rng.Intn(nFacilities)))
		_ = t.SetCell(r, "gmfcs_level", int64(1+g.rng.Intn(5)))
		_ = t.SetCell(r, "baseline_walking_score", baseline)
		_ = t.SetCell(r, "walking_independence_score", walking)
		_ = t.SetCell(r, "mobility_score", mobility)
		_ = t.SetCell(r, "quality_of_life_score", 50+g.rng.Float64()*45)
		_ = t.SetCell(r, "assessment_type", kind)
	}
	return t
}

// WriteFixtures writes the three raw input files under dir.
func (g *Generator) WriteFixtures(dir string, patients, sessions, assessments int) error {
	if err := csvio.WriteFile(filepath.Join(dir, "patients_raw.csv"), g.Patients(patients), csvio.WriterOptions{}); err != nil {
		return err
	}
	if err := csvio.WriteFile(filepath.Join(dir, "device_usage_raw.csv"), g.DeviceUsage(sessions, patients, 50), csvio.WriterOptions{}); err != nil {
		return err
	}
	return jsonio.WriteFile(filepath.Join(dir, "patient_outcomes_raw.json"), g.PatientOutcomes(assessments, patients, 20))
}
