package warehouse

import (
	"context"
	"database/sql"
)

// DeviceUsageStats aggregates the loaded device telemetry.
type DeviceUsageStats struct {
	TotalSessions             int     `json:"total_sessions"`
	TotalSteps                int64   `json:"total_steps"`
	TotalDistanceKM           float64 `json:"total_distance_km"`
	ActiveDevices             int     `json:"active_devices"`
	ActivePatients            int     `json:"active_patients"`
	AvgSessionDurationMinutes float64 `json:"avg_session_duration_minutes"`
	DateRange                 struct {
		Start string `json:"start"`
		End   string `json:"end"`
	} `json:"date_range"`
}

// OutcomeStats aggregates the loaded patient assessments.
type OutcomeStats struct {
	TotalPatients         int     `json:"total_patients"`
	TotalAssessments      int     `json:"total_assessments"`
	AvgWalkingImprovement float64 `json:"avg_walking_improvement"`
	HighIndependenceCount int     `json:"high_independence_count"`
	ImprovementRate       float64 `json:"improvement_rate"`
}

// ReliabilityStats aggregates device error telemetry.
type ReliabilityStats struct {
	TotalDevices            int     `json:"total_devices"`
	AvgErrorsPerSession     float64 `json:"avg_errors_per_session"`
	DevicesNeedingAttention int     `json:"devices_needing_attention"`
	ReliabilityScore        float64 `json:"reliability_score"`
}

func (w *DB) DeviceUsage(ctx context.Context) (*DeviceUsageStats, error) {
	var s DeviceUsageStats
	var start, end sql.NullString
	err := w.sql.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(total_steps), 0),
		       COALESCE(SUM(distance_meters), 0) / 1000.0,
		       COUNT(DISTINCT device_id),
		       COUNT(DISTINCT patient_id),
		       COALESCE(AVG(active_time_minutes), 0),
		       MIN(usage_date),
		       MAX(usage_date)
		FROM device_usage`).Scan(
		&s.TotalSessions, &s.TotalSteps, &s.TotalDistanceKM,
		&s.ActiveDevices, &s.ActivePatients, &s.AvgSessionDurationMinutes,
		&start, &end)
	if err != nil {
		return nil, err
	}
	s.DateRange.Start = start.String
	s.DateRange.End = end.String
	return &s, nil
}

func (w *DB) Outcomes(ctx context.Context) (*OutcomeStats, error) {
	var s OutcomeStats
	var avgImprovement, improvementRate sql.NullFloat64
	err := w.sql.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT anonymized_id),
		       COUNT(*),
		       AVG(walking_improvement),
		       COALESCE(SUM(CASE WHEN walking_independence_score >= 80 THEN 1 ELSE 0 END), 0),
		       AVG(CASE WHEN walking_improvement > 0 THEN 1.0 ELSE 0.0 END)
		FROM patient_outcomes`).Scan(
		&s.TotalPatients, &s.TotalAssessments, &avgImprovement,
		&s.HighIndependenceCount, &improvementRate)
	if err != nil {
		return nil, err
	}
	s.AvgWalkingImprovement = avgImprovement.Float64
	s.ImprovementRate = improvementRate.Float64
	return &s, nil
}

func (w *DB) Reliability(ctx context.Context) (*ReliabilityStats, error) {
	var s ReliabilityStats
	var avgErrors, reliability sql.NullFloat64
	err := w.sql.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT device_id),
		       AVG(error_count),
		       COUNT(DISTINCT CASE WHEN error_count >= 2 THEN device_id END),
		       AVG(CASE WHEN error_count = 0 THEN 1.0 ELSE 0.0 END)
		FROM device_usage`).Scan(
		&s.TotalDevices, &avgErrors, &s.DevicesNeedingAttention, &reliability)
	if err != nil {
		return nil, err
	}
	s.AvgErrorsPerSession = avgErrors.Float64
	s.ReliabilityScore = reliability.Float64
	return &s, nil
}
