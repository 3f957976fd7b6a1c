package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"cryptointel/agency"
)

// LogPerformance stores a metric sample
func (s *Store) LogPerformance(ctx context.Context, rec *PerformanceRecord) error {
	if rec == nil {
		return fmt.Errorf("performance record cannot be nil")
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = s.now()
	}
	rec.RecordedAt = rec.RecordedAt.UTC()

	if err := s.check(rec); err != nil {
		return err
	}

	contextJSON, err := marshalJSON(rec.Context)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO agent_performance (agent_id, metric, value, context, recorded_at)
		VALUES (?, ?, ?, ?, ?)
	`, rec.AgentID, rec.Metric, rec.Value, contextJSON, rec.RecordedAt)
	if err != nil {
		return fmt.Errorf("failed to insert performance record: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	rec.ID = id
	return nil
}

// ListPerformance returns samples newest first; empty agentID or metric matches all
func (s *Store) ListPerformance(ctx context.Context, agentID, metric string, limit int) ([]PerformanceRecord, error) {
	query := `SELECT id, agent_id, metric, value, context, recorded_at FROM agent_performance WHERE 1=1`
	var args []interface{}

	if agentID != "" {
		query += ` AND agent_id = ?`
		args = append(args, agentID)
	}
	if metric != "" {
		query += ` AND metric = ?`
		args = append(args, metric)
	}
	query += ` ORDER BY id DESC`
	query, args = limitClause(query, args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query performance: %w", err)
	}
	defer rows.Close()

	var out []PerformanceRecord
	for rows.Next() {
		var rec PerformanceRecord
		var contextJSON sql.NullString
		if err := rows.Scan(&rec.ID, &rec.AgentID, &rec.Metric, &rec.Value, &contextJSON, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan performance record: %w", err)
		}
		rec.Context = unmarshalMap(contextJSON)
		out = append(out, rec)
	}

	return out, rows.Err()
}

// AverageMetric returns the mean of a metric for an agent and the sample count
func (s *Store) AverageMetric(ctx context.Context, agentID, metric string) (float64, int, error) {
	var avg sql.NullFloat64
	var n int

	err := s.db.QueryRowContext(ctx, `
		SELECT AVG(value), COUNT(*) FROM agent_performance WHERE agent_id = ? AND metric = ?
	`, agentID, metric).Scan(&avg, &n)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to average metric: %w", err)
	}

	return avg.Float64, n, nil
}

// LogAlphaDiscovery stores a discovery
func (s *Store) LogAlphaDiscovery(ctx context.Context, d *AlphaDiscovery) error {
	if d == nil {
		return fmt.Errorf("discovery cannot be nil")
	}
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.Status == "" {
		d.Status = DiscoveryOpen
	}
	if d.DiscoveredAt.IsZero() {
		d.DiscoveredAt = s.now()
	}
	d.DiscoveredAt = d.DiscoveredAt.UTC()

	if err := s.check(d); err != nil {
		return err
	}

	data, err := marshalJSON(d.Data)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO alpha_discoveries (id, agent_id, symbol, kind, expected_value, confidence, timeframe, data, status, discovered_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.AgentID, d.Symbol, string(d.Kind), d.ExpectedValue, d.Confidence, d.Timeframe,
		data, string(d.Status), d.DiscoveredAt)
	if err != nil {
		return fmt.Errorf("failed to insert discovery: %w", err)
	}

	return nil
}

// ListAlphaDiscoveries returns discoveries newest first
func (s *Store) ListAlphaDiscoveries(ctx context.Context, f DiscoveryFilter) ([]AlphaDiscovery, error) {
	query := `
		SELECT id, agent_id, symbol, kind, expected_value, confidence, timeframe, data, status, discovered_at
		FROM alpha_discoveries WHERE 1=1`
	var args []interface{}
	var conditions []string

	if f.AgentID != "" {
		conditions = append(conditions, "agent_id = ?")
		args = append(args, f.AgentID)
	}
	if f.Symbol != "" {
		conditions = append(conditions, "symbol = ?")
		args = append(args, f.Symbol)
	}
	if f.Kind != "" {
		conditions = append(conditions, "kind = ?")
		args = append(args, string(f.Kind))
	}
	if f.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(f.Status))
	}

	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY discovered_at DESC, id ASC`
	query, args = limitClause(query, args, f.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query discoveries: %w", err)
	}
	defer rows.Close()

	var out []AlphaDiscovery
	for rows.Next() {
		var d AlphaDiscovery
		var kind, status string
		var timeframe, data sql.NullString
		if err := rows.Scan(&d.ID, &d.AgentID, &d.Symbol, &kind, &d.ExpectedValue, &d.Confidence,
			&timeframe, &data, &status, &d.DiscoveredAt); err != nil {
			return nil, fmt.Errorf("failed to scan discovery: %w", err)
		}
		d.Kind = DiscoveryKind(kind)
		d.Status = DiscoveryStatus(status)
		d.Timeframe = timeframe.String
		d.Data = unmarshalMap(data)
		out = append(out, d)
	}

	return out, rows.Err()
}

// UpdateDiscoveryStatus marks a discovery validated or invalidated
func (s *Store) UpdateDiscoveryStatus(ctx context.Context, id string, status DiscoveryStatus) error {
	switch status {
	case DiscoveryOpen, DiscoveryValidated, DiscoveryInvalidated:
	default:
		return fmt.Errorf("invalid discovery status: %s", status)
	}

	res, err := s.db.ExecContext(ctx, `UPDATE alpha_discoveries SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update discovery: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("discovery %s: %w", id, ErrNotFound)
	}
	return nil
}

// LogStrategicDecision stores an orchestrator decision
func (s *Store) LogStrategicDecision(ctx context.Context, d *StrategicDecision) error {
	if d == nil {
		return fmt.Errorf("decision cannot be nil")
	}
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = s.now()
	}
	d.CreatedAt = d.CreatedAt.UTC()

	if err := s.check(d); err != nil {
		return err
	}

	data, err := marshalJSON(d.Data)
	if err != nil {
		return err
	}
	ids := d.SuggestionIDs
	if ids == nil {
		ids = []string{}
	}
	idsJSON, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to marshal suggestion ids: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO strategic_decisions (id, agent_id, decision_type, regime, strategy, rationale, confidence, expected_impact, suggestion_ids, data, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.AgentID, d.DecisionType, string(d.Regime), d.Strategy, d.Rationale, d.Confidence,
		d.ExpectedImpact, string(idsJSON), data, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert decision: %w", err)
	}

	return nil
}

// ListStrategicDecisions returns decisions newest first
func (s *Store) ListStrategicDecisions(ctx context.Context, limit int) ([]StrategicDecision, error) {
	query := `
		SELECT id, agent_id, decision_type, regime, strategy, rationale, confidence, expected_impact, suggestion_ids, data, created_at
		FROM strategic_decisions ORDER BY created_at DESC, id ASC`
	query, args := limitClause(query, nil, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer rows.Close()

	var out []StrategicDecision
	for rows.Next() {
		var d StrategicDecision
		var regime, strategy, rationale, ids, data sql.NullString
		var impact sql.NullFloat64
		if err := rows.Scan(&d.ID, &d.AgentID, &d.DecisionType, &regime, &strategy, &rationale,
			&d.Confidence, &impact, &ids, &data, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		d.Regime = agency.Regime(regime.String)
		d.Strategy = strategy.String
		d.Rationale = rationale.String
		d.ExpectedImpact = impact.Float64
		if ids.Valid && ids.String != "" {
			_ = json.Unmarshal([]byte(ids.String), &d.SuggestionIDs)
		}
		d.Data = unmarshalMap(data)
		out = append(out, d)
	}

	return out, rows.Err()
}
