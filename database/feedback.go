package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// RecordFeedback stores a verdict on an existing suggestion. AgentID defaults
// to the suggestion's author.
func (s *Store) RecordFeedback(ctx context.Context, fb *Feedback) error {
	if fb == nil {
		return fmt.Errorf("feedback cannot be nil")
	}
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = s.now()
	}
	fb.CreatedAt = fb.CreatedAt.UTC()

	if err := s.check(fb); err != nil {
		return err
	}

	var author string
	err := s.db.QueryRowContext(ctx, `SELECT agent_id FROM suggestions WHERE id = ?`, fb.SuggestionID).Scan(&author)
	if err == sql.ErrNoRows {
		return fmt.Errorf("suggestion %s: %w", fb.SuggestionID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to query suggestion: %w", err)
	}
	if fb.AgentID == "" {
		fb.AgentID = author
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO feedback (suggestion_id, agent_id, outcome, score, comment, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, fb.SuggestionID, fb.AgentID, string(fb.Outcome), fb.Score, fb.Comment, fb.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert feedback: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	fb.ID = id
	return nil
}

// ListFeedback returns feedback in insertion order
func (s *Store) ListFeedback(ctx context.Context, f FeedbackFilter) ([]Feedback, error) {
	query := `SELECT id, suggestion_id, agent_id, outcome, score, comment, created_at FROM feedback WHERE 1=1`
	var args []interface{}
	var conditions []string

	if f.SuggestionID != "" {
		conditions = append(conditions, "suggestion_id = ?")
		args = append(args, f.SuggestionID)
	}
	if f.AgentID != "" {
		conditions = append(conditions, "agent_id = ?")
		args = append(args, f.AgentID)
	}
	if f.AfterID > 0 {
		conditions = append(conditions, "id > ?")
		args = append(args, f.AfterID)
	}

	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY id ASC`
	query, args = limitClause(query, args, f.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer rows.Close()

	var out []Feedback
	for rows.Next() {
		var fb Feedback
		var outcome string
		var comment sql.NullString
		if err := rows.Scan(&fb.ID, &fb.SuggestionID, &fb.AgentID, &outcome, &fb.Score, &comment, &fb.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		fb.Outcome = FeedbackOutcome(outcome)
		fb.Comment = comment.String
		out = append(out, fb)
	}

	return out, rows.Err()
}

// Stats summarizes table sizes and mean suggestion confidence per agent
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{AgentConfidence: make(map[string]float64)}

	counts := []struct {
		query string
		args  []interface{}
		dest  *int
	}{
		{`SELECT COUNT(*) FROM suggestions`, nil, &st.Suggestions},
		{`SELECT COUNT(*) FROM suggestions WHERE status = ?`, []interface{}{string(SuggestionPending)}, &st.PendingSuggestions},
		{`SELECT COUNT(*) FROM suggestions WHERE status = ?`, []interface{}{string(SuggestionAccepted)}, &st.AcceptedSuggestions},
		{`SELECT COUNT(*) FROM alpha_discoveries`, nil, &st.Discoveries},
		{`SELECT COUNT(*) FROM strategic_decisions`, nil, &st.Decisions},
		{`SELECT COUNT(*) FROM feedback`, nil, &st.Feedback},
		{`SELECT COUNT(*) FROM agent_performance`, nil, &st.PerformanceRecords},
	}

	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query, c.args...).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("failed to count: %w", err)
		}
	}

	rows, err := s.db.QueryContext(ctx, `SELECT agent_id, AVG(confidence) FROM suggestions GROUP BY agent_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query agent confidence: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var agent string
		var avg float64
		if err := rows.Scan(&agent, &avg); err != nil {
			return nil, fmt.Errorf("failed to scan agent confidence: %w", err)
		}
		st.AgentConfidence[agent] = avg
	}

	return st, rows.Err()
}
