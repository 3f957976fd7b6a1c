package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"cryptointel/agency"
)

const suggestionColumns = `id, agent_id, type, data, confidence, urgency, rationale, status, created_at, reviewed_at`

// LogSuggestion validates and stores a suggestion, filling ID, status and
// timestamp when unset
func (s *Store) LogSuggestion(ctx context.Context, sg *Suggestion) error {
	if sg == nil {
		return fmt.Errorf("suggestion cannot be nil")
	}
	if sg.ID == "" {
		sg.ID = uuid.New().String()
	}
	if sg.Status == "" {
		sg.Status = SuggestionPending
	}
	if sg.CreatedAt.IsZero() {
		sg.CreatedAt = s.now()
	}
	sg.CreatedAt = sg.CreatedAt.UTC()

	if err := s.check(sg); err != nil {
		return err
	}

	data, err := marshalJSON(sg.Data)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO suggestions (`+suggestionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sg.ID, sg.AgentID, sg.Type, data, sg.Confidence, string(sg.Urgency), sg.Rationale,
		string(sg.Status), sg.CreatedAt, sg.ReviewedAt)
	if err != nil {
		return fmt.Errorf("failed to insert suggestion: %w", err)
	}

	return nil
}

// GetSuggestion retrieves a suggestion by ID
func (s *Store) GetSuggestion(ctx context.Context, id string) (*Suggestion, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+suggestionColumns+` FROM suggestions WHERE id = ?`, id)

	sg, err := scanSuggestion(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("suggestion %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query suggestion: %w", err)
	}
	return sg, nil
}

// ListSuggestions returns suggestions newest first
func (s *Store) ListSuggestions(ctx context.Context, f SuggestionFilter) ([]Suggestion, error) {
	query := `SELECT ` + suggestionColumns + ` FROM suggestions WHERE 1=1`
	var args []interface{}
	var conditions []string

	if f.AgentID != "" {
		conditions = append(conditions, "agent_id = ?")
		args = append(args, f.AgentID)
	}
	if f.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.Type != "" {
		conditions = append(conditions, "type = ?")
		args = append(args, f.Type)
	}
	if f.MinConfidence > 0 {
		conditions = append(conditions, "confidence >= ?")
		args = append(args, f.MinConfidence)
	}
	if f.Unreviewed {
		conditions = append(conditions, "NOT EXISTS (SELECT 1 FROM feedback WHERE feedback.suggestion_id = suggestions.id)")
	}

	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY created_at DESC, id ASC`
	query, args = limitClause(query, args, f.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query suggestions: %w", err)
	}
	defer rows.Close()

	var out []Suggestion
	for rows.Next() {
		sg, err := scanSuggestion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan suggestion: %w", err)
		}
		out = append(out, *sg)
	}

	return out, rows.Err()
}

// UpdateSuggestionStatus moves a suggestion to a new status and stamps the review time
func (s *Store) UpdateSuggestionStatus(ctx context.Context, id string, status SuggestionStatus) error {
	switch status {
	case SuggestionPending, SuggestionAccepted, SuggestionRejected, SuggestionExpired:
	default:
		return fmt.Errorf("invalid suggestion status: %s", status)
	}

	var reviewed interface{}
	if status != SuggestionPending {
		reviewed = s.now()
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE suggestions SET status = ?, reviewed_at = ? WHERE id = ?
	`, string(status), reviewed, id)
	if err != nil {
		return fmt.Errorf("failed to update suggestion: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("suggestion %s: %w", id, ErrNotFound)
	}
	return nil
}

// ExpireSuggestions marks pending suggestions created before cutoff as
// expired and returns how many changed
func (s *Store) ExpireSuggestions(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE suggestions SET status = ?, reviewed_at = ?
		WHERE status = ? AND created_at < ?
	`, string(SuggestionExpired), s.now(), string(SuggestionPending), cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to expire suggestions: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return int(n), nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSuggestion(row scanner) (*Suggestion, error) {
	var sg Suggestion
	var data, rationale sql.NullString
	var urgency, status string
	var reviewed sql.NullTime

	if err := row.Scan(&sg.ID, &sg.AgentID, &sg.Type, &data, &sg.Confidence, &urgency,
		&rationale, &status, &sg.CreatedAt, &reviewed); err != nil {
		return nil, err
	}

	sg.Data = unmarshalMap(data)
	sg.Urgency = agency.Urgency(urgency)
	sg.Rationale = rationale.String
	sg.Status = SuggestionStatus(status)
	if reviewed.Valid {
		t := reviewed.Time
		sg.ReviewedAt = &t
	}
	return &sg, nil
}
