package db

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrInvalidPayload is returned when a wrong-answer payload is not JSON.
var ErrInvalidPayload = errors.New("wrong answer payload must be valid JSON")

// RecordWrongAnswer stores an opaque JSON record of a missed attempt.
func (d *DB) RecordWrongAnswer(ctx context.Context, payload json.RawMessage) (*WrongAnswer, error) {
	if !json.Valid(payload) {
		return nil, ErrInvalidPayload
	}
	w := WrongAnswer{Payload: payload, CreatedAt: d.nowMillis()}
	res, err := d.conn.ExecContext(ctx,
		`INSERT INTO wrong_answers (payload, created_at) VALUES (?, ?)`, string(payload), w.CreatedAt)
	if err != nil {
		return nil, unavailable("recording wrong answer", err)
	}
	if w.ID, err = res.LastInsertId(); err != nil {
		return nil, unavailable("recording wrong answer", err)
	}
	return &w, nil
}

// WrongAnswers returns up to limit records, newest first. limit <= 0 means all.
func (d *DB) WrongAnswers(ctx context.Context, limit int) ([]WrongAnswer, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := d.conn.QueryContext(ctx,
		`SELECT id, payload, created_at FROM wrong_answers ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, unavailable("listing wrong answers", err)
	}
	defer rows.Close()

	result := []WrongAnswer{}
	for rows.Next() {
		var (
			w       WrongAnswer
			payload string
		)
		if err := rows.Scan(&w.ID, &payload, &w.CreatedAt); err != nil {
			return nil, unavailable("listing wrong answers", err)
		}
		w.Payload = json.RawMessage(payload)
		result = append(result, w)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("listing wrong answers", err)
	}
	return result, nil
}
