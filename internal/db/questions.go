package db

import "context"

// LinkQuestion associates a node with a question. Linking the same pair
// twice is a no-op. Returns whether a row was written.
func (d *DB) LinkQuestion(ctx context.Context, nodeID, questionID string) (bool, error) {
	res, err := d.conn.ExecContext(ctx, `
		INSERT INTO node_questions (node_id, question_id)
		SELECT ?, ?
		WHERE NOT EXISTS (
			SELECT 1 FROM node_questions WHERE node_id = ? AND question_id = ?
		)
	`, nodeID, questionID, nodeID, questionID)
	if err != nil {
		return false, unavailable("linking question", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, unavailable("linking question", err)
	}
	return n > 0, nil
}

// QuestionsForNode returns the question IDs linked to a node, in link order.
func (d *DB) QuestionsForNode(ctx context.Context, nodeID string) ([]string, error) {
	return d.stringColumn(ctx, "querying node questions",
		`SELECT question_id FROM node_questions WHERE node_id = ? ORDER BY id`, nodeID)
}

// NodesForQuestion returns the node IDs linked to a question, in link order.
func (d *DB) NodesForQuestion(ctx context.Context, questionID string) ([]string, error) {
	return d.stringColumn(ctx, "querying question nodes",
		`SELECT node_id FROM node_questions WHERE question_id = ? ORDER BY id`, questionID)
}

func (d *DB) stringColumn(ctx context.Context, op, query string, args ...any) ([]string, error) {
	rows, err := d.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable(op, err)
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, unavailable(op, err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(op, err)
	}
	return values, nil
}
