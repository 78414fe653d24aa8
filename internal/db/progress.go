package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Kizuruki/historybowlreview/internal/mastery"
)

const progressColumns = `node_id, stars, platinum_until, times_correct, times_wrong, last_practiced`

// ProgressObserver is called after a progress update commits.
type ProgressObserver func(UserProgress)

// OnProgress registers an observer. Observers run synchronously, in
// registration order, on the goroutine that called UpdateProgress.
func (d *DB) OnProgress(fn ProgressObserver) {
	d.obsMu.Lock()
	d.observers = append(d.observers, fn)
	d.obsMu.Unlock()
}

func scanProgress(scanner interface{ Scan(dest ...any) error }) (UserProgress, error) {
	var p UserProgress
	err := scanner.Scan(&p.NodeID, &p.Stars, &p.PlatinumUntil, &p.TimesCorrect, &p.TimesWrong, &p.LastPracticed)
	return p, err
}

// Apply records one quiz attempt at now: bumps the matching counter,
// advances stars along the mastery ladder and sets or refreshes platinum.
func (p *UserProgress) Apply(correct bool, mode mastery.Mode, now time.Time) {
	if correct {
		p.TimesCorrect++
	} else {
		p.TimesWrong++
	}

	stars, platinum := mastery.Next(p.Stars, mode, correct)
	p.Stars = stars
	if platinum {
		until := mastery.PlatinumUntil(now).UnixMilli()
		p.PlatinumUntil = &until
	}
	p.LastPracticed = now.UnixMilli()
}

// UpdateProgress records a quiz attempt for nodeID and returns the updated
// record. The node's record is created with zero counters on first use.
// The node is not checked for existence.
//
// The read-modify-write runs in one transaction and is serialized per node
// within this process. Once started, the write is not abandoned if ctx is
// cancelled.
func (d *DB) UpdateProgress(ctx context.Context, nodeID string, correct bool, mode mastery.Mode) (*UserProgress, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	unlock := d.locks.Lock(nodeID)
	defer unlock()

	ctx = context.WithoutCancel(ctx)
	now := d.Now()

	var p UserProgress
	err := d.withTx(ctx, "updating progress", func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT `+progressColumns+` FROM user_progress WHERE node_id = ?`, nodeID)
		cur, err := scanProgress(row)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			cur = UserProgress{NodeID: nodeID, LastPracticed: now.UnixMilli()}
		case err != nil:
			return unavailable("updating progress", err)
		}

		cur.Apply(correct, mode, now)

		_, err = tx.ExecContext(ctx, `
			INSERT INTO user_progress (`+progressColumns+`) VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(node_id) DO UPDATE SET
				stars = excluded.stars,
				platinum_until = excluded.platinum_until,
				times_correct = excluded.times_correct,
				times_wrong = excluded.times_wrong,
				last_practiced = excluded.last_practiced
		`, cur.NodeID, cur.Stars, cur.PlatinumUntil, cur.TimesCorrect, cur.TimesWrong, cur.LastPracticed)
		if err != nil {
			return unavailable("updating progress", err)
		}
		p = cur
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.obsMu.RLock()
	observers := d.observers
	d.obsMu.RUnlock()
	for _, fn := range observers {
		fn(p)
	}

	return &p, nil
}

// GetProgress returns the progress record for a node, or ErrNotFound if the
// node has never been practiced.
func (d *DB) GetProgress(ctx context.Context, nodeID string) (*UserProgress, error) {
	p, err := scanProgress(d.conn.QueryRowContext(ctx,
		`SELECT `+progressColumns+` FROM user_progress WHERE node_id = ?`, nodeID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("reading progress", err)
	}
	return &p, nil
}

// AllProgress returns every progress record ordered by node ID.
func (d *DB) AllProgress(ctx context.Context) ([]UserProgress, error) {
	rows, err := d.conn.QueryContext(ctx, `SELECT `+progressColumns+` FROM user_progress ORDER BY node_id`)
	if err != nil {
		return nil, unavailable("listing progress", err)
	}
	defer rows.Close()

	result := []UserProgress{}
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, unavailable("listing progress", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("listing progress", err)
	}
	return result, nil
}

// DivisionMastery summarizes progress across one division's nodes.
// Stars[i] counts nodes at i stars; never-practiced nodes count as 0.
type DivisionMastery struct {
	Division        string                    `json:"division"`
	Nodes           int                       `json:"nodes"`
	Practiced       int                       `json:"practiced"`
	Stars           [mastery.MaxStars + 1]int `json:"stars"`
	PlatinumActive  int                       `json:"platinum_active"`
	PlatinumExpired int                       `json:"platinum_expired"`
	TimesCorrect    int                       `json:"times_correct"`
	TimesWrong      int                       `json:"times_wrong"`
}

// MasteryReport is the data behind the mastered-stats view.
type MasteryReport struct {
	Divisions []DivisionMastery `json:"divisions"`
	Total     DivisionMastery   `json:"total"`
}

// MasteryStats aggregates progress per division at the store's current time.
func (d *DB) MasteryStats(ctx context.Context) (*MasteryReport, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT n.division, p.node_id IS NOT NULL, COALESCE(p.stars, 0), p.platinum_until,
		       COALESCE(p.times_correct, 0), COALESCE(p.times_wrong, 0)
		FROM nodes n LEFT JOIN user_progress p ON p.node_id = n.id
		ORDER BY n.division
	`)
	if err != nil {
		return nil, unavailable("computing mastery stats", err)
	}
	defer rows.Close()

	now := d.Now()
	report := &MasteryReport{Divisions: []DivisionMastery{}, Total: DivisionMastery{Division: "all"}}
	for rows.Next() {
		var (
			division       string
			practiced      bool
			stars          int
			platinumUntil  *int64
			correct, wrong int
		)
		if err := rows.Scan(&division, &practiced, &stars, &platinumUntil, &correct, &wrong); err != nil {
			return nil, unavailable("computing mastery stats", err)
		}
		if n := len(report.Divisions); n == 0 || report.Divisions[n-1].Division != division {
			report.Divisions = append(report.Divisions, DivisionMastery{Division: division})
		}
		cur := &report.Divisions[len(report.Divisions)-1]
		for _, dm := range []*DivisionMastery{cur, &report.Total} {
			dm.add(practiced, stars, platinumUntil, correct, wrong, now)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("computing mastery stats", err)
	}
	return report, nil
}

func (dm *DivisionMastery) add(practiced bool, stars int, platinumUntil *int64, correct, wrong int, now time.Time) {
	dm.Nodes++
	if practiced {
		dm.Practiced++
	}
	if stars >= 0 && stars <= mastery.MaxStars {
		dm.Stars[stars]++
	}
	if platinumUntil != nil {
		if mastery.IsPlatinum(platinumUntil, now) {
			dm.PlatinumActive++
		} else {
			dm.PlatinumExpired++
		}
	}
	dm.TimesCorrect += correct
	dm.TimesWrong += wrong
}
