package db

import (
	"fmt"

	"github.com/chris/cetes/internal/history"
)

// AppendTurn stores one completed (user, assistant) pair for a session.
func (d *DB) AppendTurn(session, user, assistant string) error {
	_, err := d.conn.Exec(
		"INSERT INTO chat_turns (session, user, assistant) VALUES (?, ?, ?)",
		session, user, assistant,
	)
	if err != nil {
		return fmt.Errorf("appending chat turn: %w", err)
	}
	return nil
}

// SessionHistory returns a session's pairs, oldest first.
func (d *DB) SessionHistory(session string) ([]history.Pair, error) {
	rows, err := d.conn.Query(
		"SELECT user, assistant FROM chat_turns WHERE session = ? ORDER BY id",
		session,
	)
	if err != nil {
		return nil, fmt.Errorf("listing chat turns: %w", err)
	}
	defer rows.Close()

	var out []history.Pair
	for rows.Next() {
		var user, assistant string
		if err := rows.Scan(&user, &assistant); err != nil {
			return nil, fmt.Errorf("scanning chat turn: %w", err)
		}
		out = append(out, history.Answered(user, assistant))
	}
	return out, rows.Err()
}

// ClearSession deletes a session's history.
func (d *DB) ClearSession(session string) error {
	if _, err := d.conn.Exec("DELETE FROM chat_turns WHERE session = ?", session); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}
