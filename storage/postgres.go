package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/AnshulAlgoS/StudyChamp-sub000/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var UnexpectedDatabaseError = errors.New("database-error")
var ErrResultNotFound = errors.New("result-not-found")

// PostgresArchive persists finalized room results for long-term profile and
// history views.
type PostgresArchive struct {
	pool *pgxpool.Pool
}

func NewPostgresArchive(ctx context.Context, connString string) (*PostgresArchive, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	return &PostgresArchive{pool: pool}, nil
}

func (a *PostgresArchive) Close() {
	a.pool.Close()
}

// SaveResult writes the result and its rows in one transaction. Writing the
// same room twice is rejected by the primary key; results are immutable.
func (a *PostgresArchive) SaveResult(ctx context.Context, res domain.Result) error {
	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", UnexpectedDatabaseError, err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO results(room_id, join_code, subject, task_description, total_tasks, time_limit_minutes,
			winner_id, winner_name, winner_xp, total_focus_seconds, avg_completion_ratio, completed_at)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		res.RoomId, res.JoinCode, res.Challenge.Subject, res.Challenge.TaskDescription,
		res.Challenge.TotalTasks, res.Challenge.TimeLimitMinutes,
		res.WinnerId, res.WinnerName, res.WinnerXP,
		res.TotalFocusSeconds, res.AvgCompletionRatio, res.CompletedAt)
	if err != nil {
		return fmt.Errorf("%w: %w", UnexpectedDatabaseError, err)
	}

	for _, row := range res.Rows {
		_, err = tx.Exec(ctx, `
			INSERT INTO result_rows(room_id, participant_id, display_name, position,
				tasks_completed, total_tasks, focus_minutes, violations, xp)
			VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			res.RoomId, row.ParticipantId, row.DisplayName, row.Position,
			row.TasksCompleted, row.TotalTasks, row.FocusTimeMinutes, row.Violations, row.XP)
		if err != nil {
			return fmt.Errorf("%w: %w", UnexpectedDatabaseError, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: %w", UnexpectedDatabaseError, err)
	}
	return nil
}

// GetResult loads an archived result by room id.
func (a *PostgresArchive) GetResult(ctx context.Context, roomId string) (domain.Result, error) {
	res := domain.Result{RoomId: roomId}

	row := a.pool.QueryRow(ctx, `
		SELECT join_code, subject, task_description, total_tasks, time_limit_minutes,
			winner_id, winner_name, winner_xp, total_focus_seconds, avg_completion_ratio, completed_at
		FROM results WHERE room_id = $1`, roomId)

	err := row.Scan(&res.JoinCode, &res.Challenge.Subject, &res.Challenge.TaskDescription,
		&res.Challenge.TotalTasks, &res.Challenge.TimeLimitMinutes,
		&res.WinnerId, &res.WinnerName, &res.WinnerXP,
		&res.TotalFocusSeconds, &res.AvgCompletionRatio, &res.CompletedAt)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return domain.Result{}, ErrResultNotFound
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return domain.Result{}, err
		default:
			return domain.Result{}, fmt.Errorf("%w: %w", UnexpectedDatabaseError, err)
		}
	}

	rows, err := a.pool.Query(ctx, `
		SELECT participant_id, display_name, position, tasks_completed, total_tasks, focus_minutes, violations, xp
		FROM result_rows WHERE room_id = $1
		ORDER BY CASE WHEN position = 0 THEN 2147483647 ELSE position END, tasks_completed DESC`, roomId)
	if err != nil {
		return domain.Result{}, fmt.Errorf("%w: %w", UnexpectedDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var r domain.ResultRow
		if err := rows.Scan(&r.ParticipantId, &r.DisplayName, &r.Position, &r.TasksCompleted,
			&r.TotalTasks, &r.FocusTimeMinutes, &r.Violations, &r.XP); err != nil {
			return domain.Result{}, fmt.Errorf("%w: %w", UnexpectedDatabaseError, err)
		}
		res.Rows = append(res.Rows, r)
	}
	if err := rows.Err(); err != nil {
		return domain.Result{}, fmt.Errorf("%w: %w", UnexpectedDatabaseError, err)
	}
	return res, nil
}

// RecentResults lists the latest archived results, newest first.
func (a *PostgresArchive) RecentResults(ctx context.Context, limit int) ([]domain.Result, error) {
	rows, err := a.pool.Query(ctx, `
		SELECT room_id, join_code, subject, winner_id, winner_name, winner_xp, completed_at
		FROM results ORDER BY completed_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", UnexpectedDatabaseError, err)
	}
	defer rows.Close()

	out := make([]domain.Result, 0, limit)
	for rows.Next() {
		var res domain.Result
		if err := rows.Scan(&res.RoomId, &res.JoinCode, &res.Challenge.Subject,
			&res.WinnerId, &res.WinnerName, &res.WinnerXP, &res.CompletedAt); err != nil {
			return nil, fmt.Errorf("%w: %w", UnexpectedDatabaseError, err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", UnexpectedDatabaseError, err)
	}
	return out, nil
}
