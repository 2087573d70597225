package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/model"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("store: not found")

const timeLayout = time.RFC3339Nano

// RunDetail 一次运行及其课程清单
type RunDetail struct {
	Summary model.RunSummary      `json:"summary"`
	Courses []model.CourseOutcome `json:"courses"`
}

// CreateRun 创建运行记录，状态为 processing
func (s *Store) CreateRun(ctx context.Context, run model.RunSummary) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, format, started_at, courses, status)
		VALUES (?, ?, ?, ?, 'processing')
	`, run.ID, string(run.Format), run.StartedAt.UTC().Format(timeLayout), run.Courses)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// RecordCourse 写入一门课程的结果
func (s *Store) RecordCourse(ctx context.Context, runID string, seq int, c model.CourseOutcome) error {
	entries, err := json.Marshal(nonNil(c.Entries))
	if err != nil {
		return err
	}
	warnings, err := json.Marshal(nonNil(c.Warnings))
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO run_courses (run_id, seq, label, category, canonical_name, method, state, status, row_count, conversion_attempts, entries, warnings)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, runID, seq, c.Label, c.Category, c.CanonicalName, string(c.Method), string(c.State), string(c.Status),
		c.Rows, c.ConversionAttempts, string(entries), string(warnings))
	if err != nil {
		return fmt.Errorf("failed to record course %q: %w", c.Label, err)
	}
	return nil
}

// FinishRun 更新运行汇总
func (s *Store) FinishRun(ctx context.Context, run model.RunSummary) error {
	archives, err := json.Marshal(nonNil(run.Archives))
	if err != nil {
		return err
	}
	status := "done"
	switch {
	case run.Cancelled:
		status = "cancelled"
	case run.Packaged == 0:
		status = "failed"
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET
			finished_at = ?,
			packaged = ?,
			failed = ?,
			warnings = ?,
			cancelled = ?,
			archives = ?,
			status = ?
		WHERE id = ?
	`, run.FinishedAt.UTC().Format(timeLayout), run.Packaged, run.Failed, run.Warnings,
		boolInt(run.Cancelled), string(archives), status, run.ID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish run %s: %w", run.ID, ErrNotFound)
	}
	return nil
}

// ListRuns 最近的运行，按开始时间倒序
func (s *Store) ListRuns(ctx context.Context, limit int) ([]model.RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, format, started_at, finished_at, courses, packaged, failed, warnings, cancelled, archives
		FROM runs ORDER BY started_at DESC, id LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []model.RunSummary
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// GetRun 读取一次运行与课程清单
func (s *Store) GetRun(ctx context.Context, id string) (*RunDetail, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, format, started_at, finished_at, courses, packaged, failed, warnings, cancelled, archives
		FROM runs WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT label, category, canonical_name, method, state, status, row_count, conversion_attempts, entries, warnings
		FROM run_courses WHERE run_id = ? ORDER BY seq
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query run courses: %w", err)
	}
	defer rows.Close()

	detail := &RunDetail{Summary: run}
	for rows.Next() {
		var (
			c                     model.CourseOutcome
			method, state, status string
			entries, warnings     string
		)
		if err := rows.Scan(&c.Label, &c.Category, &c.CanonicalName, &method, &state, &status,
			&c.Rows, &c.ConversionAttempts, &entries, &warnings); err != nil {
			return nil, err
		}
		c.Method = model.MatchMethod(method)
		c.State = model.CourseState(state)
		c.Status = model.CourseStatus(status)
		if err := json.Unmarshal([]byte(entries), &c.Entries); err != nil {
			return nil, fmt.Errorf("decode entries: %w", err)
		}
		if err := json.Unmarshal([]byte(warnings), &c.Warnings); err != nil {
			return nil, fmt.Errorf("decode warnings: %w", err)
		}
		detail.Courses = append(detail.Courses, c)
	}
	return detail, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (model.RunSummary, error) {
	var (
		run             model.RunSummary
		format, started string
		finished        sql.NullString
		cancelled       int
		archives        string
	)
	if err := sc.Scan(&run.ID, &format, &started, &finished, &run.Courses, &run.Packaged,
		&run.Failed, &run.Warnings, &cancelled, &archives); err != nil {
		return model.RunSummary{}, err
	}
	run.Format = model.OutputFormat(format)
	run.Cancelled = cancelled != 0
	var err error
	if run.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return model.RunSummary{}, fmt.Errorf("decode started_at: %w", err)
	}
	if finished.Valid {
		if run.FinishedAt, err = time.Parse(timeLayout, finished.String); err != nil {
			return model.RunSummary{}, fmt.Errorf("decode finished_at: %w", err)
		}
	}
	if err := json.Unmarshal([]byte(archives), &run.Archives); err != nil {
		return model.RunSummary{}, fmt.Errorf("decode archives: %w", err)
	}
	return run, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
