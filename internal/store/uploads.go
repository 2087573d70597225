package store

import (
	"context"
	"fmt"
	"time"
)

// Upload 一次名单与成绩表上传
type Upload struct {
	ID            string    `json:"id"`
	RosterFile    string    `json:"rosterFile"`
	RosterSize    int64     `json:"rosterSize"`
	GradebookFile string    `json:"gradebookFile"`
	GradebookSize int64     `json:"gradebookSize"`
	FileHash      string    `json:"fileHash"`
	People        int       `json:"people"`
	Courses       int       `json:"courses"`
	CreatedAt     time.Time `json:"createdAt"`
}

// CreateUpload 写入上传记录
func (s *Store) CreateUpload(ctx context.Context, u Upload) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO uploads (id, roster_file, roster_size, gradebook_file, gradebook_size, file_hash, people, courses, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, u.ID, u.RosterFile, u.RosterSize, u.GradebookFile, u.GradebookSize, u.FileHash, u.People, u.Courses,
		u.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to create upload: %w", err)
	}
	return nil
}

// CountUploads 上传记录总数
func (s *Store) CountUploads(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM uploads`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count uploads: %w", err)
	}
	return n, nil
}
