package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/multierr"
	_ "modernc.org/sqlite"
)

// ============================================================================
// SQLite 源码库
// ============================================================================

const schema = `
CREATE TABLE IF NOT EXISTS programs (
	qualified_name TEXT PRIMARY KEY COLLATE NOCASE,
	source         TEXT NOT NULL,
	fingerprint    TEXT NOT NULL,
	updated_at     INTEGER NOT NULL
)`

// SQLite 把应用类源码保存在 SQLite 数据库中
type SQLite struct {
	db *sql.DB
}

// OpenSQLite 打开（必要时创建）数据库；path 为 ":memory:" 时使用内存库
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// 内存库每个连接都是独立的数据库
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, multierr.Append(fmt.Errorf("init %s: %w", path, err), db.Close())
	}
	return &SQLite{db: db}, nil
}

// Close 关闭数据库
func (s *SQLite) Close() error {
	return s.db.Close()
}

// TryGetProgramSource 实现 classinfo.SourceProvider
func (s *SQLite) TryGetProgramSource(ctx context.Context, name string) (string, bool, error) {
	var src string
	err := s.db.QueryRowContext(ctx,
		`SELECT source FROM programs WHERE qualified_name = ?`, name).Scan(&src)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", false, nil
	case err != nil:
		return "", false, fmt.Errorf("query %s: %w", name, err)
	}
	return src, true, nil
}

// Put 写入或替换源码，返回内容是否变化
func (s *SQLite) Put(ctx context.Context, name, src string) (bool, error) {
	fp := Fingerprint(src)
	var old string
	err := s.db.QueryRowContext(ctx,
		`SELECT fingerprint FROM programs WHERE qualified_name = ?`, name).Scan(&old)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("query %s: %w", name, err)
	}
	if old == fp {
		return false, nil
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO programs (qualified_name, source, fingerprint, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT(qualified_name) DO UPDATE SET
	source = excluded.source, fingerprint = excluded.fingerprint, updated_at = excluded.updated_at`,
		name, src, fp, time.Now().Unix())
	if err != nil {
		return false, fmt.Errorf("store %s: %w", name, err)
	}
	return true, nil
}

// Delete 删除源码，返回条目是否存在
func (s *SQLite) Delete(ctx context.Context, name string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM programs WHERE qualified_name = ?`, name)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Fingerprint 返回保存的源码指纹
func (s *SQLite) Fingerprint(ctx context.Context, name string) (string, bool, error) {
	var fp string
	err := s.db.QueryRowContext(ctx,
		`SELECT fingerprint FROM programs WHERE qualified_name = ?`, name).Scan(&fp)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", false, nil
	case err != nil:
		return "", false, err
	}
	return fp, true, nil
}

// Names 返回所有限定名（排序）
func (s *SQLite) Names(ctx context.Context) (names []string, err error) {
	rows, err := s.db.QueryContext(ctx, `SELECT qualified_name FROM programs ORDER BY qualified_name`)
	if err != nil {
		return nil, err
	}
	defer func() { err = multierr.Append(err, rows.Close()) }()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// ImportDir 把目录树中的源码导入数据库，返回有变化的条目数
func (s *SQLite) ImportDir(ctx context.Context, d *Dir) (int, error) {
	changed := 0
	err := d.Walk(func(name, path string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		ok, err := s.Put(ctx, name, string(content))
		if ok {
			changed++
		}
		return err
	})
	return changed, err
}
