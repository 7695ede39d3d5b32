package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ozitag/tager-admin-pages/pkg/fields"
	"github.com/ozitag/tager-admin-pages/pkg/page"
)

const pageColumns = `id, parent_id, position, status, title, path, template, datetime, record`

// treeCTE orders pages depth-first by sibling position and computes depth.
const treeCTE = `
WITH RECURSIVE tree(id, depth, sort_key) AS (
	SELECT id, 0, printf('%08d', position) FROM pages WHERE parent_id IS NULL
	UNION ALL
	SELECT p.id, t.depth + 1, t.sort_key || '.' || printf('%08d', p.position)
	FROM pages p JOIN tree t ON p.parent_id = t.id
)`

func scanPage(row interface{ Scan(...any) error }) (Page, error) {
	var (
		p        Page
		parentID sql.NullInt64
		datetime sql.NullString
		record   []byte
	)
	if err := row.Scan(&p.ID, &parentID, &p.Position, &p.Status, &p.Title, &p.Path, &p.Template, &datetime, &record); err != nil {
		return Page{}, err
	}
	if parentID.Valid {
		id := parentID.Int64
		p.ParentID = &id
	}
	if datetime.Valid {
		value := datetime.String
		p.Datetime = &value
	}
	if len(record) > 0 {
		if err := json.Unmarshal(record, &p.Record); err != nil {
			return Page{}, fmt.Errorf("store: decode page %d record: %w", p.ID, err)
		}
	}
	return p, nil
}

// GetPage returns the page with id.
func (s *Store) GetPage(ctx context.Context, id int64) (Page, error) {
	return getPage(ctx, s.db, id)
}

func getPage(ctx context.Context, q queryer, id int64) (Page, error) {
	p, err := scanPage(q.QueryRowContext(ctx, `SELECT `+pageColumns+` FROM pages WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Page{}, fmt.Errorf("%w: page %d", ErrNotFound, id)
	}
	if err != nil {
		return Page{}, fmt.Errorf("store: get page %d: %w", id, err)
	}
	return p, nil
}

// ParentTitle returns the title of page id, for parent references.
func (s *Store) ParentTitle(ctx context.Context, id int64) (string, error) {
	var title string
	err := s.db.QueryRowContext(ctx, `SELECT title FROM pages WHERE id = ?`, id).Scan(&title)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: page %d", ErrNotFound, id)
	}
	if err != nil {
		return "", fmt.Errorf("store: get title %d: %w", id, err)
	}
	return title, nil
}

// ListPages returns pages in tree order (or by date for the date sorts) with
// their depth, plus the total number of matches before pagination.
func (s *Store) ListPages(ctx context.Context, params page.ListParams) ([]page.Short, int, error) {
	var (
		where []string
		args  []any
	)
	if q := strings.TrimSpace(params.Query); q != "" {
		where = append(where, `(LOWER(p.title) LIKE ? OR LOWER(p.path) LIKE ?)`)
		like := "%" + strings.ToLower(q) + "%"
		args = append(args, like, like)
	}
	if params.Template != "" {
		where = append(where, `p.template = ?`)
		args = append(args, params.Template)
	}
	if params.WithChildren {
		where = append(where, `EXISTS (SELECT 1 FROM pages c WHERE c.parent_id = p.id)`)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	countQuery := treeCTE + ` SELECT COUNT(*) FROM pages p JOIN tree t ON t.id = p.id` + clause
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("store: count pages: %w", err)
	}

	order := ` ORDER BY t.sort_key`
	switch params.Sort {
	case page.SortDateDesc:
		order = ` ORDER BY p.datetime IS NULL, p.datetime DESC, t.sort_key`
	case page.SortDateAsc:
		order = ` ORDER BY p.datetime IS NULL, p.datetime ASC, t.sort_key`
	}

	limit := ""
	listArgs := append([]any(nil), args...)
	if params.PageSize > 0 {
		number := params.PageNumber
		if number < 1 {
			number = 1
		}
		limit = ` LIMIT ? OFFSET ?`
		listArgs = append(listArgs, params.PageSize, (number-1)*params.PageSize)
	}

	query := treeCTE + `
SELECT p.id, p.status, p.title, p.path, p.template, p.datetime, p.parent_id, pp.title, t.depth, p.record
FROM pages p
JOIN tree t ON t.id = p.id
LEFT JOIN pages pp ON pp.id = p.parent_id` + clause + order + limit

	rows, err := s.db.QueryContext(ctx, query, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("store: list pages: %w", err)
	}
	defer rows.Close()

	out := []page.Short{}
	for rows.Next() {
		var (
			short       page.Short
			datetime    sql.NullString
			parentID    sql.NullInt64
			parentTitle sql.NullString
			raw         []byte
			record      Record
		)
		if err := rows.Scan(&short.ID, &short.Status, &short.Title, &short.Path, &short.TemplateName, &datetime, &parentID, &parentTitle, &short.Depth, &raw); err != nil {
			return nil, 0, fmt.Errorf("store: scan page: %w", err)
		}
		short.Datetime = datetime.String
		if parentID.Valid {
			short.Parent = &page.Parent{ID: parentID.Int64, Title: parentTitle.String}
		}
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, 0, fmt.Errorf("store: decode page %d record: %w", short.ID, err)
		}
		short.SitemapPriority = record.SitemapPriority
		short.SitemapFrequency = record.SitemapFrequency
		short.HiddenFromSeoIndexation = record.HiddenFromSeoIndexation
		out = append(out, short)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("store: list pages: %w", err)
	}
	return out, total, nil
}

// CountPages counts pages, optionally only those using template.
func (s *Store) CountPages(ctx context.Context, template string) (int, error) {
	query := `SELECT COUNT(*) FROM pages`
	var args []any
	if template != "" {
		query += ` WHERE template = ?`
		args = append(args, template)
	}
	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("store: count pages: %w", err)
	}
	return count, nil
}

// PathTaken reports whether another page than exceptID uses path.
func (s *Store) PathTaken(ctx context.Context, path string, exceptID int64) (bool, error) {
	return pathTaken(ctx, s.db, path, exceptID)
}

func pathTaken(ctx context.Context, q queryer, path string, exceptID int64) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages WHERE path = ? AND id != ?`, path, exceptID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("store: check path: %w", err)
	}
	return n > 0, nil
}

// CreatePage inserts p as the last child of its parent.
func (s *Store) CreatePage(ctx context.Context, p Page) (Page, error) {
	var created Page
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if p.ParentID != nil {
			if _, err := getPage(ctx, tx, *p.ParentID); err != nil {
				return fmt.Errorf("parent: %w", err)
			}
		}
		position, err := nextPosition(ctx, tx, p.ParentID)
		if err != nil {
			return err
		}
		p.Position = position

		record, err := encodeRecord(p.Record)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO pages (parent_id, position, status, title, path, template, datetime, record) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			nullableID(p.ParentID), p.Position, p.Status, p.Title, p.Path, p.Template, nullableString(p.Datetime), record,
		)
		if err != nil {
			return fmt.Errorf("store: insert page: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("store: insert page id: %w", err)
		}
		created, err = getPage(ctx, tx, id)
		return err
	})
	if err != nil {
		return Page{}, err
	}
	return created, nil
}

// UpdatePage replaces the stored attributes of p. A page moved to another
// parent becomes that parent's last child.
func (s *Store) UpdatePage(ctx context.Context, p Page) (Page, error) {
	var updated Page
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		current, err := getPage(ctx, tx, p.ID)
		if err != nil {
			return err
		}
		p.Position = current.Position
		if !sameParent(current.ParentID, p.ParentID) {
			if p.ParentID != nil {
				if err := checkParent(ctx, tx, p.ID, *p.ParentID); err != nil {
					return err
				}
			}
			if p.Position, err = nextPosition(ctx, tx, p.ParentID); err != nil {
				return err
			}
		}

		record, err := encodeRecord(p.Record)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE pages SET parent_id = ?, position = ?, status = ?, title = ?, path = ?, template = ?, datetime = ?, record = ? WHERE id = ?`,
			nullableID(p.ParentID), p.Position, p.Status, p.Title, p.Path, p.Template, nullableString(p.Datetime), record, p.ID,
		)
		if err != nil {
			return fmt.Errorf("store: update page %d: %w", p.ID, err)
		}
		updated, err = getPage(ctx, tx, p.ID)
		return err
	})
	if err != nil {
		return Page{}, err
	}
	return updated, nil
}

// DeletePage removes a page. Its children move up to the deleted page's
// parent, after the existing siblings there.
func (s *Store) DeletePage(ctx context.Context, id int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		p, err := getPage(ctx, tx, id)
		if err != nil {
			return err
		}
		next, err := nextPosition(ctx, tx, p.ParentID)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE pages SET parent_id = ?, position = position + ? WHERE parent_id = ?`,
			nullableID(p.ParentID), next, id,
		)
		if err != nil {
			return fmt.Errorf("store: reparent children of %d: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM pages WHERE id = ?`, id); err != nil {
			return fmt.Errorf("store: delete page %d: %w", id, err)
		}
		return nil
	})
}

// MovePage swaps a page with its previous (up) or next sibling. It reports
// false when the page is already first or last.
func (s *Store) MovePage(ctx context.Context, id int64, up bool) (bool, error) {
	moved := false
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		p, err := getPage(ctx, tx, id)
		if err != nil {
			return err
		}
		query := `SELECT id, position FROM pages WHERE parent_id IS ? AND position > ? ORDER BY position ASC LIMIT 1`
		if up {
			query = `SELECT id, position FROM pages WHERE parent_id IS ? AND position < ? ORDER BY position DESC LIMIT 1`
		}
		var (
			siblingID       int64
			siblingPosition int
		)
		err = tx.QueryRowContext(ctx, query, nullableID(p.ParentID), p.Position).Scan(&siblingID, &siblingPosition)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("store: find sibling of %d: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE pages SET position = ? WHERE id = ?`, siblingPosition, id); err != nil {
			return fmt.Errorf("store: move page %d: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE pages SET position = ? WHERE id = ?`, p.Position, siblingID); err != nil {
			return fmt.Errorf("store: move page %d: %w", siblingID, err)
		}
		moved = true
		return nil
	})
	return moved, err
}

// ClonePage copies a page (not its children) right after the source. The
// copy's title gets a " (copy)" suffix and its path a "-copy" suffix, numbered
// ("-copy-2", "-copy-3", ...) until no other page uses it.
func (s *Store) ClonePage(ctx context.Context, id int64) (Page, error) {
	var clone Page
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		source, err := getPage(ctx, tx, id)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE pages SET position = position + 1 WHERE parent_id IS ? AND position > ?`,
			nullableID(source.ParentID), source.Position,
		)
		if err != nil {
			return fmt.Errorf("store: shift siblings of %d: %w", id, err)
		}
		record, err := encodeRecord(source.Record)
		if err != nil {
			return err
		}
		path, err := freeClonePath(ctx, tx, source.Path)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO pages (parent_id, position, status, title, path, template, datetime, record) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			nullableID(source.ParentID), source.Position+1, source.Status, source.Title+" (copy)", path,
			source.Template, nullableString(source.Datetime), record,
		)
		if err != nil {
			return fmt.Errorf("store: insert clone of %d: %w", id, err)
		}
		newID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("store: clone id: %w", err)
		}
		clone, err = getPage(ctx, tx, newID)
		return err
	})
	if err != nil {
		return Page{}, err
	}
	return clone, nil
}

func clonePath(path string) string {
	trimmed := strings.TrimRight(path, "/")
	if trimmed == "" {
		return "/copy"
	}
	return trimmed + "-copy"
}

func freeClonePath(ctx context.Context, q queryer, path string) (string, error) {
	base := clonePath(path)
	candidate := base
	for n := 2; ; n++ {
		taken, err := pathTaken(ctx, q, candidate, 0)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}

func nextPosition(ctx context.Context, q queryer, parentID *int64) (int, error) {
	var max sql.NullInt64
	err := q.QueryRowContext(ctx, `SELECT MAX(position) FROM pages WHERE parent_id IS ?`, nullableID(parentID)).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("store: next position: %w", err)
	}
	if !max.Valid {
		return 1, nil
	}
	return int(max.Int64) + 1, nil
}

// checkParent rejects parents that are the page itself or one of its
// descendants.
func checkParent(ctx context.Context, q queryer, id, parentID int64) error {
	if id == parentID {
		return fmt.Errorf("%w: page %d cannot be its own parent", ErrInvalidParent, id)
	}
	if _, err := getPage(ctx, q, parentID); err != nil {
		return fmt.Errorf("parent: %w", err)
	}
	var n int
	err := q.QueryRowContext(ctx, `
WITH RECURSIVE descendants(id) AS (
	SELECT id FROM pages WHERE parent_id = ?
	UNION ALL
	SELECT p.id FROM pages p JOIN descendants d ON p.parent_id = d.id
)
SELECT COUNT(*) FROM descendants WHERE id = ?`, id, parentID).Scan(&n)
	if err != nil {
		return fmt.Errorf("store: check parent: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("%w: page %d is a descendant of %d", ErrInvalidParent, parentID, id)
	}
	return nil
}

func sameParent(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func encodeRecord(r Record) (string, error) {
	if r.TemplateFields == nil {
		r.TemplateFields = []fields.IncomingField{}
	}
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("store: encode record: %w", err)
	}
	return string(data), nil
}
