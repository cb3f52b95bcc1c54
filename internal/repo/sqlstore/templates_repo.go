package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joakimtj/eventdesk/internal/domain/errs"
	"github.com/joakimtj/eventdesk/internal/domain/template"
)

type TemplatesRepo struct {
	base
}

const templateColumnsSelect = `id, name, event_type, default_capacity, default_price, rules, created_at, updated_at`

func scanTemplate(s scanner) (template.Template, error) {
	var t template.Template
	var doc, created, updated string

	if err := s.Scan(&t.ID, &t.Name, &t.EventType, &t.DefaultCapacity, &t.DefaultPrice, &doc, &created, &updated); err != nil {
		return template.Template{}, err
	}

	r, err := template.DecodeRules(doc)
	if err != nil {
		// unreadable rule documents impose no constraints
		slog.Warn("template has malformed rules, treating as empty", "template_id", t.ID, "err", err)
		r = template.Rules{}
	}
	t.Rules = r

	if t.CreatedAt, err = parseTS(created); err != nil {
		return template.Template{}, err
	}
	if t.UpdatedAt, err = parseTS(updated); err != nil {
		return template.Template{}, err
	}
	return t, nil
}

func (r *TemplatesRepo) Create(ctx context.Context, req template.CreateTemplateRequest) (template.Template, error) {
	if err := req.Validate(); err != nil {
		return template.Template{}, err
	}

	t := template.NewFromCreateRequest(req)

	doc, err := template.EncodeRules(t.Rules)
	if err != nil {
		return template.Template{}, err
	}

	err = r.observe("templates.create", func() error {
		_, e := r.db.ExecContext(ctx, r.rebind(`
			INSERT INTO templates (id, name, event_type, default_capacity, default_price, rules, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
			t.ID, t.Name, t.EventType, t.DefaultCapacity, t.DefaultPrice, doc, formatTS(t.CreatedAt), formatTS(t.UpdatedAt))
		return e
	})
	if err != nil {
		return template.Template{}, fmt.Errorf("failed to insert template: %w", err)
	}
	return t, nil
}

func (r *TemplatesRepo) GetByID(ctx context.Context, id string) (t template.Template, err error) {
	err = r.observe("templates.get_by_id", func() error {
		row := r.db.QueryRowContext(ctx, r.rebind(`SELECT `+templateColumnsSelect+` FROM templates WHERE id = ?`), id)
		t, err = scanTemplate(row)
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return template.Template{}, template.ErrNotFound
	}
	if err != nil {
		return template.Template{}, fmt.Errorf("failed to get template: %w", err)
	}
	return t, nil
}

func (r *TemplatesRepo) List(ctx context.Context) (out []template.Template, err error) {
	var rows *sql.Rows

	err = r.observe("templates.list", func() error {
		rows, err = r.db.QueryContext(ctx, `SELECT `+templateColumnsSelect+` FROM templates ORDER BY name ASC, id ASC`)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out = make([]template.Template, 0)
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate templates: %w", err)
	}
	return out, nil
}

func (r *TemplatesRepo) Update(ctx context.Context, id string, req template.UpdateTemplateRequest) (template.Template, error) {
	if err := req.Validate(); err != nil {
		return template.Template{}, err
	}

	u := newUpdate("templates", templateColumns)
	if req.Name != nil {
		u.Set("name", *req.Name)
	}
	if req.EventType != nil {
		u.Set("event_type", *req.EventType)
	}
	if req.DefaultCapacity != nil {
		u.Set("default_capacity", *req.DefaultCapacity)
	}
	if req.DefaultPrice != nil {
		u.Set("default_price", *req.DefaultPrice)
	}
	if req.Rules != nil {
		doc, err := template.EncodeRules(*req.Rules)
		if err != nil {
			return template.Template{}, err
		}
		u.Set("rules", doc)
	}

	q, args, err := u.Build(id, time.Now(), true)
	if err != nil {
		return template.Template{}, err
	}

	var res sql.Result
	err = r.observe("templates.update", func() error {
		res, err = r.db.ExecContext(ctx, r.rebind(q), args...)
		return err
	})
	if err != nil {
		return template.Template{}, fmt.Errorf("failed to update template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return template.Template{}, template.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// Delete refuses while any event still references the template.
func (r *TemplatesRepo) Delete(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var inUse int
	err = r.observe("templates.delete.in_use", func() error {
		return tx.QueryRowContext(ctx, r.rebind(`SELECT COUNT(*) FROM events WHERE template_id = ?`), id).Scan(&inUse)
	})
	if err != nil {
		return fmt.Errorf("failed to check template usage: %w", err)
	}
	if inUse > 0 {
		return errs.Violation(errs.RuleTemplateInUse, "template is used by %d event(s)", inUse)
	}

	var res sql.Result
	err = r.observe("templates.delete", func() error {
		res, err = tx.ExecContext(ctx, r.rebind(`DELETE FROM templates WHERE id = ?`), id)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return template.ErrNotFound
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}
