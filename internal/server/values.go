package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ozitag/tager-admin-pages/internal/store"
	"github.com/ozitag/tager-admin-pages/pkg/fields"
	"github.com/ozitag/tager-admin-pages/pkg/page"
	"github.com/ozitag/tager-admin-pages/pkg/template"
)

// normalizeTemplateFields reconciles submitted values with the template:
// unknown names are dropped, mismatched shapes fall back to defaults, HTML
// is sanitised. The result is stored in incoming shape with file ids only.
func (s *Server) normalizeTemplateFields(tpl template.Full, submitted []fields.OutgoingField) ([]fields.IncomingField, error) {
	incoming, err := fields.ToIncoming(submitted)
	if err != nil {
		return nil, err
	}
	tree := s.sanitizer.Tree(s.engine.Merge(tpl.Fields, incoming))
	normalized, err := fields.ToIncoming(s.engine.FlattenTree(tree))
	if err != nil {
		return nil, err
	}
	if normalized == nil {
		normalized = []fields.IncomingField{}
	}
	return normalized, nil
}

// expandTemplateValues turns stored values into the shape pages are served
// in, with file ids resolved to file objects. Values of pages whose template
// is no longer known are returned as stored.
func (s *Server) expandTemplateValues(ctx context.Context, templateID string, stored []fields.IncomingField) ([]fields.IncomingField, error) {
	if stored == nil {
		stored = []fields.IncomingField{}
	}
	if templateID == "" {
		return stored, nil
	}
	tpl, err := s.catalog.Get(templateID)
	if errors.Is(err, template.ErrNotFound) {
		return stored, nil
	}
	if err != nil {
		return nil, err
	}

	tree := s.engine.Merge(tpl.Fields, stored)
	var ids []int64
	_ = fields.Walk(tree, func(_ string, field fields.Field) error {
		switch v := field.Value.(type) {
		case fields.FileValue:
			if v.File != nil {
				ids = append(ids, v.File.ID)
			}
		case fields.GalleryValue:
			for _, f := range v {
				ids = append(ids, f.ID)
			}
		}
		return nil
	})
	files, err := s.store.GetFiles(ctx, ids)
	if err != nil {
		return nil, err
	}
	tree = fields.MapTree(tree, func(field fields.Field) fields.Field {
		switch v := field.Value.(type) {
		case fields.FileValue:
			if v.File != nil {
				resolved := resolveFile(files, *v.File)
				field.Value = fields.FileValue{File: &resolved}
			}
		case fields.GalleryValue:
			next := make(fields.GalleryValue, len(v))
			for i, f := range v {
				next[i] = resolveFile(files, f)
			}
			field.Value = next
		}
		return field
	})
	return encodeIncoming(tree)
}

func resolveFile(files map[int64]fields.File, f fields.File) fields.File {
	if known, ok := files[f.ID]; ok {
		return known
	}
	return f
}

// encodeIncoming writes a field tree in wire shape: repeaters become lists of
// field lists, every other value is encoded as is.
func encodeIncoming(tree []fields.Field) ([]fields.IncomingField, error) {
	out := make([]fields.IncomingField, 0, len(tree))
	for _, field := range tree {
		var value any = field.Value
		if repetitions, ok := field.Value.(fields.RepeaterValue); ok {
			groups := make([][]fields.IncomingField, 0, len(repetitions))
			for _, repetition := range repetitions {
				group, err := encodeIncoming(repetition.Fields)
				if err != nil {
					return nil, err
				}
				groups = append(groups, group)
			}
			value = groups
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("server: encode %s: %w", field.Name(), err)
		}
		out = append(out, fields.IncomingField{Name: field.Name(), Value: raw})
	}
	return out, nil
}

// fullPage assembles the served representation of a stored page.
func (s *Server) fullPage(ctx context.Context, p store.Page) (page.Full, error) {
	full := page.Full{
		ID:                      p.ID,
		Status:                  p.Status,
		Title:                   p.Title,
		Path:                    p.Path,
		Excerpt:                 p.Record.Excerpt,
		Body:                    p.Record.Body,
		Datetime:                p.Datetime,
		PageTitle:               p.Record.PageTitle,
		PageDescription:         p.Record.PageDescription,
		PageKeywords:            p.Record.PageKeywords,
		OpenGraphTitle:          p.Record.OpenGraphTitle,
		OpenGraphDescription:    p.Record.OpenGraphDescription,
		SitemapPriority:         p.Record.SitemapPriority,
		SitemapFrequency:        p.Record.SitemapFrequency,
		HiddenFromSeoIndexation: p.Record.HiddenFromSeoIndexation,
		Template:                p.Template,
	}
	if p.ParentID != nil {
		title, err := s.store.ParentTitle(ctx, *p.ParentID)
		if err != nil {
			return page.Full{}, err
		}
		full.Parent = &page.Parent{ID: *p.ParentID, Title: title}
	}

	var ids []int64
	for _, id := range []*int64{p.Record.ImageID, p.Record.OpenGraphImageID} {
		if id != nil {
			ids = append(ids, *id)
		}
	}
	files, err := s.store.GetFiles(ctx, ids)
	if err != nil {
		return page.Full{}, err
	}
	full.Image = fileRef(files, p.Record.ImageID)
	full.OpenGraphImage = fileRef(files, p.Record.OpenGraphImageID)

	values, err := s.expandTemplateValues(ctx, p.Template, p.Record.TemplateFields)
	if err != nil {
		return page.Full{}, err
	}
	full.TemplateValues = values
	return full, nil
}

func fileRef(files map[int64]fields.File, id *int64) *fields.File {
	if id == nil {
		return nil
	}
	f := resolveFile(files, fields.File{ID: *id})
	return &f
}
