package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ozitag/tager-admin-pages/internal/store"
	"github.com/ozitag/tager-admin-pages/pkg/client"
	"github.com/ozitag/tager-admin-pages/pkg/fields"
	"github.com/ozitag/tager-admin-pages/pkg/page"
	"github.com/ozitag/tager-admin-pages/pkg/template"
)

// datetimeLayouts are the accepted publication date formats.
var datetimeLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	time.RFC3339,
}

func (s *Server) handleTemplates(w http.ResponseWriter, _ *http.Request) {
	writeData(w, s.catalog.List(), nil)
}

func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	tpl, err := s.catalog.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error(), nil)
		return
	}
	writeData(w, tpl, nil)
}

func (s *Server) handleOpenAPI(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.doc)
}

func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	writeData(w, s.info, nil)
}

func (s *Server) handleCount(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.CountPages(r.Context(), r.URL.Query().Get("template"))
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeData(w, page.Count{Count: count}, nil)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	params := page.ParseListParams(r.URL.Query())
	list, total, err := s.store.ListPages(r.Context(), params)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	for i := range list {
		if tpl, err := s.catalog.Get(list[i].TemplateName); err == nil {
			list[i].TemplateName = tpl.DisplayLabel()
		}
	}

	meta := &client.Meta{Total: total}
	meta.Page.Number = max(params.PageNumber, 1)
	meta.Page.Size = params.PageSize
	if params.PageSize > 0 {
		meta.Page.Count = (total + params.PageSize - 1) / params.PageSize
	} else {
		meta.Page.Size = total
		meta.Page.Count = 1
	}
	writeData(w, list, meta)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pageID(w, r)
	if !ok {
		return
	}
	p, err := s.store.GetPage(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writePage(w, r, p)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload page.CreatePayload
	if !decodeBody(w, r, &payload) {
		return
	}
	templateID := ""
	if payload.Template != nil {
		templateID = *payload.Template
	}

	issues, err := s.validatePage(r, 0, payload.Title, payload.Path, payload.Status, "")
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	values, issue := s.templateValues(templateID, payload.TemplateFields, nil)
	if issue != nil {
		issues["template"] = *issue
	}
	if len(issues) > 0 {
		writeError(w, http.StatusUnprocessableEntity, "Validation error", issues)
		return
	}

	created, err := s.store.CreatePage(r.Context(), store.Page{
		ParentID: payload.Parent,
		Status:   payload.Status,
		Title:    strings.TrimSpace(payload.Title),
		Path:     payload.Path,
		Template: templateID,
		Record:   store.Record{TemplateFields: values},
	})
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writePage(w, r, created)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pageID(w, r)
	if !ok {
		return
	}
	var payload page.UpdatePayload
	if !decodeBody(w, r, &payload) {
		return
	}
	current, err := s.store.GetPage(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	templateID := ""
	if payload.Template != nil {
		templateID = *payload.Template
	}

	issues, err := s.validatePage(r, id, payload.Title, payload.Path, payload.Status, payload.Datetime)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	var kept []fields.IncomingField
	if templateID == current.Template {
		kept = current.Record.TemplateFields
	}
	values, issue := s.templateValues(templateID, payload.TemplateFields, kept)
	if issue != nil {
		issues["template"] = *issue
	}
	if len(issues) > 0 {
		writeError(w, http.StatusUnprocessableEntity, "Validation error", issues)
		return
	}

	record := current.Record
	record.Excerpt = optional(payload.Excerpt)
	record.Body = optional(payload.Body)
	record.ImageID = payload.Image
	record.PageTitle = optional(payload.PageTitle)
	record.PageDescription = optional(payload.PageDescription)
	record.PageKeywords = optional(payload.PageKeywords)
	record.OpenGraphTitle = optional(payload.OpenGraphTitle)
	record.OpenGraphDescription = optional(payload.OpenGraphDescription)
	record.OpenGraphImageID = payload.OpenGraphImage
	record.HiddenFromSeoIndexation = payload.HiddenFromSeoIndexation
	record.TemplateFields = values

	updated, err := s.store.UpdatePage(r.Context(), store.Page{
		ID:       id,
		ParentID: payload.Parent,
		Status:   payload.Status,
		Title:    strings.TrimSpace(payload.Title),
		Path:     payload.Path,
		Template: templateID,
		Datetime: optional(payload.Datetime),
		Record:   record,
	})
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writePage(w, r, updated)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pageID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeletePage(r.Context(), id); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page.Success{Success: true})
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	id, ok := pageID(w, r)
	if !ok {
		return
	}
	direction := client.Direction(r.PathValue("direction"))
	if !direction.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown direction %q", direction), nil)
		return
	}
	moved, err := s.store.MovePage(r.Context(), id, direction == client.DirectionUp)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page.Success{Success: moved})
}

func (s *Server) handleClone(w http.ResponseWriter, r *http.Request) {
	id, ok := pageID(w, r)
	if !ok {
		return
	}
	clone, err := s.store.ClonePage(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writePage(w, r, clone)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.uploadDir == "" {
		writeError(w, http.StatusServiceUnavailable, "uploads are disabled", nil)
		return
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart payload", nil)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required", nil)
		return
	}
	defer file.Close()

	filename := fmt.Sprintf("%d_%s", time.Now().UnixNano(), filepath.Base(header.Filename))
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		s.writeStoreError(w, r, fmt.Errorf("server: create upload dir: %w", err))
		return
	}
	dst, err := os.Create(filepath.Join(s.uploadDir, filename))
	if err != nil {
		s.writeStoreError(w, r, fmt.Errorf("server: create upload: %w", err))
		return
	}
	size, err := io.Copy(dst, file)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		s.writeStoreError(w, r, fmt.Errorf("server: write upload: %w", err))
		return
	}

	created, err := s.store.CreateFile(r.Context(), fields.File{
		URL:      "/uploads/" + filename,
		Name:     filepath.Base(header.Filename),
		Size:     size,
		MimeType: header.Header.Get("Content-Type"),
	})
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.logger.InfoContext(r.Context(), "file uploaded", slog.Int64("id", created.ID), slog.String("name", created.Name))
	writeData(w, created, nil)
}

func (s *Server) writePage(w http.ResponseWriter, r *http.Request, p store.Page) {
	full, err := s.fullPage(r.Context(), p)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeData(w, full, nil)
}

// templateValues validates the template choice and normalises submitted
// values. A nil submission keeps the stored values.
func (s *Server) templateValues(templateID string, submitted []fields.OutgoingField, stored []fields.IncomingField) ([]fields.IncomingField, *client.FieldError) {
	if templateID == "" {
		return []fields.IncomingField{}, nil
	}
	tpl, err := s.catalog.Get(templateID)
	if errors.Is(err, template.ErrNotFound) {
		return nil, &client.FieldError{Code: "unknown", Message: fmt.Sprintf("Template %q does not exist", templateID)}
	}
	if err != nil {
		return nil, &client.FieldError{Code: "invalid", Message: err.Error()}
	}
	if submitted == nil && stored != nil {
		var outgoing []fields.OutgoingField
		for _, field := range stored {
			outgoing = append(outgoing, fields.OutgoingField{Name: field.Name, Value: field.Value})
		}
		submitted = outgoing
	}
	values, err := s.normalizeTemplateFields(tpl, submitted)
	if err != nil {
		return nil, &client.FieldError{Code: "invalid", Message: err.Error()}
	}
	return values, nil
}

func (s *Server) validatePage(r *http.Request, id int64, title, path string, status page.Status, datetime string) (map[string]client.FieldError, error) {
	issues := map[string]client.FieldError{}
	if strings.TrimSpace(title) == "" {
		issues["title"] = client.FieldError{Code: "required", Message: "Title is required"}
	}
	if !status.Valid() {
		issues["status"] = client.FieldError{Code: "invalid", Message: fmt.Sprintf("Unknown status %q", status)}
	}
	switch {
	case !strings.HasPrefix(path, "/"):
		issues["path"] = client.FieldError{Code: "invalid", Message: "Path must start with /"}
	default:
		taken, err := s.store.PathTaken(r.Context(), path, id)
		if err != nil {
			return nil, err
		}
		if taken {
			issues["path"] = client.FieldError{Code: "taken", Message: "Path is already used by another page"}
		}
	}
	if datetime != "" && !validDatetime(datetime) {
		issues["datetime"] = client.FieldError{Code: "invalid", Message: fmt.Sprintf("Invalid date %q", datetime)}
	}
	return issues, nil
}

func validDatetime(value string) bool {
	for _, layout := range datetimeLayouts {
		if _, err := time.Parse(layout, value); err == nil {
			return true
		}
	}
	return false
}

func pageID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid page id %q", r.PathValue("id")), nil)
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON body: %v", err), nil)
		return false
	}
	return true
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
