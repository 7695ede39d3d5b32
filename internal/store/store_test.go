package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ozitag/tager-admin-pages/pkg/fields"
	"github.com/ozitag/tager-admin-pages/pkg/page"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mustCreate(t *testing.T, s *Store, title string, parent *int64) Page {
	t.Helper()
	p, err := s.CreatePage(context.Background(), Page{
		Status:   page.StatusDraft,
		Title:    title,
		Path:     "/" + title,
		ParentID: parent,
	})
	require.NoError(t, err)
	return p
}

func titles(list []page.Short) []string {
	out := make([]string, len(list))
	for i, p := range list {
		out[i] = p.Title
	}
	return out
}

func TestCreateAndGetPage(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	date := "2024-05-01"

	created, err := s.CreatePage(ctx, Page{
		Status:   page.StatusPublished,
		Title:    "Home",
		Path:     "/",
		Template: "home",
		Datetime: &date,
		Record: Record{
			TemplateFields: []fields.IncomingField{{Name: "title", Value: json.RawMessage(`"Hi"`)}},
		},
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, 1, created.Position)

	got, err := s.GetPage(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Home", got.Title)
	assert.Equal(t, page.StatusPublished, got.Status)
	require.NotNil(t, got.Datetime)
	assert.Equal(t, date, *got.Datetime)
	require.Len(t, got.Record.TemplateFields, 1)
	assert.JSONEq(t, `"Hi"`, string(got.Record.TemplateFields[0].Value))
}

func TestGetPageNotFound(t *testing.T) {
	s := openStore(t)
	_, err := s.GetPage(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreatePageUnknownParent(t *testing.T) {
	s := openStore(t)
	missing := int64(7)
	_, err := s.CreatePage(context.Background(), Page{Status: page.StatusDraft, Title: "x", Path: "/x", ParentID: &missing})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListPagesTreeOrder(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	about := mustCreate(t, s, "about", nil)
	mustCreate(t, s, "contacts", nil)
	team := mustCreate(t, s, "team", &about.ID)
	mustCreate(t, s, "history", &about.ID)
	mustCreate(t, s, "alice", &team.ID)

	list, total, err := s.ListPages(ctx, page.AllPages())
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Equal(t, []string{"about", "team", "alice", "history", "contacts"}, titles(list))

	depths := make([]int, len(list))
	for i, p := range list {
		depths[i] = p.Depth
	}
	assert.Equal(t, []int{0, 1, 2, 1, 0}, depths)
	require.NotNil(t, list[1].Parent)
	assert.Equal(t, page.Parent{ID: about.ID, Title: "about"}, *list[1].Parent)
	assert.Nil(t, list[0].Parent)
}

func TestListPagesFilters(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	about := mustCreate(t, s, "about", nil)
	mustCreate(t, s, "team", &about.ID)
	_, err := s.CreatePage(ctx, Page{Status: page.StatusDraft, Title: "News", Path: "/news", Template: "article"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		params page.ListParams
		want   []string
		total  int
	}{
		{name: "query", params: page.ListParams{Query: "NEW"}, want: []string{"News"}, total: 1},
		{name: "query matches path", params: page.ListParams{Query: "/tea"}, want: []string{"team"}, total: 1},
		{name: "template", params: page.ListParams{Template: "article"}, want: []string{"News"}, total: 1},
		{name: "with children", params: page.ListParams{WithChildren: true}, want: []string{"about"}, total: 1},
		{name: "page size", params: page.ListParams{PageNumber: 2, PageSize: 2}, want: []string{"News"}, total: 3},
		{name: "past last page", params: page.ListParams{PageNumber: 5, PageSize: 2}, want: []string{}, total: 3},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			list, total, err := s.ListPages(ctx, tc.params)
			require.NoError(t, err)
			assert.Equal(t, tc.want, titles(list))
			assert.Equal(t, tc.total, total)
		})
	}
}

func TestListPagesSortByDate(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	for _, entry := range []struct{ title, date string }{
		{"b", "2024-02-01"}, {"a", "2024-01-01"}, {"c", "2024-03-01"}, {"none", ""},
	} {
		p := Page{Status: page.StatusDraft, Title: entry.title, Path: "/" + entry.title}
		if entry.date != "" {
			d := entry.date
			p.Datetime = &d
		}
		_, err := s.CreatePage(ctx, p)
		require.NoError(t, err)
	}

	list, _, err := s.ListPages(ctx, page.ListParams{Sort: page.SortDateDesc})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a", "none"}, titles(list))

	list, _, err = s.ListPages(ctx, page.ListParams{Sort: page.SortDateAsc})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "none"}, titles(list))
}

func TestCountPages(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	mustCreate(t, s, "plain", nil)
	_, err := s.CreatePage(ctx, Page{Status: page.StatusDraft, Title: "n", Path: "/n", Template: "article"})
	require.NoError(t, err)

	all, err := s.CountPages(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, all)

	articles, err := s.CountPages(ctx, "article")
	require.NoError(t, err)
	assert.Equal(t, 1, articles)
}

func TestUpdatePageReparent(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	a := mustCreate(t, s, "a", nil)
	b := mustCreate(t, s, "b", nil)
	child := mustCreate(t, s, "child", &a.ID)

	child.ParentID = &b.ID
	child.Title = "moved"
	updated, err := s.UpdatePage(ctx, child)
	require.NoError(t, err)
	assert.Equal(t, "moved", updated.Title)
	require.NotNil(t, updated.ParentID)
	assert.Equal(t, b.ID, *updated.ParentID)

	a.ParentID = &child.ID
	_, err = s.UpdatePage(ctx, a)
	require.NoError(t, err, "a is not an ancestor of child anymore")

	b.ParentID = &child.ID
	_, err = s.UpdatePage(ctx, b)
	assert.ErrorIs(t, err, ErrInvalidParent)

	child.ParentID = &child.ID
	_, err = s.UpdatePage(ctx, child)
	assert.ErrorIs(t, err, ErrInvalidParent)
}

func TestDeletePageReparentsChildren(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	root := mustCreate(t, s, "root", nil)
	mid := mustCreate(t, s, "mid", &root.ID)
	mustCreate(t, s, "sibling", &root.ID)
	leaf := mustCreate(t, s, "leaf", &mid.ID)

	require.NoError(t, s.DeletePage(ctx, mid.ID))

	got, err := s.GetPage(ctx, leaf.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, root.ID, *got.ParentID)

	list, _, err := s.ListPages(ctx, page.AllPages())
	require.NoError(t, err)
	assert.Equal(t, []string{"root", "sibling", "leaf"}, titles(list))

	assert.ErrorIs(t, s.DeletePage(ctx, mid.ID), ErrNotFound)
}

func TestMovePage(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	first := mustCreate(t, s, "first", nil)
	mustCreate(t, s, "second", nil)
	third := mustCreate(t, s, "third", nil)

	moved, err := s.MovePage(ctx, third.ID, true)
	require.NoError(t, err)
	assert.True(t, moved)

	moved, err = s.MovePage(ctx, first.ID, true)
	require.NoError(t, err)
	assert.False(t, moved, "first page cannot move up")

	moved, err = s.MovePage(ctx, first.ID, false)
	require.NoError(t, err)
	assert.True(t, moved)

	list, _, err := s.ListPages(ctx, page.AllPages())
	require.NoError(t, err)
	assert.Equal(t, []string{"third", "first", "second"}, titles(list))

	_, err = s.MovePage(ctx, 404, false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClonePage(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	source, err := s.CreatePage(ctx, Page{
		Status:   page.StatusPublished,
		Title:    "About",
		Path:     "/about",
		Template: "home",
		Record: Record{
			TemplateFields: []fields.IncomingField{{Name: "title", Value: json.RawMessage(`"Hello"`)}},
		},
	})
	require.NoError(t, err)
	mustCreate(t, s, "after", nil)

	clone, err := s.ClonePage(ctx, source.ID)
	require.NoError(t, err)
	assert.NotEqual(t, source.ID, clone.ID)
	assert.Equal(t, "About (copy)", clone.Title)
	assert.Equal(t, "/about-copy", clone.Path)
	assert.Equal(t, "home", clone.Template)
	assert.Equal(t, source.Record.TemplateFields[0].Name, clone.Record.TemplateFields[0].Name)

	list, _, err := s.ListPages(ctx, page.AllPages())
	require.NoError(t, err)
	assert.Equal(t, []string{"About", "About (copy)", "after"}, titles(list))
}

func TestClonePageTwiceKeepsPathsUnique(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	source := mustCreate(t, s, "about", nil)

	first, err := s.ClonePage(ctx, source.ID)
	require.NoError(t, err)
	second, err := s.ClonePage(ctx, source.ID)
	require.NoError(t, err)
	third, err := s.ClonePage(ctx, source.ID)
	require.NoError(t, err)

	assert.Equal(t, "/about-copy", first.Path)
	assert.Equal(t, "/about-copy-2", second.Path)
	assert.Equal(t, "/about-copy-3", third.Path)

	taken, err := s.PathTaken(ctx, first.Path, first.ID)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestPathTaken(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	p := mustCreate(t, s, "about", nil)

	taken, err := s.PathTaken(ctx, "/about", 0)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = s.PathTaken(ctx, "/about", p.ID)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestFiles(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	a, err := s.CreateFile(ctx, fields.File{Name: "a.png", URL: "/uploads/a.png", Size: 10, MimeType: "image/png"})
	require.NoError(t, err)
	b, err := s.CreateFile(ctx, fields.File{Name: "b.pdf", URL: "/uploads/b.pdf"})
	require.NoError(t, err)

	got, err := s.GetFiles(ctx, []int64{a.ID, b.ID, 999})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, a, got[a.ID])
	assert.Equal(t, "b.pdf", got[b.ID].Name)

	empty, err := s.GetFiles(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
