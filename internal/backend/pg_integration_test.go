package backend

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

func openPGForTest(t *testing.T) *PGStore {
	t.Helper()
	dsn := os.Getenv("TF_PG_DSN")
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		t.Skip("TF_PG_DSN not set; skipping Postgres integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	s, err := OpenPG(ctx, dsn)
	if err != nil {
		t.Fatalf("open pg: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPGStoreRoundTrip(t *testing.T) {
	s := openPGForTest(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	m, err := s.CreateMedia(ctx, Media{Filename: "bg.png", MimeType: "image/png", Width: 4, Height: 3}, pngBytes(t, 4, 3))
	if err != nil {
		t.Fatalf("media: %v", err)
	}
	doc := FromTemplate(sampleTemplate("PG Gala"))
	doc.BackgroundImage = &MediaRef{ID: m.ID}
	created, err := s.CreateTemplate(ctx, doc)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	t.Cleanup(func() { _, _ = s.DeleteTemplate(context.Background(), created.ID) })
	if created.BackgroundImage == nil || created.BackgroundImage.Media == nil || created.BackgroundImage.Media.Width != 4 {
		t.Fatalf("background = %+v", created.BackgroundImage)
	}
	if len(created.Elements) != 1 || created.LabelConfig == nil || created.LabelConfig.LabelBlockWidth != 20 {
		t.Fatalf("created = %+v", created)
	}

	created.Name = "PG Gala 2"
	updated, err := s.UpdateTemplate(ctx, created.ID, created)
	if err != nil || updated.Name != "PG Gala 2" {
		t.Fatalf("update: %+v %v", updated, err)
	}

	docs, total, err := s.ListTemplates(ctx, ListQuery{Limit: 100, SortField: "updatedAt", Desc: true})
	if err != nil || total < 1 || len(docs) == 0 {
		t.Fatalf("list: %d %d %v", total, len(docs), err)
	}

	if _, err := s.DeleteTemplate(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetTemplate(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get after delete: %v", err)
	}
}
