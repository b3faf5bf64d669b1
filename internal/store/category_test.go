// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"classifieds/internal/models"
)

func TestCategoryStoreCreateAndFind(t *testing.T) {
	db := testDB(t)
	s := NewCategoryStore(db)
	ctx := context.Background()

	leaf := newCategoryPath(t, db, "vehicles/cars")
	if leaf.Level != 2 || !strings.HasSuffix(leaf.Path, "/cars") {
		t.Errorf("leaf = %+v", leaf)
	}
	if leaf.ParentID == nil {
		t.Fatal("leaf has no parent")
	}

	byPath, err := s.FindByPath(ctx, leaf.Path)
	if err != nil || byPath == nil || byPath.ID != leaf.ID {
		t.Fatalf("FindByPath = %v, %v", byPath, err)
	}
	if byPath.Name("ro") != "cars" {
		t.Errorf("Name fallback: %q", byPath.Name("ro"))
	}

	missing, err := s.FindByID(ctx, uuid.New())
	if err != nil || missing != nil {
		t.Errorf("FindByID(unknown) = %v, %v", missing, err)
	}
}

func TestCategoryStoreCreateNormalizesSlug(t *testing.T) {
	db := testDB(t)
	s := NewCategoryStore(db)
	ctx := context.Background()

	suffix := uuid.NewString()[:8]
	c, err := s.Create(ctx, nil, "", map[string]string{"en": "Недвижимость " + suffix}, 1000)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { s.Delete(ctx, c.ID) })
	if want := "nedvizhimost-" + suffix; c.Slug != want || c.Path != want {
		t.Errorf("slug = %q, path = %q, want %q", c.Slug, c.Path, want)
	}

	if _, err := s.Create(ctx, nil, "!!!", map[string]string{"ro": "x"}, 1000); err == nil {
		t.Error("Create with unusable slug: want error")
	}
}

func TestCategoryStoreTree(t *testing.T) {
	db := testDB(t)
	s := NewCategoryStore(db)
	ctx := context.Background()

	leaf := newCategoryPath(t, db, "electronics/phones")
	rootID := *leaf.ParentID

	tree, err := s.Tree(ctx)
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	var root *models.Category
	for i := range tree {
		if tree[i].ID == rootID {
			root = &tree[i]
		}
	}
	if root == nil {
		t.Fatal("test root missing from tree")
	}
	if len(root.Children) != 1 || root.Children[0].ID != leaf.ID {
		t.Errorf("children = %+v", root.Children)
	}

	flat, err := s.FlatTree(ctx)
	if err != nil {
		t.Fatalf("FlatTree: %v", err)
	}
	for i, c := range flat {
		if c.ID == rootID {
			if i+1 >= len(flat) || flat[i+1].ID != leaf.ID {
				t.Error("child does not follow its parent in FlatTree")
			}
			if len(c.Children) != 0 {
				t.Error("FlatTree entries should not carry children")
			}
		}
	}
}
