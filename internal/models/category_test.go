package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func catTree(cats ...*Category) map[uuid.UUID]*Category {
	byID := make(map[uuid.UUID]*Category, len(cats))
	for _, c := range cats {
		byID[c.ID] = c
	}
	return byID
}

func TestCategoryPathValid(t *testing.T) {
	root := &Category{ID: uuid.New()}
	child := &Category{ID: uuid.New(), ParentID: &root.ID}
	grandchild := &Category{ID: uuid.New(), ParentID: &child.ID}

	byID := catTree(root, child, grandchild)

	assert.True(t, CategoryPathValid(root.ID, byID))
	assert.True(t, CategoryPathValid(child.ID, byID))
	assert.True(t, CategoryPathValid(grandchild.ID, byID))
}

func TestCategoryPathValidDetectsCycle(t *testing.T) {
	a := &Category{ID: uuid.New()}
	b := &Category{ID: uuid.New(), ParentID: &a.ID}
	a.ParentID = &b.ID

	byID := catTree(a, b)
	assert.False(t, CategoryPathValid(a.ID, byID))
	assert.False(t, CategoryPathValid(b.ID, byID))
}

func TestCategoryPathValidSelfParent(t *testing.T) {
	a := &Category{ID: uuid.New()}
	a.ParentID = &a.ID
	assert.False(t, CategoryPathValid(a.ID, catTree(a)))
}

func TestCategoryPathValidDanglingParent(t *testing.T) {
	missing := uuid.New()
	a := &Category{ID: uuid.New(), ParentID: &missing}
	assert.False(t, CategoryPathValid(a.ID, catTree(a)))

	assert.False(t, CategoryPathValid(uuid.New(), catTree()), "unknown start id")
}

func TestCategoryPathValidDepthBound(t *testing.T) {
	cats := make([]*Category, maxCategoryDepth+3)
	for i := range cats {
		cats[i] = &Category{ID: uuid.New()}
		if i > 0 {
			cats[i].ParentID = &cats[i-1].ID
		}
	}
	byID := catTree(cats...)

	assert.True(t, CategoryPathValid(cats[maxCategoryDepth].ID, byID))
	assert.False(t, CategoryPathValid(cats[len(cats)-1].ID, byID))
}
