package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/keepsync/internal/common"
)

// Known collections.
const (
	CollectionArticles   = "articles"
	CollectionCategories = "categories"
	CollectionTags       = "tags"
)

// Collections lists the collections the client syncs, in sync order.
func Collections() []string {
	return []string{CollectionCategories, CollectionTags, CollectionArticles}
}

// Payload is implemented by the typed documents stored in records.
type Payload interface {
	Collection() string
	Validate() error
}

// Article is a piece of content. CategoryID and TagIDs reference records of
// other collections by their local ID.
type Article struct {
	Title      string   `json:"title"`
	Body       string   `json:"body,omitempty"`
	CategoryID string   `json:"category_id,omitempty"`
	TagIDs     []string `json:"tag_ids,omitempty"`
}

func (Article) Collection() string { return CollectionArticles }

func (a Article) Validate() error {
	if strings.TrimSpace(a.Title) == "" {
		return fmt.Errorf("%w: article title is required", common.ErrValidation)
	}
	return nil
}

// Category groups articles.
type Category struct {
	Name string `json:"name"`
}

func (Category) Collection() string { return CollectionCategories }

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: category name is required", common.ErrValidation)
	}
	return nil
}

// Tag labels articles.
type Tag struct {
	Name string `json:"name"`
}

func (Tag) Collection() string { return CollectionTags }

func (t Tag) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: tag name is required", common.ErrValidation)
	}
	return nil
}

// Encode validates p and marshals it into a record payload.
func Encode(p Payload) (json.RawMessage, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", p.Collection(), err)
	}
	return b, nil
}

// Decode unmarshals a record payload into T.
func Decode[T Payload](raw json.RawMessage) (T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("decode %s: %w", v.Collection(), err)
	}
	return v, nil
}

// New returns an empty typed payload for a known collection.
func New(collection string) (Payload, error) {
	switch collection {
	case CollectionArticles:
		return &Article{}, nil
	case CollectionCategories:
		return &Category{}, nil
	case CollectionTags:
		return &Tag{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown collection %q", common.ErrValidation, collection)
	}
}
