// Package services holds the client application logic the REPL drives.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/keepsync/internal/client/models"
	"github.com/dmitrijs2005/keepsync/internal/client/store"
	"github.com/dmitrijs2005/keepsync/internal/common"
)

// Store is the local store as seen by the services. *store.Store implements it.
type Store interface {
	Collection(name string) (*store.Collection, error)
	Pending(ctx context.Context) (map[string]int, error)
}

type RecordService interface {
	// Add validates payload and stores it as a new dirty record. payload is a
	// models.Payload or raw JSON.
	Add(ctx context.Context, collection string, payload any) (string, error)
	Edit(ctx context.Context, collection, id string, payload any) error
	Delete(ctx context.Context, collection, id string) error
	Get(ctx context.Context, collection, id string) (*RecordView, error)
	List(ctx context.Context, collection string) ([]RecordView, error)
	Pending(ctx context.Context) (map[string]int, error)
}

// RecordView is a record with its decoded payload.
type RecordView struct {
	ID           string
	Collection   string
	Title        string
	Dirty        bool
	RemoteID     string
	LastSyncTime time.Time
	Payload      models.Payload
}

type recordService struct {
	store Store
}

func NewRecordService(s Store) RecordService {
	return &recordService{store: s}
}

func (s *recordService) encode(collection string, payload any) (json.RawMessage, error) {
	var p models.Payload
	switch v := payload.(type) {
	case models.Payload:
		p = v
	case json.RawMessage:
		decoded, err := s.decode(collection, v)
		if err != nil {
			return nil, err
		}
		p = decoded
	case []byte:
		return s.encode(collection, json.RawMessage(v))
	case string:
		return s.encode(collection, json.RawMessage(v))
	default:
		return nil, fmt.Errorf("%w: unsupported payload type %T", common.ErrValidation, payload)
	}

	if p.Collection() != collection {
		return nil, fmt.Errorf("%w: %s payload does not belong to %s", common.ErrValidation, p.Collection(), collection)
	}
	return models.Encode(p)
}

func (s *recordService) decode(collection string, raw json.RawMessage) (models.Payload, error) {
	p, err := models.New(collection)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, p); err != nil {
		return nil, fmt.Errorf("%w: malformed %s payload: %w", common.ErrValidation, collection, err)
	}
	return p, nil
}

func (s *recordService) Add(ctx context.Context, collection string, payload any) (string, error) {
	c, err := s.store.Collection(collection)
	if err != nil {
		return "", err
	}
	raw, err := s.encode(collection, payload)
	if err != nil {
		return "", err
	}

	rec := &models.Record{Payload: raw}
	if err := c.Insert(ctx, rec); err != nil {
		return "", fmt.Errorf("error saving record: %w", err)
	}
	return rec.ID, nil
}

func (s *recordService) Edit(ctx context.Context, collection, id string, payload any) error {
	c, err := s.store.Collection(collection)
	if err != nil {
		return err
	}
	raw, err := s.encode(collection, payload)
	if err != nil {
		return err
	}

	if err := c.Update(ctx, &models.Record{ID: id, Payload: raw}); err != nil {
		return fmt.Errorf("error updating record: %w", err)
	}
	return nil
}

func (s *recordService) Delete(ctx context.Context, collection, id string) error {
	c, err := s.store.Collection(collection)
	if err != nil {
		return err
	}
	if err := c.Delete(ctx, id); err != nil {
		return fmt.Errorf("error deleting record: %w", err)
	}
	return nil
}

func (s *recordService) Get(ctx context.Context, collection, id string) (*RecordView, error) {
	c, err := s.store.Collection(collection)
	if err != nil {
		return nil, err
	}
	rec, err := c.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error retrieving record: %w", err)
	}
	v := s.view(rec)
	return &v, nil
}

func (s *recordService) List(ctx context.Context, collection string) ([]RecordView, error) {
	c, err := s.store.Collection(collection)
	if err != nil {
		return nil, err
	}
	recs, err := c.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing records: %w", err)
	}
	return Views(recs), nil
}

func (s *recordService) Pending(ctx context.Context) (map[string]int, error) {
	return s.store.Pending(ctx)
}

// Views decodes records for display; payloads that do not decode keep an
// empty title.
func Views(recs []*models.Record) []RecordView {
	svc := &recordService{}
	out := make([]RecordView, 0, len(recs))
	for _, r := range recs {
		out = append(out, svc.view(r))
	}
	return out
}

func (s *recordService) view(rec *models.Record) RecordView {
	v := RecordView{
		ID:           rec.ID,
		Collection:   rec.Collection,
		Dirty:        rec.Dirty,
		RemoteID:     rec.RemoteID,
		LastSyncTime: rec.LastSyncTime,
	}
	p, err := s.decode(rec.Collection, rec.Payload)
	if err != nil {
		return v
	}
	v.Payload = p
	v.Title = Title(p)
	return v
}

// Title is the one-line label of a payload.
func Title(p models.Payload) string {
	switch v := p.(type) {
	case *models.Article:
		return v.Title
	case *models.Category:
		return v.Name
	case *models.Tag:
		return v.Name
	case models.Article:
		return v.Title
	case models.Category:
		return v.Name
	case models.Tag:
		return v.Name
	default:
		return ""
	}
}
