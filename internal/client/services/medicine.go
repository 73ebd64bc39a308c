package services

import (
	"context"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/pharmalink/internal/client/client"
	"github.com/dmitrijs2005/pharmalink/internal/wire"
)

const pathMedicines = "/medicines"

// ListQuery filters the catalogue. Zero values fall back to server defaults.
type ListQuery struct {
	Search string
	Page   int
	Limit  int
}

func (q ListQuery) params() map[string]any {
	p := map[string]any{}
	if s := strings.TrimSpace(q.Search); s != "" {
		p["search"] = s
	}
	if q.Page > 0 {
		p["page"] = q.Page
	}
	if q.Limit > 0 {
		p["limit"] = q.Limit
	}
	return p
}

type MedicineService interface {
	List(ctx context.Context, q ListQuery) ([]wire.Medicine, *wire.Pagination, error)
	Get(ctx context.Context, id string) (*wire.Medicine, error)
	Create(ctx context.Context, req wire.CreateMedicineRequest) (*wire.Medicine, error)
	Delete(ctx context.Context, id string) error
}

type medicineService struct {
	client *client.Client
}

func NewMedicineService(c *client.Client) MedicineService {
	return &medicineService{client: c}
}

func (s *medicineService) List(ctx context.Context, q ListQuery) ([]wire.Medicine, *wire.Pagination, error) {
	var (
		items []wire.Medicine
		meta  wire.Meta
	)
	if err := s.client.Get(ctx, pathMedicines, &items, client.WithQuery(q.params()), client.WithMeta(&meta)); err != nil {
		return nil, nil, err
	}
	return items, meta.Pagination, nil
}

func (s *medicineService) Get(ctx context.Context, id string) (*wire.Medicine, error) {
	var m wire.Medicine
	if err := s.client.Get(ctx, medicinePath(id), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Create is not retried on transport failures: a lost response may still
// have created the record.
func (s *medicineService) Create(ctx context.Context, req wire.CreateMedicineRequest) (*wire.Medicine, error) {
	var m wire.Medicine
	if err := s.client.Post(ctx, pathMedicines, &m, client.WithBody(req)); err != nil {
		return nil, err
	}
	return &m, nil
}

// Delete is idempotent on the server, so transport failures are retried.
func (s *medicineService) Delete(ctx context.Context, id string) error {
	return s.client.Delete(ctx, medicinePath(id), nil, client.WithRetry())
}

func medicinePath(id string) string {
	return pathMedicines + "/" + url.PathEscape(id)
}
