package directory

import (
	"context"
	"strings"

	"cageledger/internal/domain"
	"cageledger/internal/store"
)

// Directory manages the customer roster. Customer identity lives here;
// ledger records only carry a denormalized copy of the name.
type Directory struct {
	store store.Store
}

func New(s store.Store) *Directory {
	return &Directory{store: s}
}

func (d *Directory) Register(ctx context.Context, req domain.CustomerCreateRequest) (domain.Customer, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Customer{}, store.ErrValidation
	}

	doc, err := d.store.Insert(ctx, store.CollectionCustomer, store.Fields{
		"name":    name,
		"phone":   strings.TrimSpace(req.Phone),
		"address": strings.TrimSpace(req.Address),
	})
	if err != nil {
		return domain.Customer{}, err
	}

	return customerFromDoc(*doc), nil
}

// List returns all customers, newest first.
func (d *Directory) List(ctx context.Context) ([]domain.Customer, error) {
	docs, err := d.store.Query(ctx, store.CollectionCustomer, store.Query{Descending: true})
	if err != nil {
		return nil, err
	}

	customers := make([]domain.Customer, 0, len(docs))
	for _, doc := range docs {
		customers = append(customers, customerFromDoc(doc))
	}
	return customers, nil
}

func (d *Directory) Get(ctx context.Context, id string) (domain.Customer, error) {
	doc, err := d.store.Get(ctx, store.CollectionCustomer, id)
	if err != nil {
		return domain.Customer{}, err
	}
	return customerFromDoc(*doc), nil
}

func (d *Directory) Update(ctx context.Context, id string, req domain.CustomerUpdateRequest) (domain.Customer, error) {
	fields := store.Fields{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Customer{}, store.ErrValidation
		}
		fields["name"] = name
	}
	if req.Phone != nil {
		fields["phone"] = strings.TrimSpace(*req.Phone)
	}
	if req.Address != nil {
		fields["address"] = strings.TrimSpace(*req.Address)
	}

	if len(fields) == 0 {
		return d.Get(ctx, id)
	}

	doc, err := d.store.Update(ctx, store.CollectionCustomer, id, fields)
	if err != nil {
		return domain.Customer{}, err
	}
	return customerFromDoc(*doc), nil
}

func (d *Directory) Remove(ctx context.Context, id string) error {
	return d.store.Delete(ctx, store.CollectionCustomer, id)
}

func customerFromDoc(doc store.Document) domain.Customer {
	return domain.Customer{
		ID:        doc.ID,
		Name:      doc.Fields.String("name"),
		Phone:     doc.Fields.String("phone"),
		Address:   doc.Fields.String("address"),
		CreatedAt: doc.CreatedAt,
	}
}
