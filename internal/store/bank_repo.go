package store

import (
	"context"
	"encoding/json"

	"github.com/abhisek/quizpool/internal/bank"
	"github.com/abhisek/quizpool/internal/pool"
)

type bankRepo struct {
	docs documents
}

func (r *bankRepo) Save(ctx context.Context, b *bank.Bank) error {
	return r.docs.put(ctx, b.ID, b.Name, b)
}

func (r *bankRepo) Get(ctx context.Context, id string) (*bank.Bank, error) {
	var b bank.Bank
	if err := r.docs.get(ctx, id, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bankRepo) List(ctx context.Context) ([]*bank.Bank, error) {
	var out []*bank.Bank
	err := r.docs.list(ctx, func(data []byte) error {
		var b bank.Bank
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		out = append(out, &b)
		return nil
	})
	return out, err
}

func (r *bankRepo) Delete(ctx context.Context, id string) error {
	return r.docs.delete(ctx, id)
}

type poolRepo struct {
	docs documents
}

func (r *poolRepo) Save(ctx context.Context, p *pool.Pool) error {
	return r.docs.put(ctx, p.ID, p.Name, p)
}

func (r *poolRepo) Get(ctx context.Context, id string) (*pool.Pool, error) {
	var p pool.Pool
	if err := r.docs.get(ctx, id, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *poolRepo) List(ctx context.Context) ([]*pool.Pool, error) {
	var out []*pool.Pool
	err := r.docs.list(ctx, func(data []byte) error {
		var p pool.Pool
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		out = append(out, &p)
		return nil
	})
	return out, err
}

func (r *poolRepo) Delete(ctx context.Context, id string) error {
	return r.docs.delete(ctx, id)
}

// LoadBanks fetches every bank a pool draws from. Missing banks are left
// out so that pool.Validate can report them.
func LoadBanks(ctx context.Context, repo BankRepo, p *pool.Pool) (pool.Banks, error) {
	banks := make(pool.Banks, len(p.Sources))
	for _, id := range p.BankIDs() {
		b, err := repo.Get(ctx, id)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, err
		}
		banks[id] = b
	}
	return banks, nil
}
