package customers

import (
	"context"
	"sync"

	"github.com/Kushalsharma0702/financial-voice-chatbot/internal/speech"
)

// MemoryDirectory is an in-memory Directory for tests and local runs.
type MemoryDirectory struct {
	mu           sync.RWMutex
	customers    []Customer
	installments map[string]Installment
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{installments: make(map[string]Installment)}
}

func (d *MemoryDirectory) Put(c Customer, inst *Installment) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.customers = append(d.customers, c)
	if inst != nil {
		d.installments[c.ID] = *inst
	}
}

// FindByAccountID returns the earliest Put whose account digits match.
func (d *MemoryDirectory) FindByAccountID(_ context.Context, accountDigits string) (Customer, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if accountDigits == "" {
		return Customer{}, ErrNotFound
	}
	for _, c := range d.customers {
		if speech.ExtractDigits(c.AccountID) == accountDigits {
			return c, nil
		}
	}
	return Customer{}, ErrNotFound
}

func (d *MemoryDirectory) LatestInstallment(_ context.Context, customerID string) (Installment, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	inst, ok := d.installments[customerID]
	if !ok {
		return Installment{}, ErrNotFound
	}
	return inst, nil
}
