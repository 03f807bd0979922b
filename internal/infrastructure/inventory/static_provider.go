package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/barterbay/barterd/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

// StaticProvider serves product snapshots from memory. It backs development
// setups and tests where no catalog service is reachable.
type StaticProvider struct {
	lock     sync.RWMutex
	products map[string]ports.Product
}

// NewStaticProvider ...
func NewStaticProvider(products ...ports.Product) *StaticProvider {
	p := &StaticProvider{products: make(map[string]ports.Product)}
	p.Set(products...)
	return p
}

// NewFileProvider loads a JSON array of products from path.
func NewFileProvider(path string) (*StaticProvider, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read inventory file: %w", err)
	}

	var products []ports.Product
	if err := json.Unmarshal(buf, &products); err != nil {
		return nil, fmt.Errorf("decode inventory file: %w", err)
	}
	for _, p := range products {
		if p.Id == "" {
			return nil, fmt.Errorf("inventory file contains a product without id")
		}
	}

	log.Infof("loaded %d products from %s", len(products), path)
	return NewStaticProvider(products...), nil
}

// Set adds or replaces the given products.
func (p *StaticProvider) Set(products ...ports.Product) {
	p.lock.Lock()
	defer p.lock.Unlock()

	for _, product := range products {
		p.products[product.Id] = product
	}
}

func (p *StaticProvider) GetProduct(
	_ context.Context, productId string,
) (*ports.Product, error) {
	p.lock.RLock()
	defer p.lock.RUnlock()

	product, ok := p.products[productId]
	if !ok {
		return nil, nil
	}
	return &product, nil
}

var _ ports.InventoryProvider = (*StaticProvider)(nil)
