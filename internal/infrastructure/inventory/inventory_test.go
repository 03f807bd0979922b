package inventory_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/barterbay/barterd/internal/core/ports"
	"github.com/barterbay/barterd/internal/infrastructure/inventory"
	"github.com/stretchr/testify/require"
	"github.com/thanhpk/randstr"
)

func newTestProduct() ports.Product {
	return ports.Product{
		Id:      randstr.Hex(8),
		OwnerId: randstr.Hex(8),
		Status:  ports.ProductStatusActive,
		Variants: []ports.ProductVariant{
			{Size: "M", Color: "red", Amount: 3},
			{Size: "L", Color: "blue", Amount: 1},
		},
	}
}

func TestCatalogClient(t *testing.T) {
	bare := newTestProduct()
	wrapped := newTestProduct()

	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/products/")
			w.Header().Set("Content-Type", "application/json")
			switch id {
			case bare.Id:
				json.NewEncoder(w).Encode(bare)
			case wrapped.Id:
				json.NewEncoder(w).Encode(map[string]interface{}{
					"success": true,
					"data":    wrapped,
				})
			case "broken":
				http.Error(w, "boom", http.StatusInternalServerError)
			default:
				http.NotFound(w, r)
			}
		},
	))
	t.Cleanup(server.Close)

	client, err := inventory.NewCatalogClient(server.URL+"/", 100)
	require.NoError(t, err)

	ctx := context.Background()

	product, err := client.GetProduct(ctx, bare.Id)
	require.NoError(t, err)
	require.Equal(t, bare, *product)

	product, err = client.GetProduct(ctx, wrapped.Id)
	require.NoError(t, err)
	require.Equal(t, wrapped, *product)

	variant, ok := product.Variant("L", "blue")
	require.True(t, ok)
	require.Equal(t, uint64(1), variant.Amount)
	_, ok = product.Variant("L", "red")
	require.False(t, ok)

	product, err = client.GetProduct(ctx, "unknown")
	require.NoError(t, err)
	require.Nil(t, product)

	product, err = client.GetProduct(ctx, "broken")
	require.Error(t, err)
	require.Nil(t, product)
}

func TestNewCatalogClientFailing(t *testing.T) {
	_, err := inventory.NewCatalogClient("not a url", 10)
	require.Error(t, err)

	_, err = inventory.NewCatalogClient("http://localhost:9000", 0)
	require.Error(t, err)
}

func TestFileProvider(t *testing.T) {
	products := []ports.Product{newTestProduct(), newTestProduct()}
	buf, err := json.Marshal(products)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, buf, 0644))

	provider, err := inventory.NewFileProvider(path)
	require.NoError(t, err)

	ctx := context.Background()
	for _, p := range products {
		got, err := provider.GetProduct(ctx, p.Id)
		require.NoError(t, err)
		require.Equal(t, p, *got)
	}

	got, err := provider.GetProduct(ctx, "unknown")
	require.NoError(t, err)
	require.Nil(t, got)

	_, err = inventory.NewFileProvider(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
