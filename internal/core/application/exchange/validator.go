package exchange

import (
	"context"
	"fmt"

	"github.com/barterbay/barterd/internal/core/domain"
	"github.com/barterbay/barterd/internal/core/ports"
)

// ProposalValidator runs the ordered checks a proposal must pass before an
// exchange is created. It has no side effects.
type ProposalValidator struct {
	inventory    ports.InventoryProvider
	reservations domain.ReservationRepository
}

// NewProposalValidator returns a validator reading products from inventory.
// If reservations is not nil, the active holds are subtracted from the
// amounts returned by the provider.
func NewProposalValidator(
	inventory ports.InventoryProvider, reservations domain.ReservationRepository,
) (*ProposalValidator, error) {
	if inventory == nil {
		return nil, fmt.Errorf("missing inventory provider")
	}
	return &ProposalValidator{inventory, reservations}, nil
}

// Validate checks, in order: the parties differ, each product is active and
// owned by its party, each variant exists with enough available amount.
func (v *ProposalValidator) Validate(
	ctx context.Context, proposal domain.Proposal,
) error {
	if err := proposal.Validate(); err != nil {
		return err
	}

	offers := []struct {
		ownerId string
		offer   domain.Offer
	}{
		{proposal.RequesterId, proposal.RequesterOffer},
		{proposal.ReceiverId, proposal.ReceiverOffer},
	}

	products := make([]*ports.Product, 0, len(offers))
	for _, o := range offers {
		product, err := v.inventory.GetProduct(ctx, o.offer.ProductId)
		if err != nil {
			return err
		}
		if product == nil || product.OwnerId != o.ownerId || !product.IsActive() {
			return fmt.Errorf(
				"%w: product %s", domain.ErrProductNotEligible, o.offer.ProductId,
			)
		}
		products = append(products, product)
	}

	for i, o := range offers {
		available, err := v.availableAmount(ctx, products[i], o.offer)
		if err != nil {
			return err
		}
		if o.offer.Amount > available {
			return fmt.Errorf(
				"%w: product %s %s/%s has %d available, %d offered",
				domain.ErrInsufficientInventory, o.offer.ProductId,
				o.offer.Size, o.offer.Color, available, o.offer.Amount,
			)
		}
	}

	return nil
}

func (v *ProposalValidator) availableAmount(
	ctx context.Context, product *ports.Product, offer domain.Offer,
) (uint64, error) {
	variant, ok := product.Variant(offer.Size, offer.Color)
	if !ok {
		return 0, nil
	}
	if v.reservations == nil {
		return variant.Amount, nil
	}

	reserved, err := v.reservations.ReservedAmount(
		ctx, offer.ProductId, offer.Size, offer.Color,
	)
	if err != nil {
		return 0, err
	}
	if reserved >= variant.Amount {
		return 0, nil
	}
	return variant.Amount - reserved, nil
}
