package product

import (
	"context"
	"fmt"
	"sort"
)

// SyncCachedQuantity rewrites the denormalized product quantity from live item rows.
// Call it inside the unit of work that changed the items. The product row is locked
// before counting, so a concurrent writer's count is taken after this one commits.
func SyncCachedQuantity(ctx context.Context, products Repository, counter AvailableCounter, productID string) (int, error) {
	if err := products.LockForUpdate(ctx, productID); err != nil {
		return 0, fmt.Errorf("lock product %s: %w", productID, err)
	}
	n, err := counter.CountAvailable(ctx, productID)
	if err != nil {
		return 0, fmt.Errorf("count available items of %s: %w", productID, err)
	}
	if err := products.SetCachedQuantity(ctx, productID, n); err != nil {
		return 0, fmt.Errorf("set cached quantity of %s: %w", productID, err)
	}
	return n, nil
}

// SyncCachedQuantities syncs each distinct product once, in ascending id order,
// so concurrent units of work take product row locks in the same order.
func SyncCachedQuantities(ctx context.Context, products Repository, counter AvailableCounter, productIDs []string) error {
	ids := append([]string(nil), productIDs...)
	sort.Strings(ids)
	for i, id := range ids {
		if i > 0 && ids[i-1] == id {
			continue
		}
		if _, err := SyncCachedQuantity(ctx, products, counter, id); err != nil {
			return err
		}
	}
	return nil
}
