// Package pricing computes order money amounts from catalog snapshots.
// Everything here is pure: no I/O, no clock, integer VND only.
package pricing

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/models"
)

// Line is one requested (product, quantity) pair.
type Line struct {
	ProductID primitive.ObjectID
	Quantity  int
}

type InvalidQuantityError struct {
	ProductID primitive.ObjectID
	Quantity  int
}

func (e InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity %d is invalid for product %s", e.Quantity, e.ProductID.Hex())
}

type ProductNotFoundError struct {
	ProductID primitive.ObjectID
}

func (e ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID.Hex())
}

type ProductUnavailableError struct {
	ProductID primitive.ObjectID
}

func (e ProductUnavailableError) Error() string {
	return fmt.Sprintf("product %s is unavailable", e.ProductID.Hex())
}

func isOnSale(p models.Product) bool {
	return p.SaleEnabled && p.SalePrice > 0 && p.SalePrice < p.Price
}

// EffectiveUnitPrice returns the sale price while a valid sale is active,
// otherwise the regular price.
func EffectiveUnitPrice(p models.Product) int64 {
	if isOnSale(p) {
		return p.SalePrice
	}
	return p.Price
}

// PriceItems snapshots each line against the catalog and computes the order
// subtotal. products is keyed by hex product id.
func PriceItems(lines []Line, products map[string]models.Product) ([]models.OrderItem, int64, error) {
	items := make([]models.OrderItem, 0, len(lines))
	var subtotal int64

	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, 0, InvalidQuantityError{ProductID: line.ProductID, Quantity: line.Quantity}
		}

		product, ok := products[line.ProductID.Hex()]
		if !ok {
			return nil, 0, ProductNotFoundError{ProductID: line.ProductID}
		}
		if !product.IsAvailable || product.IsDeleted {
			return nil, 0, ProductUnavailableError{ProductID: line.ProductID}
		}

		unitPrice := EffectiveUnitPrice(product)
		lineTotal := unitPrice * int64(line.Quantity)
		items = append(items, models.OrderItem{
			ProductID: line.ProductID,
			Name:      product.Name,
			Price:     unitPrice,
			Quantity:  line.Quantity,
			LineTotal: lineTotal,
		})
		subtotal += lineTotal
	}

	return items, subtotal, nil
}
