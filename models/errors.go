package models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyCart             = errors.New("cart is empty")
	ErrProductNotFound       = errors.New("product not found")
	ErrProductUnavailable    = errors.New("product unavailable")
	ErrInsufficientStock     = errors.New("insufficient stock")
	ErrInvalidQuantity       = errors.New("invalid quantity")
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrAdjustmentOutOfRange  = errors.New("adjustment out of range")
	ErrNotAdjustable         = errors.New("item is not adjustable")
	ErrNotFound              = errors.New("not found")
	ErrForbidden             = errors.New("forbidden")
	ErrTransactionAborted    = errors.New("transaction aborted")
	ErrInvalidDeliveryMethod = errors.New("invalid delivery method")
)

// ErrorKind is the stable name of a failure, used in error payloads.
type ErrorKind string

const (
	KindEmptyCart             ErrorKind = "empty_cart"
	KindProductNotFound       ErrorKind = "product_not_found"
	KindProductUnavailable    ErrorKind = "product_unavailable"
	KindInsufficientStock     ErrorKind = "insufficient_stock"
	KindInvalidQuantity       ErrorKind = "invalid_quantity"
	KindInvalidTransition     ErrorKind = "invalid_transition"
	KindAdjustmentOutOfRange  ErrorKind = "adjustment_out_of_range"
	KindNotAdjustable         ErrorKind = "not_adjustable"
	KindNotFound              ErrorKind = "not_found"
	KindForbidden             ErrorKind = "forbidden"
	KindTransactionAborted    ErrorKind = "transaction_aborted"
	KindInvalidDeliveryMethod ErrorKind = "invalid_delivery_method"
	KindInternal              ErrorKind = "internal"
)

var kinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrEmptyCart, KindEmptyCart},
	{ErrProductNotFound, KindProductNotFound},
	{ErrProductUnavailable, KindProductUnavailable},
	{ErrInsufficientStock, KindInsufficientStock},
	{ErrInvalidQuantity, KindInvalidQuantity},
	{ErrInvalidTransition, KindInvalidTransition},
	{ErrAdjustmentOutOfRange, KindAdjustmentOutOfRange},
	{ErrNotAdjustable, KindNotAdjustable},
	{ErrNotFound, KindNotFound},
	{ErrForbidden, KindForbidden},
	{ErrTransactionAborted, KindTransactionAborted},
	{ErrInvalidDeliveryMethod, KindInvalidDeliveryMethod},
}

// KindOf returns the kind of the first known sentinel err wraps.
func KindOf(err error) ErrorKind {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

type InsufficientStockError struct {
	ProductID int64
	Name      string
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (product %d): requested %s, available %s",
		e.Name, e.ProductID, e.Requested.String(), e.Available.String())
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

type ProductUnavailableError struct {
	ProductID int64
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("product %d is no longer available", e.ProductID)
}

func (e *ProductUnavailableError) Is(target error) bool { return target == ErrProductUnavailable }

type InvalidTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot move from %s to %s", e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }

type AdjustmentRangeError struct {
	Ordered decimal.Decimal
	Min     decimal.Decimal
	Max     decimal.Decimal
	Actual  decimal.Decimal
}

func (e *AdjustmentRangeError) Error() string {
	return fmt.Sprintf("actual quantity %s must be between %s and %s (ordered %s)",
		e.Actual.String(), e.Min.String(), e.Max.String(), e.Ordered.String())
}

func (e *AdjustmentRangeError) Is(target error) bool { return target == ErrAdjustmentOutOfRange }

// Aborted wraps an infrastructure failure as a retryable aborted transaction.
func Aborted(err error) error {
	if err == nil || errors.Is(err, ErrTransactionAborted) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrTransactionAborted, err)
}
