package http

import (
	"errors"
	"net/http"

	catalogdomain "github.com/mercatus/storefront/internal/catalog/domain"
	inventorydomain "github.com/mercatus/storefront/internal/inventory/domain"
	"github.com/mercatus/storefront/internal/order/domain"
	"github.com/mercatus/storefront/internal/pricing"
	pricingdomain "github.com/mercatus/storefront/internal/pricing/domain"
	storedomain "github.com/mercatus/storefront/internal/store/domain"
	"github.com/mercatus/storefront/pkg/database"
)

// statusFor maps domain errors onto HTTP status codes. Validation misses are
// 400/404, business-state conflicts are 409, everything unknown is 500.
func statusFor(err error) int {
	var insufficientStock *inventorydomain.InsufficientStockError
	var invalidTransition *domain.InvalidTransitionError

	switch {
	case errors.Is(err, storedomain.ErrStoreNotFound),
		errors.Is(err, catalogdomain.ErrVariantNotFound),
		errors.Is(err, catalogdomain.ErrWarehouseNotFound),
		errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrRefundNotFound),
		errors.Is(err, inventorydomain.ErrLevelNotFound):
		return http.StatusNotFound

	case errors.As(err, &insufficientStock),
		errors.Is(err, pricingdomain.ErrDiscountInvalid),
		errors.Is(err, pricingdomain.ErrGiftCardInvalid),
		errors.Is(err, domain.ErrRefundExceedsOrderTotal),
		errors.Is(err, domain.ErrRefundAlreadyDecided),
		errors.Is(err, domain.ErrRefundNotAllowed),
		errors.Is(err, database.ErrTxConflict):
		return http.StatusConflict

	case errors.As(err, &invalidTransition),
		errors.Is(err, domain.ErrMissingTrackingInfo):
		return http.StatusUnprocessableEntity

	case errors.Is(err, pricing.ErrCurrencyUnsupported),
		errors.Is(err, domain.ErrInvalidRefundAmount),
		errors.Is(err, domain.ErrInvalidRefundReason):
		return http.StatusBadRequest
	}

	return http.StatusBadRequest
}
