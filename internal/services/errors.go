package services

import "errors"

var (
	ErrBadCreds     = errors.New("invalid email or password")
	ErrEmailTaken   = errors.New("email already registered")
	ErrLoginToShop  = errors.New("please log in to add items to your cart")
	ErrNotLoggedIn  = errors.New("not logged in")
	ErrOutOfStock   = errors.New("product is out of stock")
	ErrNotFound     = errors.New("product not found")
	ErrNotInCart    = errors.New("item not in cart")
	ErrCatalogState = errors.New("catalog not loaded")

	ErrUnknownField        = errors.New("field does not belong to the current step")
	ErrWrongStep           = errors.New("action not allowed at the current checkout step")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrInvalidDetails      = errors.New("checkout details incomplete")
	ErrPlacementInProgress = errors.New("order placement already in progress")
	ErrPaymentDeclined     = errors.New("payment declined")
	ErrCheckoutAbandoned   = errors.New("checkout was left before payment resolved")
	ErrCartChanged         = errors.New("cart changed while payment was processing")
	ErrOrderNumber         = errors.New("could not allocate a unique order number")
)

// Storage keys owned by the session stores.
const (
	KeyCart            = "cart"
	KeyUser            = "user"
	KeyShippingDetails = "shippingDetails"
	KeyOrderTotals     = "orderTotals"
	KeyPurchaseHistory = "purchaseHistory"
	KeyOrderNumber     = "orderNumber"
	KeyProductStock    = "productStock"
)
