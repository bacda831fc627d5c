package services

import (
	"maps"
	"sync"

	"storefront/internal/domain"
	"storefront/internal/repos"
	"storefront/internal/validate"
)

const (
	MsgPaymentSuccess = "Payment successful! Your order has been placed."
	MsgPaymentFailed  = "Payment failed. Please try again."
)

// CheckoutView is a read-only copy of the workflow state.
type CheckoutView struct {
	Step        domain.CheckoutStep    `json:"step"`
	StepName    string                 `json:"stepName"`
	Shipping    domain.ShippingDetails `json:"shippingDetails"`
	Payment     domain.PaymentDetails  `json:"paymentDetails"`
	Errors      map[string]string      `json:"errors"`
	Message     string                 `json:"message,omitempty"`
	Processing  bool                   `json:"processing"`
	OrderNumber int64                  `json:"orderNumber,omitempty"`
}

// Checkout is the Shipping -> Payment -> Review wizard. It owns the shipping
// draft (persisted) and the payment details (memory only).
type Checkout struct {
	mu    sync.Mutex
	store repos.Storage

	step        domain.CheckoutStep
	shipping    domain.ShippingDetails
	payment     domain.PaymentDetails
	errs        map[string]string
	message     string
	processing  bool
	orderNumber int64
	// bumped whenever the shopper (re)enters or leaves checkout
	generation uint64
}

func NewCheckout(store repos.Storage) *Checkout {
	return &Checkout{
		store:    store,
		step:     domain.StepEmpty,
		shipping: repos.Load(store, KeyShippingDetails, domain.ShippingDetails{}),
		errs:     map[string]string{},
	}
}

func (w *Checkout) view() CheckoutView {
	return CheckoutView{
		Step:        w.step,
		StepName:    w.step.String(),
		Shipping:    w.shipping,
		Payment:     w.payment,
		Errors:      maps.Clone(w.errs),
		Message:     w.message,
		Processing:  w.processing,
		OrderNumber: w.orderNumber,
	}
}

func (w *Checkout) View() CheckoutView {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.view()
}

// Begin enters checkout. An empty cart parks the wizard in StepEmpty where
// every action is refused; otherwise it restarts at shipping with the saved
// draft and blank payment details.
func (w *Checkout) Begin(cartEmpty bool) CheckoutView {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.generation++
	w.payment = domain.PaymentDetails{}
	w.errs = map[string]string{}
	w.message = ""
	w.processing = false
	w.orderNumber = 0
	if cartEmpty {
		w.step = domain.StepEmpty
	} else {
		w.step = domain.StepShipping
	}
	return w.view()
}

// Leave abandons checkout. Any payment still in flight resolves as a no-op.
func (w *Checkout) Leave() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.generation++
	w.step = domain.StepEmpty
	w.payment = domain.PaymentDetails{}
	w.errs = map[string]string{}
	w.message = ""
	w.processing = false
}

// SetField edits one input of the current step and recomputes that field's
// error only.
func (w *Checkout) SetField(key, value string) (CheckoutView, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	var ok bool
	switch w.step {
	case domain.StepShipping:
		ok = w.shipping.Set(key, value)
	case domain.StepPayment:
		ok = w.payment.Set(key, value)
	default:
		return w.view(), ErrWrongStep
	}
	if !ok {
		return w.view(), ErrUnknownField
	}
	if validate.Required(value) {
		delete(w.errs, key)
	} else {
		w.errs[key] = validate.RequiredMessage(key)
	}
	return w.view(), nil
}

// Next validates the current step and advances when it is complete. It
// reports whether the step moved. A blocked transition is not an error.
func (w *Checkout) Next() (CheckoutView, bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	var fields []domain.Field
	switch w.step {
	case domain.StepShipping:
		fields = w.shipping.Fields()
	case domain.StepPayment:
		fields = w.payment.Fields()
	default:
		return w.view(), false, ErrWrongStep
	}
	w.errs = validate.Fields(fields)
	if len(w.errs) > 0 {
		return w.view(), false, nil
	}
	if w.step == domain.StepShipping {
		if err := repos.Save(w.store, KeyShippingDetails, w.shipping); err != nil {
			return w.view(), false, err
		}
	}
	w.step++
	w.message = ""
	return w.view(), true, nil
}

// Back moves one step towards shipping without validation.
func (w *Checkout) Back() (CheckoutView, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.processing {
		return w.view(), ErrPlacementInProgress
	}
	switch w.step {
	case domain.StepPayment, domain.StepReview:
		w.step--
		w.errs = map[string]string{}
		w.message = ""
		return w.view(), nil
	}
	return w.view(), ErrWrongStep
}

// EditShipping jumps from review straight back to the shipping step.
func (w *Checkout) EditShipping() (CheckoutView, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.processing {
		return w.view(), ErrPlacementInProgress
	}
	if w.step != domain.StepReview {
		return w.view(), ErrWrongStep
	}
	w.step = domain.StepShipping
	w.errs = map[string]string{}
	w.message = ""
	return w.view(), nil
}

// placement is what an order attempt captures before awaiting payment.
type placement struct {
	generation uint64
	shipping   domain.ShippingDetails
}

func (w *Checkout) beginPlacement() (placement, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != domain.StepReview {
		return placement{}, ErrWrongStep
	}
	errs := validate.Fields(append(w.shipping.Fields(), w.payment.Fields()...))
	if len(errs) > 0 {
		return placement{}, ErrInvalidDetails
	}
	w.processing = true
	w.message = ""
	return placement{generation: w.generation, shipping: w.shipping}, nil
}

// endPlacement clears the processing flag for a failed attempt. A declined
// payment also sets the retry message. Stale generations are ignored.
func (w *Checkout) endPlacement(pl placement, declined bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if pl.generation != w.generation {
		return
	}
	w.processing = false
	if declined {
		w.message = MsgPaymentFailed
	}
}

// commitIf runs write and moves to StepComplete, provided the attempt still
// belongs to the current generation and step.
func (w *Checkout) commitIf(pl placement, orderNumber int64, write func() error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if pl.generation != w.generation || w.step != domain.StepReview {
		return ErrCheckoutAbandoned
	}
	if err := write(); err != nil {
		return err
	}
	w.step = domain.StepComplete
	w.processing = false
	w.payment = domain.PaymentDetails{}
	w.errs = map[string]string{}
	w.message = MsgPaymentSuccess
	w.orderNumber = orderNumber
	return nil
}

func (w *Checkout) stale(pl placement) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return pl.generation != w.generation
}
