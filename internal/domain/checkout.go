package domain

// CheckoutStep is the position of a session in the checkout wizard.
type CheckoutStep int

const (
	StepEmpty CheckoutStep = iota
	StepShipping
	StepPayment
	StepReview
	StepComplete
)

func (s CheckoutStep) String() string {
	switch s {
	case StepEmpty:
		return "empty"
	case StepShipping:
		return "shipping"
	case StepPayment:
		return "payment"
	case StepReview:
		return "review"
	case StepComplete:
		return "complete"
	}
	return "unknown"
}

// Keys returns the form fields edited on this step.
func (s CheckoutStep) Keys() []string {
	switch s {
	case StepShipping:
		return ShippingKeys
	case StepPayment:
		return PaymentKeys
	}
	return nil
}
