package booking

type Status string

const (
	StatusPendingPayment Status = "pending_payment"
	StatusConfirmed      Status = "confirmed"
	StatusCancelled      Status = "cancelled"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPendingPayment, StatusConfirmed, StatusCancelled:
		return true
	default:
		return false
	}
}

type PaymentMethod string

const (
	PaymentCard     PaymentMethod = "card"
	PaymentPayLater PaymentMethod = "pay_later"
)

func (m PaymentMethod) IsValid() bool {
	return m == PaymentCard || m == PaymentPayLater
}

// ConfirmationSource records which path moved a booking to confirmed.
type ConfirmationSource string

const (
	ConfirmedByPayment  ConfirmationSource = "payment"
	ConfirmedByPayLater ConfirmationSource = "pay_later"
)
