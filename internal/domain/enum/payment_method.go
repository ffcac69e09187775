package enum

// PaymentMethod is how a sale was tendered.
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodQRIS     PaymentMethod = "qris"
	PaymentMethodTransfer PaymentMethod = "transfer"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodQRIS, PaymentMethodTransfer:
		return true
	}
	return false
}

// IsDigital reports whether settlement is confirmed by the payment gateway.
func (m PaymentMethod) IsDigital() bool {
	return m == PaymentMethodQRIS || m == PaymentMethodTransfer
}

// Bank identifies a virtual account issuer for bank transfers.
type Bank string

const (
	BankBCA     Bank = "bca"
	BankBNI     Bank = "bni"
	BankBRI     Bank = "bri"
	BankPermata Bank = "permata"
)

func (b Bank) IsValid() bool {
	switch b {
	case BankBCA, BankBNI, BankBRI, BankPermata:
		return true
	}
	return false
}
