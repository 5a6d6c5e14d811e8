package models

const (
	PaymentMethodCreditCard = "Credit Card"
	PaymentMethodBlipay     = "Blipay"
	PaymentMethodVoucher    = "Voucher"
	PaymentMethodOthers     = "Others"
)

// PaymentTypeMethods maps stored PaymentType values to their report label.
// Matching is exact and case-sensitive; the stored casing is inconsistent.
var PaymentTypeMethods = []struct {
	Type   string
	Method string
}{
	{"Credit Card", PaymentMethodCreditCard},
	{"blipay", PaymentMethodBlipay},
	{"voucher", PaymentMethodVoucher},
}

// NormalizePaymentMethod buckets a PaymentType. Unknown and null types
// become Others.
func NormalizePaymentMethod(paymentType *string) string {
	if paymentType == nil {
		return PaymentMethodOthers
	}
	for _, m := range PaymentTypeMethods {
		if m.Type == *paymentType {
			return m.Method
		}
	}
	return PaymentMethodOthers
}
