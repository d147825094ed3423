package fees

import (
	stderrors "optimex/core/errors"
)

// Split divides a gross amount into the part delivered to the counterparty
// and the part retained by the protocol. Gross == Net + Fee always holds.
type Split struct {
	Gross uint64
	Fee   uint64
	Net   uint64
}

// Settlement splits an escrowed trade amount. An unset fee means zero. The
// fee may consume the whole amount.
func Settlement(amount uint64, totalFee *uint64) (Split, error) {
	var fee uint64
	if totalFee != nil {
		fee = *totalFee
	}
	if fee > amount {
		return Split{}, stderrors.ErrInvalidTotalFee
	}
	return Split{Gross: amount, Fee: fee, Net: amount - fee}, nil
}

// Payment splits a direct payment. The recipient must receive something, so
// the fee has to be strictly below the amount.
func Payment(amount, totalFee uint64) (Split, error) {
	if amount <= totalFee {
		return Split{}, stderrors.ErrInvalidAmount
	}
	return Split{Gross: amount, Fee: totalFee, Net: amount - totalFee}, nil
}
