package service

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cashflow/payment-lifecycle/internal/core"
	"github.com/cashflow/payment-lifecycle/internal/port/input"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// validateCreateRequest checks every field of req and returns it normalised
func validateCreateRequest(req input.CreatePaymentRequest) (input.CreatePaymentRequest, error) {
	req.MerchantID = strings.TrimSpace(req.MerchantID)
	if req.MerchantID == "" {
		return req, core.NewValidationError("merchantId", "merchant ID is required")
	}

	if req.Amount.Cmp(core.MinAmount) < 0 {
		return req, core.NewValidationError("amount", "amount must be at least "+core.MinAmount.StringFixed(core.AmountScale))
	}
	if req.Amount.Cmp(core.MaxAmount) > 0 {
		return req, core.NewValidationError("amount", "amount exceeds maximum limit of "+core.MaxAmount.StringFixed(core.AmountScale))
	}
	if !req.Amount.Equal(req.Amount.Round(core.AmountScale)) {
		return req, core.NewValidationError("amount", "amount must have at most two decimal places")
	}

	req.Currency = core.Currency(strings.ToUpper(strings.TrimSpace(string(req.Currency))))
	if !req.Currency.Valid() {
		return req, core.NewValidationError("currency", "currency must be USD, EUR, GBP, or INR")
	}

	req.PaymentMethod = core.PaymentMethod(strings.ToUpper(strings.TrimSpace(string(req.PaymentMethod))))
	if !req.PaymentMethod.Valid() {
		return req, core.NewValidationError("paymentMethod", "payment method must be CARD, UPI, WALLET, or NET_BANKING")
	}

	email, err := validateEmail(req.CustomerEmail)
	if err != nil {
		return req, err
	}
	req.CustomerEmail = email

	if utf8.RuneCountInString(req.Description) > core.MaxDescriptionLength {
		return req, core.NewValidationError("description",
			fmt.Sprintf("description must be at most %d characters", core.MaxDescriptionLength))
	}

	return req, nil
}

func validateEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return email, core.NewValidationError("customerEmail", "customer email is required")
	}
	if err := validate.Var(email, "email"); err != nil {
		return email, core.NewValidationError("customerEmail", "invalid email format")
	}
	return email, nil
}
