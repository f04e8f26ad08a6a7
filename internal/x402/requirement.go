package x402

// MaxAmountRequired returns the cap demanded by a requirement.
// Precedence: maxAmountRequired, max_amount_required, maxAmount, max_amount.
func MaxAmountRequired(req *PaymentRequirement) (string, bool) {
	if req == nil || req.Extra == nil {
		return "", false
	}
	for _, v := range []*string{
		req.Extra.MaxAmountRequired,
		req.Extra.MaxAmountRequiredSnake,
		req.Extra.MaxAmount,
		req.Extra.MaxAmountSnake,
	} {
		if v != nil {
			return *v, true
		}
	}
	return "", false
}

// payToOf returns payTo, falling back to pay_to.
func payToOf(req *PaymentRequirement) *string {
	if req.PayTo != nil {
		return req.PayTo
	}
	return req.PayToSnake
}

// OverlayRequirement returns a copy of cfg with every field the requirement
// supplies replaced. The facilitator signer follows the resolved payee unless
// that payee is empty.
func OverlayRequirement(cfg RouterConfig, req *PaymentRequirement) RouterConfig {
	if req == nil {
		return cfg
	}

	out := cfg
	if req.Network != nil {
		out.Network = *req.Network
	}
	if req.Asset != nil {
		out.Asset = *req.Asset
	}
	if payTo := payToOf(req); payTo != nil {
		out.PayTo = *payTo
	}
	if req.Extra != nil {
		if req.Extra.Name != nil {
			out.TokenName = *req.Extra.Name
		}
		if req.Extra.Version != nil {
			out.TokenVersion = *req.Extra.Version
		}
	}

	out.FacilitatorSigner = out.PayTo
	if out.FacilitatorSigner == "" {
		out.FacilitatorSigner = cfg.FacilitatorSigner
	}
	return out
}
