package rpc

import (
	"encoding/hex"
	"strconv"
	"strings"

	"optimex/core"
	"optimex/crypto"
	"optimex/native/common"
	"optimex/native/params"
	"optimex/native/payment"
	"optimex/native/settlement"
)

// Amounts travel as decimal strings so JavaScript clients keep precision.

type tradeJSON struct {
	ID           string  `json:"id"`
	User         string  `json:"user"`
	Token        *string `json:"token,omitempty"`
	Amount       string  `json:"amount"`
	Timeout      int64   `json:"timeout"`
	MPC          string  `json:"mpc"`
	Ephemeral    string  `json:"ephemeral"`
	Refund       string  `json:"refund"`
	TotalFee     *string `json:"totalFee,omitempty"`
	Status       string  `json:"status"`
	SettledPMM   *string `json:"settledPmm,omitempty"`
	Vault        string  `json:"vault,omitempty"`
	VaultBalance string  `json:"vaultBalance,omitempty"`
}

type receiptJSON struct {
	Address       string  `json:"address,omitempty"`
	TradeID       string  `json:"tradeId"`
	From          string  `json:"from"`
	To            string  `json:"to"`
	Token         *string `json:"token,omitempty"`
	PaymentAmount string  `json:"paymentAmount"`
	TotalFee      string  `json:"totalFee"`
	PaymentTime   int64   `json:"paymentTime"`
}

type configJSON struct {
	Variant              string   `json:"variant"`
	PaymentsEnabled      bool     `json:"paymentsEnabled"`
	Admin                string   `json:"admin"`
	Operators            []string `json:"operators"`
	CloseTradeDuration   uint64   `json:"closeTradeDuration"`
	ClosePaymentDuration uint64   `json:"closePaymentDuration"`
	FeeReceivers         []string `json:"feeReceivers"`
	Pool                 string   `json:"pool"`
}

type whitelistJSON struct {
	Token     string `json:"token"`
	MinAmount string `json:"minAmount"`
}

type tokenAccountsJSON struct {
	Mint        string `json:"mint"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Protocol    string `json:"protocol,omitempty"`
}

type tradeInputJSON struct {
	SessionID string    `json:"sessionId"`
	Solver    string    `json:"solver"`
	AmountIn  string    `json:"amountIn"`
	FromChain [3]string `json:"fromChain"`
	ToChain   [3]string `json:"toChain"`
}

func hexBytes(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

func decodeHex(s string) ([]byte, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	return hex.DecodeString(trimmed)
}

func decodeFixed(s string, out []byte, field string) error {
	raw, err := decodeHex(s)
	if err != nil {
		return invalidParams("%s: %v", field, err)
	}
	if len(raw) != len(out) {
		return invalidParams("%s: expected %d bytes, got %d", field, len(out), len(raw))
	}
	copy(out, raw)
	return nil
}

func parseTradeID(s string) ([32]byte, error) {
	var id [32]byte
	err := decodeFixed(s, id[:], "tradeId")
	return id, err
}

func parseKey(s, field string) (crypto.PublicKey, error) {
	key, err := crypto.ParsePublicKey(s)
	if err != nil {
		return crypto.PublicKey{}, invalidParams("%s: %v", field, err)
	}
	return key, nil
}

// parseOptionalKey returns nil for an empty string or "native".
func parseOptionalKey(s, field string) (*crypto.PublicKey, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || strings.EqualFold(trimmed, "native") {
		return nil, nil
	}
	key, err := parseKey(trimmed, field)
	if err != nil {
		return nil, err
	}
	return &key, nil
}

func parseAmount(s, field string) (uint64, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, invalidParams("%s: %v", field, err)
	}
	return v, nil
}

func (t *tokenAccountsJSON) parse() (*common.TokenAccounts, error) {
	if t == nil {
		return nil, nil
	}
	mint, err := parseKey(t.Mint, "tokens.mint")
	if err != nil {
		return nil, err
	}
	source, err := parseKey(t.Source, "tokens.source")
	if err != nil {
		return nil, err
	}
	dest, err := parseKey(t.Destination, "tokens.destination")
	if err != nil {
		return nil, err
	}
	accts := &common.TokenAccounts{Mint: mint, Source: source, Destination: dest}
	if t.Protocol != "" {
		if accts.Protocol, err = parseKey(t.Protocol, "tokens.protocol"); err != nil {
			return nil, err
		}
	}
	return accts, nil
}

func (in tradeInputJSON) parse() (settlement.TradeInput, error) {
	var out settlement.TradeInput
	if err := decodeFixed(in.SessionID, out.SessionID[:], "sessionId"); err != nil {
		return out, err
	}
	if err := decodeFixed(in.Solver, out.Solver[:], "solver"); err != nil {
		return out, err
	}
	if err := decodeFixed(in.AmountIn, out.TradeInfo.AmountIn[:], "amountIn"); err != nil {
		return out, err
	}
	for i := range in.FromChain {
		out.TradeInfo.FromChain[i] = []byte(in.FromChain[i])
		out.TradeInfo.ToChain[i] = []byte(in.ToChain[i])
	}
	return out, nil
}

func optionalKeyString(k *crypto.PublicKey) *string {
	if k == nil {
		return nil
	}
	s := k.String()
	return &s
}

func formatTokenAccounts(a *common.TokenAccounts) tokenAccountsJSON {
	out := tokenAccountsJSON{
		Mint:        a.Mint.String(),
		Source:      a.Source.String(),
		Destination: a.Destination.String(),
	}
	if !a.Protocol.IsZero() {
		out.Protocol = a.Protocol.String()
	}
	return out
}

func formatAmount(v uint64) string { return strconv.FormatUint(v, 10) }

func formatTrade(t *settlement.Trade) tradeJSON {
	out := tradeJSON{
		ID:        hexBytes(t.ID[:]),
		User:      t.User.String(),
		Token:     optionalKeyString(t.Token),
		Amount:    formatAmount(t.Amount),
		Timeout:   t.Timeout,
		MPC:       t.MPC.String(),
		Ephemeral: t.Ephemeral.String(),
		Refund:    t.Refund.String(),
		Status:    t.Status.String(),
	}
	if t.TotalFee != nil {
		fee := formatAmount(*t.TotalFee)
		out.TotalFee = &fee
	}
	if !t.SettledPMM.IsZero() {
		pmm := t.SettledPMM.String()
		out.SettledPMM = &pmm
	}
	return out
}

func formatTradeView(v *core.TradeView) tradeJSON {
	out := formatTrade(v.Trade)
	out.Vault = v.Vault.String()
	out.VaultBalance = formatAmount(v.VaultBalance)
	return out
}

func formatReceipt(r *payment.Receipt, addr crypto.PublicKey) receiptJSON {
	return receiptJSON{
		Address:       addr.String(),
		TradeID:       hexBytes(r.TradeID[:]),
		From:          r.From.String(),
		To:            r.To.String(),
		Token:         optionalKeyString(r.Token),
		PaymentAmount: formatAmount(r.PaymentAmount),
		TotalFee:      formatAmount(r.TotalFee),
		PaymentTime:   r.PaymentTime,
	}
}

func formatKeys(keys []crypto.PublicKey) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k.String())
	}
	return out
}

func formatConfig(p *core.ProtocolState) configJSON {
	return configJSON{
		Variant:              p.Policy.Name,
		PaymentsEnabled:      p.Policy.FeatureEnabled(params.FeaturePayments),
		Admin:                p.Config.Admin.String(),
		Operators:            formatKeys(p.Config.Operators),
		CloseTradeDuration:   p.Config.CloseTradeDuration,
		ClosePaymentDuration: p.Config.ClosePaymentDuration,
		FeeReceivers:         formatKeys(p.FeeReceivers),
		Pool:                 p.Pool.String(),
	}
}

func formatWhitelist(e *params.WhitelistEntry) whitelistJSON {
	return whitelistJSON{Token: e.Token.String(), MinAmount: formatAmount(e.MinAmount)}
}
