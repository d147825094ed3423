package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind enumerates the failures the settlement protocol can report. The
// ordinal is part of the wire contract: Code() exposes it to clients.
type Kind uint16

const (
	KindInvalidTradeID Kind = iota
	KindInvalidTimeout
	KindUnauthorized
	KindInvalidPublicKey
	KindDepositZeroAmount
	KindInvalidAmount
	KindInvalidMintKey
	KindInvalidSourceAta
	KindInvalidDestinationAta
	KindTimeOut
	KindInvalidRefundPubkey
	KindClaimNotAvailable
	KindDeadlineExceeded
	KindInvalidUserAccount
	KindNonceAccountBeingUsed
	KindOperatorAlreadyExists
	KindOperatorNotFound
	KindOperatorLimitReached
	KindNotWhitelistedToken
	KindInvalidTradeStatus
	KindCloseNotAvailable
	KindInvalidTokenAccount
	KindInvalidTotalFee
	KindInvalidFeeReceiver
	KindTradeNotFound
	KindTradeAlreadyExists
	KindReceiptNotFound
	KindReceiptAlreadyExists
	KindFeeReceiverAlreadyExists
	KindFeeReceiverLimitReached
	KindConfigNotInitialized
	KindFeatureDisabled

	kindCount
)

// CodeBase offsets Kind ordinals into the numeric code space clients see.
const CodeBase = 6000

// Category groups kinds for callers that only care about the broad class.
type Category uint8

const (
	CategoryAuthorization Category = iota + 1
	CategoryState
	CategoryTiming
	CategoryValidation
	CategoryAsset
)

func (c Category) String() string {
	switch c {
	case CategoryAuthorization:
		return "authorization"
	case CategoryState:
		return "state"
	case CategoryTiming:
		return "timing"
	case CategoryValidation:
		return "validation"
	case CategoryAsset:
		return "asset"
	default:
		return "unknown"
	}
}

type kindInfo struct {
	name     string
	message  string
	category Category
}

var kindTable = [kindCount]kindInfo{
	KindInvalidTradeID:           {"InvalidTradeId", "trade id does not match trade input", CategoryValidation},
	KindInvalidTimeout:           {"InvalidTimeout", "deposit timeout already passed", CategoryTiming},
	KindUnauthorized:             {"Unauthorized", "signer not authorized", CategoryAuthorization},
	KindInvalidPublicKey:         {"InvalidPublicKey", "malformed public key", CategoryValidation},
	KindDepositZeroAmount:        {"DepositZeroAmount", "deposit amount is zero", CategoryValidation},
	KindInvalidAmount:            {"InvalidAmount", "invalid amount", CategoryValidation},
	KindInvalidMintKey:           {"InvalidMintKey", "mint does not match trade token", CategoryAsset},
	KindInvalidSourceAta:         {"InvalidSourceAta", "unexpected source token account", CategoryAsset},
	KindInvalidDestinationAta:    {"InvalidDestinationAta", "unexpected destination token account", CategoryAsset},
	KindTimeOut:                  {"TimeOut", "trade timeout passed", CategoryTiming},
	KindInvalidRefundPubkey:      {"InvalidRefundPubkey", "refund key mismatch", CategoryAuthorization},
	KindCloseNotAvailable:        {"CloseNotAvailable", "close window not reached", CategoryTiming},
	KindClaimNotAvailable:        {"ClaimNotAvailable", "claim window not reached", CategoryTiming},
	KindInvalidTradeStatus:       {"InvalidTradeStatus", "trade status does not allow operation", CategoryState},
	KindInvalidTotalFee:          {"InvalidTotalFee", "total fee exceeds trade amount", CategoryValidation},
	KindInvalidUserAccount:       {"InvalidUserAccount", "user account mismatch", CategoryAuthorization},
	KindNonceAccountBeingUsed:    {"NonceAccountBeingUsed", "ephemeral key already bound to a live trade", CategoryState},
	KindNotWhitelistedToken:      {"NotWhitelistedToken", "asset is not whitelisted", CategoryAsset},
	KindDeadlineExceeded:         {"DeadlineExceeded", "payment deadline passed", CategoryTiming},
	KindInvalidTokenAccount:      {"InvalidTokenAccount", "token account mismatch", CategoryAsset},
	KindOperatorAlreadyExists:    {"OperatorAlreadyExists", "operator already registered", CategoryState},
	KindOperatorLimitReached:     {"OperatorLimitReached", "operator limit reached", CategoryState},
	KindOperatorNotFound:         {"OperatorNotFound", "operator not registered", CategoryState},
	KindInvalidFeeReceiver:       {"InvalidFeeReceiver", "fee receiver not registered", CategoryAuthorization},
	KindTradeNotFound:            {"TradeNotFound", "trade not found", CategoryState},
	KindTradeAlreadyExists:       {"TradeAlreadyExists", "trade already exists", CategoryState},
	KindReceiptNotFound:          {"ReceiptNotFound", "payment receipt not found", CategoryState},
	KindReceiptAlreadyExists:     {"ReceiptAlreadyExists", "payment receipt already exists", CategoryState},
	KindFeeReceiverAlreadyExists: {"FeeReceiverAlreadyExists", "fee receiver already registered", CategoryState},
	KindFeeReceiverLimitReached:  {"FeeReceiverLimitReached", "fee receiver limit reached", CategoryState},
	KindConfigNotInitialized:     {"ConfigNotInitialized", "protocol config not initialized", CategoryState},
	KindFeatureDisabled:          {"FeatureDisabled", "operation not available in this protocol variant", CategoryState},
}

func (k Kind) valid() bool { return k < kindCount }

// String returns the stable kind name, e.g. "InvalidTradeId".
func (k Kind) String() string {
	if !k.valid() {
		return fmt.Sprintf("Kind(%d)", uint16(k))
	}
	return kindTable[k].name
}

// Code returns the numeric error code exposed to clients.
func (k Kind) Code() int { return CodeBase + int(k) }

func (k Kind) Category() Category {
	if !k.valid() {
		return 0
	}
	return kindTable[k].category
}

// Error is a settlement failure of a given kind. Values compare by kind, so
// errors.Is(err, ErrTimeOut) holds for any *Error of kind KindTimeOut.
type Error struct {
	Kind Kind
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if !e.Kind.valid() {
		return "settlement: " + e.Kind.String()
	}
	return "settlement: " + kindTable[e.Kind].message
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t == nil || e == nil {
		return false
	}
	return t.Kind == e.Kind
}

func newKind(k Kind) *Error { return &Error{Kind: k} }

var (
	ErrInvalidTradeID           = newKind(KindInvalidTradeID)
	ErrInvalidTimeout           = newKind(KindInvalidTimeout)
	ErrUnauthorized             = newKind(KindUnauthorized)
	ErrInvalidPublicKey         = newKind(KindInvalidPublicKey)
	ErrDepositZeroAmount        = newKind(KindDepositZeroAmount)
	ErrInvalidAmount            = newKind(KindInvalidAmount)
	ErrInvalidMintKey           = newKind(KindInvalidMintKey)
	ErrInvalidSourceAta         = newKind(KindInvalidSourceAta)
	ErrInvalidDestinationAta    = newKind(KindInvalidDestinationAta)
	ErrTimeOut                  = newKind(KindTimeOut)
	ErrInvalidRefundPubkey      = newKind(KindInvalidRefundPubkey)
	ErrCloseNotAvailable        = newKind(KindCloseNotAvailable)
	ErrClaimNotAvailable        = newKind(KindClaimNotAvailable)
	ErrInvalidTradeStatus       = newKind(KindInvalidTradeStatus)
	ErrInvalidTotalFee          = newKind(KindInvalidTotalFee)
	ErrInvalidUserAccount       = newKind(KindInvalidUserAccount)
	ErrNonceAccountBeingUsed    = newKind(KindNonceAccountBeingUsed)
	ErrNotWhitelistedToken      = newKind(KindNotWhitelistedToken)
	ErrDeadlineExceeded         = newKind(KindDeadlineExceeded)
	ErrInvalidTokenAccount      = newKind(KindInvalidTokenAccount)
	ErrOperatorAlreadyExists    = newKind(KindOperatorAlreadyExists)
	ErrOperatorLimitReached     = newKind(KindOperatorLimitReached)
	ErrOperatorNotFound         = newKind(KindOperatorNotFound)
	ErrInvalidFeeReceiver       = newKind(KindInvalidFeeReceiver)
	ErrTradeNotFound            = newKind(KindTradeNotFound)
	ErrTradeAlreadyExists       = newKind(KindTradeAlreadyExists)
	ErrReceiptNotFound          = newKind(KindReceiptNotFound)
	ErrReceiptAlreadyExists     = newKind(KindReceiptAlreadyExists)
	ErrFeeReceiverAlreadyExists = newKind(KindFeeReceiverAlreadyExists)
	ErrFeeReceiverLimitReached  = newKind(KindFeeReceiverLimitReached)
	ErrConfigNotInitialized     = newKind(KindConfigNotInitialized)
	ErrFeatureDisabled          = newKind(KindFeatureDisabled)
)

// KindOf extracts the settlement kind from err, unwrapping as needed.
func KindOf(err error) (Kind, bool) {
	var target *Error
	if !stderrors.As(err, &target) || target == nil {
		return 0, false
	}
	return target.Kind, true
}
