package registry

import "errors"

var (
	// ErrTickerTooLong indicates the ticker symbol exceeds MaxTickerLen.
	ErrTickerTooLong = errors.New("registry: ticker symbol too long")

	// ErrURLTooLong indicates the target URL exceeds MaxTargetURLLen.
	ErrURLTooLong = errors.New("registry: target URL too long")

	// ErrDescriptionTooLong indicates the description exceeds MaxDescriptionLen.
	ErrDescriptionTooLong = errors.New("registry: description too long")

	// ErrContractAddressTooLong indicates the contract address exceeds MaxContractAddressLen.
	ErrContractAddressTooLong = errors.New("registry: contract address too long")

	// ErrNotAuthorized indicates the signer does not own the registration.
	ErrNotAuthorized = errors.New("registry: not authorized")

	// ErrNotForSale indicates a buy attempt on a registration that is not listed.
	ErrNotForSale = errors.New("registry: ticker is not for sale")

	// ErrInvalidRecordData indicates stored record data is malformed.
	ErrInvalidRecordData = errors.New("registry: invalid record data")

	// ErrInvalidTargetURL indicates the target URL has no resolvable host.
	ErrInvalidTargetURL = errors.New("registry: invalid target URL")

	// ErrDNSLookupFailed indicates the domain verification lookup failed.
	ErrDNSLookupFailed = errors.New("registry: DNS lookup failed")

	// ErrDomainNotVerified indicates no TXT record claims the ticker symbol.
	ErrDomainNotVerified = errors.New("registry: domain does not claim ticker")

	// ErrDNSSECValidationFailed indicates the resolver response was not authenticated.
	ErrDNSSECValidationFailed = errors.New("registry: DNSSEC validation failed")
)
