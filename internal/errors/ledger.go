package errors

var (
	ErrNotFound = &DomainError{
		Code:    "NOT_FOUND",
		Message: "resource not found",
	}
	ErrAlreadyExists = &DomainError{
		Code:    "ALREADY_EXISTS",
		Message: "resource already exists",
	}
	ErrInvalidOperation = &DomainError{
		Code:    "INVALID_OPERATION",
		Message: "invalid operation",
	}
	ErrInsufficientFunds = &DomainError{
		Code:    "INSUFFICIENT_FUNDS",
		Message: "The account does not have sufficient funds for this operation",
	}
	ErrInvalidAmount = &DomainError{
		Code:    "INVALID_AMOUNT",
		Message: "amount must be greater than zero",
	}
	ErrRateUnavailable = &DomainError{
		Code:    "RATE_UNAVAILABLE",
		Message: "exchange rate could not be retrieved",
	}
	ErrConflict = &DomainError{
		Code:    "CONCURRENT_MODIFICATION",
		Message: "the record was modified concurrently, retry the operation",
	}
)
