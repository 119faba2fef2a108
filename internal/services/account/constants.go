package account

// Operation names used for metrics and logs.
const (
	OpDeposit      = "deposit"
	OpWithdraw     = "withdraw"
	OpTransferTo   = "transfer_to"
	OpTransferFrom = "transfer_from"
	OpDelete       = "delete_account"
)

const (
	msgDeposit     = "Successful deposit of %s %s for account %d. New balance is: %s %s"
	msgWithdraw    = "Successfully withdrawn %s %s for account %d. New balance is: %s %s"
	msgTransfer    = "Transfer between accounts %d and %d successful"
	msgSameAccount = "Transfer cannot be performed within the same account"
	withdrawScale  = 2
)
