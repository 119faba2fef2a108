/*
Package account provides the ledger operations on single-currency accounts.

The account service handles every money movement:
- Deposits and withdrawals
- Transfers in the sender's currency (TransferTo)
- Transfers in the receiver's currency (TransferFrom)
- Cache management for account lookups

Usage:

	// Create a new account service
	svc := account.NewService(store, rates, accountCache, auditor, metrics, logger)

	// Credit amount
	receipt, err := svc.Deposit(ctx, accountID, amount)

	// Move 20 units of the sender's currency
	receipt, err = svc.TransferTo(ctx, senderID, receiverID, decimal.NewFromInt(20))

Concurrency:

Balance writes are compare-and-swap on the account version. A write that
loses the race fails with errors.ErrConflict and changes nothing; callers
may retry. Both legs of a transfer and the audit record commit in one store
transaction, and the two accounts are always written in ascending id order.

Metrics:

Operation durations, outcomes by error code, cache hits and completed
transactions are reported through MetricsCollector.
*/
package account
