package domain

import "time"

// Aggregate types
const (
	AggregateTypeAccount     = "account"
	AggregateTypeTransaction = "transaction"
	AggregateTypeTransfer    = "transfer"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	UserID        string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// EventFromChangeset derives the outbox event announcing a persisted change.
func EventFromChangeset(cs *Changeset) *OutboxEvent {
	event := &OutboxEvent{
		ID:        cs.ID,
		UserID:    cs.UserID,
		EventType: string(cs.Kind),
		CreatedAt: cs.At,
		Payload: map[string]any{
			"user_id": cs.UserID,
		},
	}

	switch {
	case cs.CreatedAccount != nil:
		event.AggregateType = AggregateTypeAccount
		event.AggregateID = cs.CreatedAccount.ID
		event.Payload["name"] = cs.CreatedAccount.Name
		event.Payload["type"] = string(cs.CreatedAccount.Type)
		event.Payload["opening_balance"] = cs.CreatedAccount.OpeningBalance.String()
	case cs.StatusChange != nil:
		event.AggregateType = AggregateTypeAccount
		event.AggregateID = cs.StatusChange.AccountID
		event.Payload["active"] = cs.StatusChange.Active
	case cs.Kind == ChangeTransferCompleted && len(cs.Added) > 0:
		event.AggregateType = AggregateTypeTransfer
		event.AggregateID = cs.Added[0].TransferID
		event.Payload["transactions"] = transactionIDs(cs.Added)
	case len(cs.Added) > 0:
		event.AggregateType = AggregateTypeTransaction
		event.AggregateID = cs.Added[0].ID
		event.Payload["transactions"] = transactionIDs(cs.Added)
		event.Payload["removed"] = cs.Removed
	case len(cs.Removed) > 0:
		event.AggregateType = AggregateTypeTransaction
		event.AggregateID = cs.Removed[0]
		event.Payload["removed"] = cs.Removed
	}

	if len(cs.Balances) > 0 {
		balances := make(map[string]string, len(cs.Balances))
		for _, b := range cs.Balances {
			balances[b.AccountID] = b.Balance.String()
		}
		event.Payload["balances"] = balances
	}

	return event
}

func transactionIDs(txns []Transaction) []string {
	ids := make([]string, len(txns))
	for i := range txns {
		ids[i] = txns[i].ID
	}
	return ids
}
