package audit

import "context"

type Repository interface {
	Insert(ctx context.Context, e *Entry) error
	ListByRecipient(ctx context.Context, recipient string, limit, offset int) ([]*Entry, int, error)
}
