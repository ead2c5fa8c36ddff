package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// mongoTransaction wraps a MongoDB session and implements the core.Transaction interface.
//
// Commit and Rollback both end the session.
type mongoTransaction struct {
	session mongo.Session
}

// Commit finalizes the transaction and ends the session.
func (transaction *mongoTransaction) Commit(ctx context.Context) error {
	defer transaction.session.EndSession(ctx)
	return transaction.session.CommitTransaction(ctx)
}

// Rollback aborts the transaction and ends the session.
func (transaction *mongoTransaction) Rollback(ctx context.Context) error {
	defer transaction.session.EndSession(ctx)
	return transaction.session.AbortTransaction(ctx)
}
