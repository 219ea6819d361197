// Package storage declares the unit-of-work boundary shared by the use cases.
package storage

import "context"

// Transactor runs fn as one atomic unit. Calls made with the ctx passed to fn
// join the same unit; nested WithinTx calls do not open a new one.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
