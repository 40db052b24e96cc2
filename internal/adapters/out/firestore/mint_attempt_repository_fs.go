// internal/adapters/out/firestore/mint_attempt_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	mintdom "candymint/internal/domain/mint"
)

const (
	mintAttemptsCollection = "mint_attempts"
	defaultListLimit       = 20
	maxListLimit           = 200
)

// MintAttemptRepositoryFS implements mint.AttemptRepository using Firestore.
type MintAttemptRepositoryFS struct {
	Client *firestore.Client
}

var _ mintdom.AttemptRepository = (*MintAttemptRepositoryFS)(nil)

func NewMintAttemptRepositoryFS(client *firestore.Client) *MintAttemptRepositoryFS {
	return &MintAttemptRepositoryFS{Client: client}
}

func (r *MintAttemptRepositoryFS) col() *firestore.CollectionRef {
	return r.Client.Collection(mintAttemptsCollection)
}

// Save は試行を ID をキーに保存します（上書き）。
func (r *MintAttemptRepositoryFS) Save(ctx context.Context, a mintdom.MintAttempt) error {
	if r.Client == nil {
		return errors.New("firestore client is nil")
	}
	if err := a.Validate(); err != nil {
		return err
	}
	if a.Status == mintdom.AttemptIdle {
		return fmt.Errorf("%w: idle attempt cannot be saved", mintdom.ErrInvalidStatus)
	}

	if _, err := r.col().Doc(a.ID).Set(ctx, attemptToDoc(a)); err != nil {
		return fmt.Errorf("firestore: save mint attempt %s: %w", a.ID, err)
	}
	return nil
}

func (r *MintAttemptRepositoryFS) GetByID(ctx context.Context, id string) (mintdom.MintAttempt, error) {
	if r.Client == nil {
		return mintdom.MintAttempt{}, errors.New("firestore client is nil")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return mintdom.MintAttempt{}, mintdom.ErrNotFound
	}

	snap, err := r.col().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return mintdom.MintAttempt{}, mintdom.ErrNotFound
		}
		return mintdom.MintAttempt{}, err
	}
	return attemptFromDoc(snap.Ref.ID, snap.Data())
}

// ListByWallet は walletAddress の試行を submittedAt の新しい順に返します。
func (r *MintAttemptRepositoryFS) ListByWallet(ctx context.Context, walletAddress string, limit int) ([]mintdom.MintAttempt, error) {
	if r.Client == nil {
		return nil, errors.New("firestore client is nil")
	}
	w := strings.TrimSpace(walletAddress)
	if w == "" {
		return []mintdom.MintAttempt{}, nil
	}
	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}

	it := r.col().
		Where("walletAddress", "==", w).
		OrderBy("submittedAt", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer it.Stop()

	out := make([]mintdom.MintAttempt, 0, limit)
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		a, err := attemptFromDoc(doc.Ref.ID, doc.Data())
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// ========================================
// mapping
// ========================================

func attemptToDoc(a mintdom.MintAttempt) map[string]interface{} {
	data := map[string]interface{}{
		"id":            a.ID,
		"walletAddress": a.WalletAddress,
		"saleId":        a.SaleID,
		"submittedAt":   a.SubmittedAt.UTC(),
		"status":        string(a.Status),
	}
	if a.TransactionID != "" {
		data["transactionId"] = a.TransactionID
	}
	if a.SettledAt != nil && !a.SettledAt.IsZero() {
		data["settledAt"] = a.SettledAt.UTC()
	}
	if a.Outcome != mintdom.ErrorKindNone {
		data["outcome"] = string(a.Outcome)
	}
	return data
}

func attemptFromDoc(docID string, data map[string]interface{}) (mintdom.MintAttempt, error) {
	getStr := func(key string) string {
		if v, ok := data[key].(string); ok {
			return strings.TrimSpace(v)
		}
		return ""
	}
	getTime := func(key string) (time.Time, bool) {
		if v, ok := data[key].(time.Time); ok && !v.IsZero() {
			return v.UTC(), true
		}
		return time.Time{}, false
	}

	a := mintdom.MintAttempt{
		ID:            getStr("id"),
		WalletAddress: getStr("walletAddress"),
		SaleID:        getStr("saleId"),
		TransactionID: getStr("transactionId"),
		Status:        mintdom.AttemptStatus(getStr("status")),
		Outcome:       mintdom.ErrorKind(getStr("outcome")),
	}
	if a.ID == "" {
		a.ID = docID
	}
	if t, ok := getTime("submittedAt"); ok {
		a.SubmittedAt = t
	}
	if t, ok := getTime("settledAt"); ok {
		a.SettledAt = &t
	}

	if err := a.Validate(); err != nil {
		return mintdom.MintAttempt{}, fmt.Errorf("firestore: decode mint attempt %s: %w", docID, err)
	}
	return a, nil
}
