// Package signatureStore holds the owner signatures collected for the transaction that is currently
// being confirmed. Signatures produced locally and signatures delivered by the push relay are merged
// into a single set that subscribers observe with replay-latest semantics.
package signatureStore

import (
	"context"
	"errors"
	"sync"

	"github.com/Layr-Labs/multisig-go/pkg/safe"
	"github.com/Layr-Labs/multisig-go/pkg/util"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

var (
	// ErrNotSeeded is returned when signatures are added before the store was seeded for a session
	ErrNotSeeded = errors.New("signature store has not been seeded")
	// ErrNotOwner is returned when the signer is not part of the current owner set
	ErrNotOwner = errors.New("signer is not an owner of the safe")
	// ErrSignatureExists is returned when the same owner submits the same signature twice
	ErrSignatureExists = errors.New("signature already exists")
	// ErrConflictingSignature is returned when an owner that already signed submits a different signature
	ErrConflictingSignature = errors.New("owner already provided a different signature")
)

// ISignatureStore defines the operations the confirmation flow needs from the store.
type ISignatureStore interface {
	// Seed replaces the current state for a new transaction hash and owner set
	Seed(hash common.Hash, owners []common.Address, initial safe.SignatureSet) safe.SignatureSet
	// Update applies a refreshed estimate to the current state
	Update(hash common.Hash, owners []common.Address) safe.SignatureSet
	// Add inserts the signature of an owner
	Add(owner common.Address, signature safe.Signature) (safe.SignatureSet, error)
	// Current streams the signature set every time it changes, starting with the latest value
	Current(ctx context.Context) <-chan safe.SignatureSet
	// Load returns a point-in-time snapshot
	Load() safe.SignatureSet
}

// SignatureStore is the in-memory ISignatureStore used for one confirmation session.
// All mutations are serialised by a mutex.
type SignatureStore struct {
	logger *zap.Logger

	mu          sync.Mutex
	seeded      bool
	hash        common.Hash
	owners      []common.Address
	signatures  safe.SignatureSet
	subscribers map[uint64]chan safe.SignatureSet
	nextID      uint64
}

// NewSignatureStore creates an empty, unseeded store.
func NewSignatureStore(logger *zap.Logger) *SignatureStore {
	return &SignatureStore{
		logger:      logger,
		signatures:  safe.SignatureSet{},
		subscribers: make(map[uint64]chan safe.SignatureSet),
	}
}

// Seed replaces the current state. Initial signatures from addresses outside owners are dropped.
func (s *SignatureStore) Seed(hash common.Hash, owners []common.Address, initial safe.SignatureSet) safe.SignatureSet {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seeded = true
	s.hash = hash
	s.owners = append([]common.Address(nil), owners...)
	s.signatures = safe.SignatureSet{}
	for owner, sig := range initial {
		if !util.Contains(s.owners, owner) {
			s.logger.Sugar().Warnw("Dropping initial signature from non owner",
				zap.String("owner", owner.String()),
				zap.String("hash", hash.String()),
			)
			continue
		}
		s.signatures[owner] = sig
	}
	s.logger.Sugar().Debugw("Seeded signature store",
		zap.String("hash", hash.String()),
		zap.Int("signatures", len(s.signatures)),
	)
	return s.publishLocked()
}

// Update refreshes the state after a new estimate. A different hash invalidates every signature;
// an unchanged hash only drops signatures of addresses that are no longer owners.
func (s *SignatureStore) Update(hash common.Hash, owners []common.Address) safe.SignatureSet {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.seeded || s.hash != hash {
		s.seeded = true
		s.hash = hash
		s.owners = append([]common.Address(nil), owners...)
		s.signatures = safe.SignatureSet{}
		return s.publishLocked()
	}

	s.owners = append([]common.Address(nil), owners...)
	for owner := range s.signatures {
		if !util.Contains(s.owners, owner) {
			delete(s.signatures, owner)
		}
	}
	return s.publishLocked()
}

// Add inserts the signature of owner. The set is left untouched when an error is returned.
func (s *SignatureStore) Add(owner common.Address, signature safe.Signature) (safe.SignatureSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.seeded {
		return nil, ErrNotSeeded
	}
	if !util.Contains(s.owners, owner) {
		return s.signatures.Clone(), ErrNotOwner
	}
	if existing, ok := s.signatures[owner]; ok {
		if existing.Equal(signature) {
			return s.signatures.Clone(), ErrSignatureExists
		}
		s.logger.Sugar().Warnw("Rejecting conflicting signature",
			zap.String("owner", owner.String()),
			zap.String("hash", s.hash.String()),
		)
		return s.signatures.Clone(), ErrConflictingSignature
	}

	s.signatures[owner] = signature
	return s.publishLocked(), nil
}

// Current streams the full signature set every time it changes. The latest value is replayed on
// subscription; a slow reader only ever sees the most recent set. The channel is closed when ctx ends.
func (s *SignatureStore) Current(ctx context.Context) <-chan safe.SignatureSet {
	ch := make(chan safe.SignatureSet, 1)

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = ch
	if s.seeded {
		ch <- s.signatures.Clone()
	}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subscribers, id)
		close(ch)
		s.mu.Unlock()
	}()
	return ch
}

// Load returns a snapshot of the current signatures.
func (s *SignatureStore) Load() safe.SignatureSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signatures.Clone()
}

// Hash returns the transaction hash the current signatures were produced for.
func (s *SignatureStore) Hash() common.Hash {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hash
}

func (s *SignatureStore) publishLocked() safe.SignatureSet {
	snapshot := s.signatures.Clone()
	for _, ch := range s.subscribers {
		// drop a value the subscriber has not read yet, only the latest matters
		select {
		case <-ch:
		default:
		}
		ch <- snapshot.Clone()
	}
	return snapshot
}
