// Package store persists the engine's behavioral state as an encrypted
// blob in local slot storage, with a self-healing load path: corrupted
// state is discarded in favor of an empty one, never surfaced as a
// failure.
package store

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"

	"github.com/sensekit/behavior-engine-go/internal/models"
)

// Slot names. The key slot is separate from and less sensitive than the
// behavior blob it unlocks.
const (
	slotBehavior = "behavior_state"
	slotKey      = "behavior_key"
)

// State is the persisted record: bounded location history, all stay
// points, and the bounded pattern history.
type State struct {
	Fixes      []models.LocationFix     `json:"fixes"`
	StayPoints []models.StayPoint       `json:"stayPoints"`
	Patterns   []models.BehaviorPattern `json:"patterns"`
}

// Store seals State into the behavior slot under AES-256-GCM. The key is
// generated once on first use and persisted in its own slot; it survives
// restarts and data resets. Key rotation is intentionally not implemented.
type Store struct {
	slots *SlotDB
	key   []byte
}

// New creates a store over the given slot database, loading or generating
// the encryption key.
func New(slots *SlotDB) (*Store, error) {
	s := &Store{slots: slots}
	if err := s.ensureKey(); err != nil {
		return nil, err
	}
	return s, nil
}

// ensureKey loads the persisted key, or generates and persists a fresh one.
func (s *Store) ensureKey() error {
	encoded, ok, err := s.slots.Get(slotKey)
	if err != nil {
		return fmt.Errorf("load key slot: %w", err)
	}
	if ok {
		key, err := base64.StdEncoding.DecodeString(encoded)
		if err == nil && len(key) == KeySize {
			s.key = key
			return nil
		}
		log.Printf("[Store] Stored key unusable, generating a new one")
	}

	key, err := GenerateKey()
	if err != nil {
		return err
	}
	if err := s.slots.Put(slotKey, base64.StdEncoding.EncodeToString(key)); err != nil {
		return fmt.Errorf("persist key: %w", err)
	}
	s.key = key
	return nil
}

// Save serializes and seals the state into the behavior slot. The slot
// write is an atomic overwrite, so a failed save leaves the previous blob
// intact. Errors are transient IO failures; the engine retries on its next
// periodic cycle.
func (s *Store) Save(state State) error {
	plaintext, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	sealed, err := Encrypt(plaintext, s.key)
	if err != nil {
		return fmt.Errorf("encrypt state: %w", err)
	}

	if err := s.slots.Put(slotBehavior, sealed); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

// Load reads and opens the behavior slot. A missing slot yields the empty
// state. Any decryption or deserialization failure is treated as corrupted
// state: the blob is wiped and the empty state returned, because resuming
// with no history beats crashing.
func (s *Store) Load() (State, error) {
	sealed, ok, err := s.slots.Get(slotBehavior)
	if err != nil {
		return State{}, fmt.Errorf("read state: %w", err)
	}
	if !ok {
		return State{}, nil
	}

	plaintext, err := Decrypt(sealed, s.key)
	if err != nil {
		log.Printf("[Store] Corrupted state blob, discarding: %v", err)
		s.wipe()
		return State{}, nil
	}

	var state State
	if err := json.Unmarshal(plaintext, &state); err != nil {
		log.Printf("[Store] Undecodable state blob, discarding: %v", err)
		s.wipe()
		return State{}, nil
	}

	return state, nil
}

// Reset wipes the persisted behavior blob. Key material is retained; it
// holds no behavioral data.
func (s *Store) Reset() error {
	return s.slots.Delete(slotBehavior)
}

func (s *Store) wipe() {
	if err := s.slots.Delete(slotBehavior); err != nil {
		log.Printf("[Store] Failed to wipe corrupted blob: %v", err)
	}
}
