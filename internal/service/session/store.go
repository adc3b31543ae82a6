// Package session persists interview snapshots under a named slot. A device keeps one
// in-flight interview, so the slot name rather than the session id is the key.
package session

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/zhouzirui/investor-interview/backend/internal/model/interview"
)

// DefaultSlot is the slot the mobile client uses for its single in-flight interview.
const DefaultSlot = "voice_investment_session"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidSlot     = errors.New("invalid session slot")
)

var slotPattern = regexp.MustCompile(`^[A-Za-z0-9_.:-]{1,128}$`)

// Store loads, saves and clears session envelopes.
type Store interface {
	Load(ctx context.Context, slot string) (interview.Session, error)
	Save(ctx context.Context, slot string, s interview.Session) error
	Clear(ctx context.Context, slot string) error
	Close() error
}

// ValidateSlot rejects slot names that are empty or contain unexpected characters.
func ValidateSlot(slot string) error {
	if !slotPattern.MatchString(slot) {
		return fmt.Errorf("%w: %q", ErrInvalidSlot, slot)
	}
	return nil
}

// record is the stored form of an envelope.
type record struct {
	payload []byte
	savedAt time.Time
}

func encode(slot string, s interview.Session) (record, error) {
	if err := ValidateSlot(slot); err != nil {
		return record{}, err
	}
	payload, err := interview.EncodeSession(s)
	if err != nil {
		return record{}, fmt.Errorf("encode session for slot %s: %w", slot, err)
	}
	return record{payload: payload, savedAt: time.Now().UTC()}, nil
}

func decode(slot string, payload []byte) (interview.Session, error) {
	s, err := interview.DecodeSession(payload)
	if err != nil {
		return interview.Session{}, fmt.Errorf("slot %s: %w", slot, err)
	}
	return s, nil
}
