package wallet

import (
	"fmt"

	"github.com/google/uuid"
)

// ReferenceKind names the entity that caused a transaction
type ReferenceKind string

const (
	ReferenceReceipt     ReferenceKind = "receipt"
	ReferenceAchievement ReferenceKind = "achievement"
	ReferenceChallenge   ReferenceKind = "challenge"
	ReferenceReferral    ReferenceKind = "referral"
	ReferenceManual      ReferenceKind = "manual"
)

// Reference points at the cause of a transaction. Each kind has its own
// payload type; use a type switch to handle them exhaustively.
type Reference interface {
	Kind() ReferenceKind
	// ID is the stored reference_id, empty when the kind has none
	ID() string
}

type ReceiptRef struct{ ReceiptID uuid.UUID }

type AchievementRef struct{ AchievementID uuid.UUID }

type ChallengeRef struct{ ChallengeID uuid.UUID }

type ReferralRef struct{ ReferralID uuid.UUID }

// ManualRef is an operator-issued adjustment with an optional external key
type ManualRef struct{ Key string }

func (r ReceiptRef) Kind() ReferenceKind     { return ReferenceReceipt }
func (r AchievementRef) Kind() ReferenceKind { return ReferenceAchievement }
func (r ChallengeRef) Kind() ReferenceKind   { return ReferenceChallenge }
func (r ReferralRef) Kind() ReferenceKind    { return ReferenceReferral }
func (r ManualRef) Kind() ReferenceKind      { return ReferenceManual }

func (r ReceiptRef) ID() string     { return r.ReceiptID.String() }
func (r AchievementRef) ID() string { return r.AchievementID.String() }
func (r ChallengeRef) ID() string   { return r.ChallengeID.String() }
func (r ReferralRef) ID() string    { return r.ReferralID.String() }
func (r ManualRef) ID() string      { return r.Key }

// ParseReference rebuilds a Reference from its stored columns
func ParseReference(kind, id string) (Reference, error) {
	switch ReferenceKind(kind) {
	case ReferenceManual:
		return ManualRef{Key: id}, nil
	case ReferenceReceipt, ReferenceAchievement, ReferenceChallenge, ReferenceReferral:
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidReference, kind)
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s id %q", ErrInvalidReference, kind, id)
	}
	switch ReferenceKind(kind) {
	case ReferenceReceipt:
		return ReceiptRef{ReceiptID: parsed}, nil
	case ReferenceAchievement:
		return AchievementRef{AchievementID: parsed}, nil
	case ReferenceChallenge:
		return ChallengeRef{ChallengeID: parsed}, nil
	default:
		return ReferralRef{ReferralID: parsed}, nil
	}
}

func referenceColumns(ref Reference) (ReferenceKind, *string) {
	if ref == nil {
		ref = ManualRef{}
	}
	id := ref.ID()
	if id == "" {
		return ref.Kind(), nil
	}
	return ref.Kind(), &id
}
