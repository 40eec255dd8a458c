package models

import (
	"time"

	"github.com/google/uuid"
)

// GameType defines the card deck offered to the players of a session.
type GameType string

const (
	GameTypeFibonacci GameType = "fibonacci"
	GameTypeDecimal   GameType = "decimal"
)

// Valid reports whether the game type is one of the supported decks.
func (g GameType) Valid() bool {
	switch g {
	case GameTypeFibonacci, GameTypeDecimal:
		return true
	}
	return false
}

// Vote is a single participant entry of a voting round. A nil Value means the
// participant is in the round but has not voted yet.
type Vote struct {
	UserID string  `json:"userId"`
	Value  *string `json:"vote"`
}

// HasVoted reports whether the participant already picked a card.
func (v Vote) HasVoted() bool {
	return v.Value != nil
}

// Session is the durable state of a planning poker room.
type Session struct {
	Token            string     `json:"token"`
	Title            string     `json:"title"`
	OwnerID          string     `json:"ownerId"`
	Closed           bool       `json:"closed"`
	ResultRevealed   bool       `json:"resultRevealed"`
	GameType         GameType   `json:"gameType"`
	Votes            []Vote     `json:"votes"`
	SelectedWorkItem *uuid.UUID `json:"selectedWorkItem"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// FindVote returns the vote registered for userID, if any.
func (s *Session) FindVote(userID string) (Vote, bool) {
	for _, v := range s.Votes {
		if v.UserID == userID {
			return v, true
		}
	}
	return Vote{}, false
}

// ParticipantIDs returns the user ids holding a vote entry, in storage order.
func (s *Session) ParticipantIDs() []string {
	ids := make([]string, 0, len(s.Votes))
	for _, v := range s.Votes {
		ids = append(ids, v.UserID)
	}
	return ids
}
