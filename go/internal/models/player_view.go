package models

// PlayerView is the client-visible roster entry of a room: the participant
// identity joined with the state of their vote.
type PlayerView struct {
	UserID string  `json:"userId"`
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	Vote   *string `json:"vote"`
}
