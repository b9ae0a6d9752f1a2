package types

import "time"

type Verdict int

const (
	Incorrect Verdict = iota
	Correct
)

func (v Verdict) String() string {
	if v == Correct {
		return "correct"
	}
	return "incorrect"
}

// Message is the text shown in the result area.
func (v Verdict) Message() string {
	if v == Correct {
		return "Correct!"
	}
	return "Incorrect :( Try again!"
}

type ArtworkRecord struct {
	ID       int      `json:"id"`
	Title    []string `json:"title"`
	ImageURL string   `json:"imageUrl"`
	Alt      string   `json:"alt"`
}

type HintRecord struct {
	Word       string `json:"word"`
	Definition string `json:"definition"`
	Fallback   bool   `json:"fallback"`
	Text       string `json:"text"`
}

type SessionSnapshot struct {
	Title          []string  `json:"title"`
	Generation     uint64    `json:"generation"`
	LastAccessTime time.Time `json:"lastAccessTime"`
}
