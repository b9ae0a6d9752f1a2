// Package hint builds title hints from Free Dictionary API definitions.
package hint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"guessart/internal/fetch"
	"guessart/internal/game"
	"guessart/internal/types"
)

const (
	DefaultBaseURL = "https://api.dictionaryapi.dev/api/v2/entries/en"

	// FollowUp is shown under every hint.
	FollowUp = "(Need another hint? Push the button again!)"

	definitionPath = "0.meanings.0.definitions.0.definition"
)

// ErrNoArtwork is returned when a hint is requested before any artwork has
// been loaded into the session.
var ErrNoArtwork = errors.New("no artwork loaded")

type Fetcher interface {
	FetchJSON(ctx context.Context, url string) (gjson.Result, error)
}

type Provider struct {
	fetcher Fetcher
	baseURL string
	rng     game.Rand
}

type Option func(*Provider)

func WithBaseURL(u string) Option {
	return func(p *Provider) {
		p.baseURL = strings.TrimSuffix(u, "/")
	}
}

func WithRand(r game.Rand) Option {
	return func(p *Provider) {
		p.rng = r
	}
}

func NewProvider(f Fetcher, opts ...Option) *Provider {
	p := &Provider{
		fetcher: f,
		baseURL: DefaultBaseURL,
		rng:     game.CryptoRand{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// LoadHint picks a random word of the session's title and looks it up. Words
// the dictionary does not know are revealed as-is.
func (p *Provider) LoadHint(ctx context.Context, s *game.Session) (types.HintRecord, error) {
	tokens := s.Title()
	if len(tokens) == 0 {
		return types.HintRecord{}, ErrNoArtwork
	}
	raw := tokens[p.rng.Intn(len(tokens))]
	word := game.StripPunctuation(raw)
	if word == "" {
		return Fallback(raw), nil
	}

	doc, err := p.fetcher.FetchJSON(ctx, p.baseURL+"/"+url.PathEscape(word))
	if err != nil {
		// The dictionary reports unknown words as a 404 carrying the
		// {"title": ...} payload.
		var netErr *fetch.NetworkError
		if errors.As(err, &netErr) && netErr.Status == http.StatusNotFound && gjson.Get(netErr.Body, "title").Exists() {
			return Fallback(word), nil
		}
		return types.HintRecord{}, fmt.Errorf("look up %q: %w", word, err)
	}
	return Interpret(doc, word)
}

// Interpret turns a dictionary response into a hint for word.
func Interpret(doc gjson.Result, word string) (types.HintRecord, error) {
	if doc.Get("title").Exists() {
		return Fallback(word), nil
	}
	def, err := fetch.RequireString(doc, definitionPath)
	if err != nil {
		return types.HintRecord{}, fmt.Errorf("definition of %q: %w", word, err)
	}
	return types.HintRecord{Word: word, Definition: def, Text: def}, nil
}

// Fallback reveals word directly.
func Fallback(word string) types.HintRecord {
	return types.HintRecord{
		Word:     word,
		Fallback: true,
		Text:     "Sorry, we can't find a definition for one of the words, so we will just give it to you. Here: " + word,
	}
}
