// Package artwork loads random artworks from the Art Institute of Chicago API.
package artwork

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"guessart/internal/fetch"
	"guessart/internal/game"
	"guessart/internal/types"
)

const (
	DefaultBaseURL     = "https://api.artic.edu/api/v1/artworks"
	DefaultMaxAttempts = 5

	MinID = 10000
	MaxID = 99999

	fieldsQuery = "id,title,description,iiif_url,image_id"
	imageSuffix = "/full/843,/0/default.jpg"
)

// ErrRetriesExhausted is returned when every drawn identifier came back 404.
var ErrRetriesExhausted = errors.New("no artwork found within retry budget")

// Fetcher is the subset of *fetch.Client the provider needs.
type Fetcher interface {
	FetchJSON(ctx context.Context, url string) (gjson.Result, error)
}

type Provider struct {
	fetcher     Fetcher
	baseURL     string
	maxAttempts uint
	rng         game.Rand
	newBackOff  func() backoff.BackOff
	logger      *zap.Logger
}

type Option func(*Provider)

func WithBaseURL(url string) Option {
	return func(p *Provider) {
		p.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithMaxAttempts caps how many identifiers are tried when the API keeps
// answering 404.
func WithMaxAttempts(n uint) Option {
	return func(p *Provider) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

func WithRand(r game.Rand) Option {
	return func(p *Provider) {
		p.rng = r
	}
}

// WithBackOff sets the policy used between 404 retries.
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(p *Provider) {
		p.newBackOff = newBackOff
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(p *Provider) {
		p.logger = l
	}
}

func NewProvider(f Fetcher, opts ...Option) *Provider {
	p := &Provider{
		fetcher:     f,
		baseURL:     DefaultBaseURL,
		maxAttempts: DefaultMaxAttempts,
		rng:         game.CryptoRand{},
		newBackOff:  defaultBackOff,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	return b
}

// RandomID draws an identifier uniformly from [MinID, MaxID].
func (p *Provider) RandomID() int {
	return MinID + p.rng.Intn(MaxID-MinID+1)
}

// URL builds the metadata request URL for id.
func (p *Provider) URL(id int) string {
	return p.baseURL + "/" + strconv.Itoa(id) + "?fields=" + fieldsQuery
}

// LoadRandomArtwork fetches a random artwork. A 404 draws a fresh identifier
// and tries again, up to the configured attempt cap; any other failure is
// returned straight away.
func (p *Provider) LoadRandomArtwork(ctx context.Context) (types.ArtworkRecord, error) {
	attempts := 0
	op := func() (types.ArtworkRecord, error) {
		attempts++
		id := p.RandomID()
		rec, err := p.Load(ctx, id)
		if err == nil {
			return rec, nil
		}
		if fetch.IsNotFound(err) {
			return rec, err
		}
		return rec, backoff.Permanent(err)
	}

	rec, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(p.newBackOff()),
		backoff.WithMaxTries(p.maxAttempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			p.logger.Debug("artwork not found, drawing another id",
				zap.Int("attempt", attempts), zap.Duration("wait", next), zap.Error(err))
		}),
	)
	if err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			err = perm.Unwrap()
		}
		if fetch.IsNotFound(err) {
			return types.ArtworkRecord{}, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempts, err)
		}
		return types.ArtworkRecord{}, err
	}
	return rec, nil
}

// Load fetches and decodes the artwork with the given identifier.
func (p *Provider) Load(ctx context.Context, id int) (types.ArtworkRecord, error) {
	doc, err := p.fetcher.FetchJSON(ctx, p.URL(id))
	if err != nil {
		return types.ArtworkRecord{}, fmt.Errorf("load artwork %d: %w", id, err)
	}
	rec, err := Decode(doc)
	if err != nil {
		return types.ArtworkRecord{}, fmt.Errorf("decode artwork %d: %w", id, err)
	}
	if rec.ID == 0 {
		rec.ID = id
	}
	return rec, nil
}

// Decode extracts the title and image URL from an artwork response.
func Decode(doc gjson.Result) (types.ArtworkRecord, error) {
	title, err := fetch.RequireString(doc, "data.title")
	if err != nil {
		return types.ArtworkRecord{}, err
	}
	imageID, err := fetch.RequireString(doc, "data.image_id")
	if err != nil {
		return types.ArtworkRecord{}, err
	}
	iiifURL, err := fetch.RequireString(doc, "config.iiif_url")
	if err != nil {
		return types.ArtworkRecord{}, err
	}

	tokens := game.Tokenize(title)
	if len(tokens) == 0 {
		return types.ArtworkRecord{}, &fetch.ParseError{Path: "data.title", Reason: "blank"}
	}
	return types.ArtworkRecord{
		ID:       int(doc.Get("data.id").Int()),
		Title:    tokens,
		ImageURL: iiifURL + "/" + imageID + imageSuffix,
		Alt:      strings.Join(tokens, " "),
	}, nil
}
