// Package pokeapi fetches Pokemon from the public PokeAPI catalog.
package pokeapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/rochacaio/pokemon-backend/internal/model"
)

const (
	DefaultBaseURL = "https://pokeapi.co/api/v2"
	serviceName    = "pokeapi"
)

var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "pokemon_pokeapi_request_duration_seconds",
	Help:    "Latency of PokeAPI lookups by response status.",
	Buckets: prometheus.DefBuckets,
}, []string{"status"})

// Options configures Client. RPS <= 0 disables outbound throttling.
type Options struct {
	BaseURL string
	Timeout time.Duration
	RPS     float64
	Burst   int
}

// Client looks up Pokemon by numeric id. It never retries; callers decide.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	log     zerolog.Logger
}

// New creates a PokeAPI client.
func New(opts Options, log zerolog.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	limit := rate.Inf
	if opts.RPS > 0 {
		limit = rate.Limit(opts.RPS)
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}

	c := resty.New().
		SetBaseURL(opts.BaseURL).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "pokemon-backend").
		SetTimeout(opts.Timeout)

	return &Client{
		http:    c,
		limiter: rate.NewLimiter(limit, opts.Burst),
		log:     log.With().Str("component", "pokeapi").Logger(),
	}
}

type pokemonResponse struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Types []struct {
		Slot int `json:"slot"`
		Type struct {
			Name string `json:"name"`
		} `json:"type"`
	} `json:"types"`
}

// FetchPokemon returns the catalog entry for id. A missing entry is a
// model.NotFoundError; any other failure is a model.UpstreamError, carrying
// the response status when there was one.
func (c *Client) FetchPokemon(ctx context.Context, id int) (*model.ExternalPokemon, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, model.UpstreamError{Service: serviceName, Err: err}
	}

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", strconv.Itoa(id)).
		Get("/pokemon/{id}")
	if err != nil {
		requestDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		c.log.Warn().Err(err).Int("id", id).Msg("pokeapi request failed")
		return nil, model.UpstreamError{Service: serviceName, Err: err}
	}
	requestDuration.WithLabelValues(strconv.Itoa(resp.StatusCode())).Observe(time.Since(start).Seconds())

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil, model.NewNotFoundError("pokeapi pokemon", id)
	case !resp.IsSuccess():
		c.log.Warn().Int("id", id).Int("status", resp.StatusCode()).Msg("pokeapi returned error status")
		return nil, model.UpstreamError{Service: serviceName, Status: resp.StatusCode()}
	}

	var body pokemonResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, model.NewValidationError("payload", "malformed pokeapi response: "+err.Error())
	}

	types := make([]string, 0, len(body.Types))
	for _, t := range body.Types {
		types = append(types, t.Type.Name)
	}
	return &model.ExternalPokemon{ID: id, Name: body.Name, Types: types}, nil
}
