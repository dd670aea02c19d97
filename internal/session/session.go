// Package session paginates a result set for a consumer in fixed-size
// windows, fetching more data when a window runs off the end of what is
// known. It owns no business logic beyond windowing and continuation; it is
// the seam between the core and whatever front end drives it.
package session

import (
	"context"
	"log/slog"

	"event_hoarder/internal/cache"
	"event_hoarder/internal/domain"
)

// WindowSize is the number of records shown per window.
const WindowSize = 5

type State int

const (
	StateIdle State = iota
	StateRendering
	StateAwaitingMore
	StateDone
)

// Signal is the consumer's answer after a rendered window.
type Signal int

const (
	SignalContinue Signal = iota
	SignalNewSearch
	SignalQuit
)

// ExitReason distinguishes how a session ended: the result set ran dry, a
// fetch failed, the caller should restart the top-level search flow, or
// terminate entirely. ExitError always accompanies a non-nil error so callers
// never report a failure as exhaustion.
type ExitReason int

const (
	ExitExhausted ExitReason = iota
	ExitError
	ExitNewSearch
	ExitQuit
)

// Fetcher pulls the next listing page into the set and reports how many
// records were appended.
type Fetcher interface {
	FetchMore(ctx context.Context, params domain.SearchParams) (int, error)
}

// RenderFunc shows one window of records to the consumer.
type RenderFunc func(window []domain.EventRecord, windowNumber int)

// PromptFunc asks the consumer what to do next.
type PromptFunc func() Signal

type Session struct {
	fetcher Fetcher
	set     *cache.ResultSet
	params  domain.SearchParams
	render  RenderFunc
	prompt  PromptFunc
	state   State
	window  int
	logger  *slog.Logger
}

func New(fetcher Fetcher, set *cache.ResultSet, params domain.SearchParams, render RenderFunc, prompt PromptFunc, logger *slog.Logger) *Session {
	return &Session{
		fetcher: fetcher,
		set:     set,
		params:  params,
		render:  render,
		prompt:  prompt,
		state:   StateIdle,
		logger:  logger,
	}
}

func (s *Session) State() State {
	return s.state
}

// Run renders windows until the set is exhausted or the consumer leaves.
// When a rendered window reaches the end of the known records, the next page
// is fetched before prompting; a page with zero new records is terminal.
func (s *Session) Run(ctx context.Context) (ExitReason, error) {
	for {
		s.state = StateRendering
		start := s.window * WindowSize
		end := min(start+WindowSize, len(s.set.Records))
		if start > end {
			start = end
		}
		s.render(s.set.Records[start:end], s.window+1)

		if end >= len(s.set.Records) {
			s.state = StateAwaitingMore
			if !s.set.More {
				s.state = StateDone
				return ExitExhausted, nil
			}

			added, err := s.fetcher.FetchMore(ctx, s.params)
			if err != nil {
				s.state = StateDone
				return ExitError, err
			}
			if added == 0 {
				s.logger.Info("no more events", "search_key", s.params.Key())
				s.state = StateDone
				return ExitExhausted, nil
			}
			s.logger.Info("fetched more events",
				"search_key", s.params.Key(),
				"added", added,
				"total", len(s.set.Records),
			)
		}

		switch s.prompt() {
		case SignalContinue:
			s.window++
		case SignalNewSearch:
			s.state = StateDone
			return ExitNewSearch, nil
		default:
			s.state = StateDone
			return ExitQuit, nil
		}
	}
}
