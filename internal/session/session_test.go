package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"event_hoarder/internal/cache"
	"event_hoarder/internal/domain"
)

type fetcherFunc func(ctx context.Context, params domain.SearchParams) (int, error)

func (f fetcherFunc) FetchMore(ctx context.Context, params domain.SearchParams) (int, error) {
	return f(ctx, params)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func recordSet(n int, more bool) *cache.ResultSet {
	set := cache.NewResultSet()
	for i := 0; i < n; i++ {
		set.Records = append(set.Records, domain.EventRecord{URL: fmt.Sprintf("https://e.com/e/%d", i)})
	}
	set.More = more
	set.NextPage = 2
	return set
}

func scriptedPrompt(signals ...Signal) PromptFunc {
	i := 0
	return func() Signal {
		s := signals[i]
		i++
		return s
	}
}

func TestRun_WindowsOfFive(t *testing.T) {
	set := recordSet(12, false)
	var windows [][]domain.EventRecord

	fetcher := fetcherFunc(func(context.Context, domain.SearchParams) (int, error) {
		t.Fatal("must not fetch while records remain unrendered")
		return 0, nil
	})
	sess := New(fetcher, set, domain.SearchParams{Query: "q", Location: "l"},
		func(w []domain.EventRecord, _ int) { windows = append(windows, w) },
		scriptedPrompt(SignalContinue, SignalContinue),
		testLogger(),
	)

	reason, err := sess.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, ExitExhausted, reason)
	require.Len(t, windows, 3)
	assert.Len(t, windows[0], 5)
	assert.Len(t, windows[1], 5)
	assert.Len(t, windows[2], 2)
	assert.Equal(t, StateDone, sess.State())
}

func TestRun_FetchesMoreWhenWindowRunsOffEnd(t *testing.T) {
	set := recordSet(5, true)
	fetches := 0

	fetcher := fetcherFunc(func(context.Context, domain.SearchParams) (int, error) {
		fetches++
		set.Records = append(set.Records, domain.EventRecord{URL: "https://e.com/e/new"})
		return 1, nil
	})
	sess := New(fetcher, set, domain.SearchParams{Query: "q", Location: "l"},
		func([]domain.EventRecord, int) {},
		scriptedPrompt(SignalContinue, SignalQuit),
		testLogger(),
	)

	reason, err := sess.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, ExitQuit, reason)
	assert.Equal(t, 2, fetches)
}

func TestRun_ZeroNewRecordsIsTerminal(t *testing.T) {
	set := recordSet(3, true)

	fetcher := fetcherFunc(func(context.Context, domain.SearchParams) (int, error) {
		set.More = false
		return 0, nil
	})
	sess := New(fetcher, set, domain.SearchParams{Query: "q", Location: "l"},
		func([]domain.EventRecord, int) {},
		scriptedPrompt(),
		testLogger(),
	)

	reason, err := sess.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, ExitExhausted, reason)
	assert.Equal(t, StateDone, sess.State())
}

func TestRun_ExhaustedSetSkipsFetch(t *testing.T) {
	set := recordSet(2, false)

	fetcher := fetcherFunc(func(context.Context, domain.SearchParams) (int, error) {
		t.Fatal("must not fetch when the set is exhausted")
		return 0, nil
	})
	sess := New(fetcher, set, domain.SearchParams{Query: "q", Location: "l"},
		func([]domain.EventRecord, int) {},
		scriptedPrompt(),
		testLogger(),
	)

	reason, err := sess.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, ExitExhausted, reason)
}

func TestRun_NewSearchSignal(t *testing.T) {
	set := recordSet(8, false)

	sess := New(nil, set, domain.SearchParams{Query: "q", Location: "l"},
		func([]domain.EventRecord, int) {},
		scriptedPrompt(SignalNewSearch),
		testLogger(),
	)

	reason, err := sess.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, ExitNewSearch, reason)
}

func TestRun_FetchErrorEndsSession(t *testing.T) {
	set := recordSet(5, true)

	fetcher := fetcherFunc(func(context.Context, domain.SearchParams) (int, error) {
		return 0, errors.New("listing page unreachable")
	})
	sess := New(fetcher, set, domain.SearchParams{Query: "q", Location: "l"},
		func([]domain.EventRecord, int) {},
		scriptedPrompt(),
		testLogger(),
	)

	reason, err := sess.Run(context.Background())

	require.Error(t, err)
	assert.Equal(t, ExitError, reason)
	assert.Equal(t, StateDone, sess.State())
}
