package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tranducminh/quizsnap/internal/leaderboard"
	"github.com/tranducminh/quizsnap/internal/quiz"
)

func sampleMaster(t *testing.T) quiz.Master {
	t.Helper()
	master, err := quiz.NewMaster([]quiz.Question{
		{Text: "1+1?", Options: []string{"1", "2", "3", "4"}, CorrectIndex: 1, Explanation: "basic sum"},
		{Text: "2+2?", Options: []string{"2", "3", "4", "5"}, CorrectIndex: 2, Explanation: "basic sum"},
	})
	require.NoError(t, err)
	return master
}

func backends(t *testing.T) map[string]Store {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	lite, err := OpenSQLite(filepath.Join(t.TempDir(), "slots.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { lite.Close() })

	return map[string]Store{
		"memory": NewMemory(),
		"redis":  NewRedis(client, "", zerolog.Nop()),
		"sqlite": lite,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	master := sampleMaster(t)
	entries := []leaderboard.Entry{
		{ID: "100", Name: "An", Score: 7, TimeSeconds: 120},
		{ID: "200", Name: "Binh", Score: 7, TimeSeconds: 90},
	}

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok := s.LoadQuiz(ctx)
			assert.False(t, ok, "fresh store should have no quiz")
			_, ok = s.LoadBoard(ctx)
			assert.False(t, ok, "fresh store should have no leaderboard")

			require.NoError(t, s.SaveQuiz(ctx, master))
			require.NoError(t, s.SaveBoard(ctx, entries))

			gotQuiz, ok := s.LoadQuiz(ctx)
			require.True(t, ok)
			assert.Equal(t, master, gotQuiz)

			gotBoard, ok := s.LoadBoard(ctx)
			require.True(t, ok)
			assert.Equal(t, entries, gotBoard)

			require.NoError(t, s.ClearQuiz(ctx))
			require.NoError(t, s.ClearBoard(ctx))

			_, ok = s.LoadQuiz(ctx)
			assert.False(t, ok)
			_, ok = s.LoadBoard(ctx)
			assert.False(t, ok)
		})
	}
}

func TestStoreOverwritesWholeBlob(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	require.NoError(t, s.SaveBoard(ctx, []leaderboard.Entry{{ID: "1", Name: "An", Score: 3}}))
	require.NoError(t, s.SaveBoard(ctx, []leaderboard.Entry{
		{ID: "1", Name: "An", Score: 3},
		{ID: "2", Name: "Binh", Score: 9},
	}))

	entries, ok := s.LoadBoard(ctx)
	require.True(t, ok)
	assert.Len(t, entries, 2)
}

func TestRedisMalformedBlobIsAbsent(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	s := NewRedis(client, "quizsnap", zerolog.Nop())
	require.NoError(t, mr.Set("quizsnap:active_quiz", "{not json"))
	require.NoError(t, mr.Set("quizsnap:leaderboard", "also not json"))

	_, ok := s.LoadQuiz(ctx)
	assert.False(t, ok, "malformed quiz blob must read as absent")
	_, ok = s.LoadBoard(ctx)
	assert.False(t, ok, "malformed leaderboard blob must read as absent")
}

func TestRedisUnreachableIsAbsentNotFatal(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	s := NewRedis(client, "", zerolog.Nop())
	mr.Close()

	_, ok := s.LoadQuiz(ctx)
	assert.False(t, ok)
}
