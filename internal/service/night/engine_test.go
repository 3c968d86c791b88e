package night

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_AdvancesOncePerNight(t *testing.T) {
	s := NewStore()
	s.CreatePlayer("v", FactionTown, RoleVanilla)
	e := newTestEngine(t, s, Options{})

	for want := 1; want <= 3; want++ {
		sum, err := e.RunNight(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, want-1, sum.Night)
		assert.Equal(t, want, e.Night())
	}
}

func TestEngine_EffectsDoNotLeakAcrossNights(t *testing.T) {
	s := NewStore()
	rb := s.CreatePlayer("rb", FactionTown, RoleRoleblocker)
	doc := s.CreatePlayer("doc", FactionTown, RoleDoctor)
	v := s.CreatePlayer("v", FactionTown, RoleVanilla)

	e := newTestEngine(t, s, Options{})
	_, err := e.RunNight(context.Background(), Submissions{rb: doc, doc: v})
	require.NoError(t, err)
	assert.Zero(t, e.effects.count(EffectBlocked))
	assert.Zero(t, e.effects.count(EffectSaved))

	_, err = e.RunNight(context.Background(), Submissions{rb: v, doc: v})
	require.NoError(t, err)
	assert.Zero(t, e.effects.count(EffectBlocked))
	assert.Zero(t, e.effects.count(EffectSaved))
}

func TestEngine_LeakedEffectIsFatal(t *testing.T) {
	s := NewStore()
	v := s.CreatePlayer("v", FactionTown, RoleVanilla)
	e := newTestEngine(t, s, Options{})

	e.effects.set(EffectBlocked, v)

	_, err := e.RunNight(context.Background(), nil)
	require.ErrorIs(t, err, ErrInvariant)

	var ie *InvariantError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, PhaseBlock, ie.Phase)

	_, err = e.RunNight(context.Background(), nil)
	require.ErrorIs(t, err, ErrEngineHalted)
	assert.Equal(t, 0, e.Night())
}

func TestEngine_DuplicateResultAbortsNight(t *testing.T) {
	s := NewStore()
	goon := s.CreatePlayer("goon", FactionMafia, RoleGoon)
	v := s.CreatePlayer("v", FactionTown, RoleVanilla)

	phases := append(DefaultPhases(), Phase{
		Name:  "double_write",
		After: []string{PhaseSave},
		Run: func(_ context.Context, nc *NightContext) error {
			return nc.results.put("double_write", goon, CapKill, failed())
		},
	})

	reported := 0
	e := newTestEngine(t, s, Options{
		Phases: phases,
		Sinks:  []Sink{SinkFunc(func(Report) { reported++ })},
	})

	_, err := e.RunNight(context.Background(), Submissions{goon: v})
	require.ErrorIs(t, err, ErrInvariant)
	assert.Zero(t, reported, "an aborted night reports nothing")
	assert.Nil(t, e.LastSummary())
}

func TestEngine_OneNightInFlight(t *testing.T) {
	e := newTestEngine(t, NewStore(), Options{})

	e.mu.Lock()
	_, err := e.RunNight(context.Background(), nil)
	e.mu.Unlock()

	require.ErrorIs(t, err, ErrNightInFlight)
}

func TestEngine_RejectsInvalidSubmissions(t *testing.T) {
	s := NewStore()
	goon := s.CreatePlayer("goon", FactionMafia, RoleGoon)
	v := s.CreatePlayer("v", FactionTown, RoleVanilla)
	e := newTestEngine(t, s, Options{SetupNightKills: true})

	_, err := e.RunNight(context.Background(), Submissions{goon: PlayerID(99)})
	require.ErrorIs(t, err, ErrInvalidSubmission)
	assert.Equal(t, 0, e.Night(), "rejected input does not start the night")

	_, err = e.RunNight(context.Background(), Submissions{goon: v})
	require.NoError(t, err)

	_, err = e.RunNight(context.Background(), Submissions{goon: v})
	require.ErrorIs(t, err, ErrInvalidSubmission, "dead target")

	_, err = e.RunNight(context.Background(), Submissions{v: goon})
	require.ErrorIs(t, err, ErrInvalidSubmission, "dead actor")
}

func TestEngine_DeathIsMonotonic(t *testing.T) {
	s := NewStore()
	goon := s.CreatePlayer("goon", FactionMafia, RoleGoon)
	cop := s.CreatePlayer("cop", FactionTown, RoleCop)
	v := s.CreatePlayer("v", FactionTown, RoleVanilla)

	e := newTestEngine(t, s, Options{})
	passSetupNight(t, e)

	sum, err := e.RunNight(context.Background(), Submissions{goon: cop, cop: goon})
	require.NoError(t, err)

	// 当晚死亡的玩家仍然得到报告，并带有死亡标记
	require.Len(t, sum.Reports, 2)
	assert.Equal(t, "cop", sum.Reports[1].Name)
	assert.True(t, sum.Reports[1].Died)
	assert.Equal(t, succeeded("Guilty"), sum.Reports[1].Outcomes[0].Result)

	for i := 0; i < 3; i++ {
		sum, err = e.RunNight(context.Background(), Submissions{goon: Nobody})
		require.NoError(t, err)

		dead := snapshot(t, s, cop)
		assert.True(t, dead.LongDead)
		assert.Equal(t, 1, dead.DiedOn)
		assert.Equal(t, Nobody, dead.Target)
		assert.Empty(t, sum.Deaths)
		for _, r := range sum.Reports {
			assert.NotEqual(t, cop, r.Player, "long dead players are not reported")
		}
	}
	assert.False(t, snapshot(t, s, v).Died)
}

func TestEngine_ParallelMatchesSequential(t *testing.T) {
	build := func() (*Store, Submissions) {
		s := NewStore()
		rb := s.CreatePlayer("rb", FactionTown, RoleRoleblocker)
		sheriff := s.CreatePlayer("sheriff", FactionTown, RoleSheriff)
		tracker := s.CreatePlayer("tracker", FactionTown, RoleTracker)
		watcher := s.CreatePlayer("watcher", FactionTown, RoleWatcher)
		doc := s.CreatePlayer("doc", FactionTown, RoleDoctor, ModifierMacho)
		goon := s.CreatePlayer("goon", FactionMafia, RoleGoon, ModifierBreakthrough)
		gf := s.CreatePlayer("gf", FactionMafia, RoleGodfather)
		return s, Submissions{
			rb:      goon,
			sheriff: gf,
			tracker: goon,
			watcher: doc,
			doc:     sheriff,
			goon:    doc,
			gf:      sheriff,
		}
	}

	var summaries []*Summary
	for _, parallel := range []bool{false, true} {
		s, subs := build()
		e := newTestEngine(t, s, Options{ParallelStages: parallel, SetupNightKills: true})
		sum, err := e.RunNight(context.Background(), subs)
		require.NoError(t, err)
		summaries = append(summaries, sum)
	}

	assert.Equal(t, summaries[0], summaries[1])
}

func TestEngine_SinksSeeEveryReport(t *testing.T) {
	s := NewStore()
	cop := s.CreatePlayer("cop", FactionTown, RoleCop)
	goon := s.CreatePlayer("goon", FactionMafia, RoleGoon)

	var got []Report
	e := newTestEngine(t, s, Options{Sinks: []Sink{SinkFunc(func(r Report) { got = append(got, r) })}})

	sum, err := e.RunNightFrom(context.Background(), FactionTargets{FactionTown: "goon", FactionMafia: "cop"})
	require.NoError(t, err)

	assert.Equal(t, sum.Reports, got)
	assert.Equal(t, sum, e.LastSummary())
	assert.Equal(t, goon, snapshot(t, s, cop).Target)
}

func TestEngine_SinksMayReadEngine(t *testing.T) {
	s := NewStore()
	cop := s.CreatePlayer("cop", FactionTown, RoleCop)
	goon := s.CreatePlayer("goon", FactionMafia, RoleGoon)

	var e *Engine
	var nights []int
	var last *Summary
	e = newTestEngine(t, s, Options{Sinks: []Sink{SinkFunc(func(Report) {
		nights = append(nights, e.Night())
		last = e.LastSummary()
	})}})

	sum, err := e.RunNight(context.Background(), Submissions{cop: goon, goon: Nobody})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 1}, nights)
	assert.Same(t, sum, last)
}

func TestEngine_BusyEngineKeepsBallot(t *testing.T) {
	s := NewStore()
	cop := s.CreatePlayer("cop", FactionTown, RoleCop)
	goon := s.CreatePlayer("goon", FactionMafia, RoleGoon)
	e := newTestEngine(t, s, Options{})

	ballot := NewBallot(s)
	require.NoError(t, ballot.Submit(cop, goon))

	e.mu.Lock()
	_, err := e.RunNightFrom(context.Background(), ballot)
	e.mu.Unlock()

	require.ErrorIs(t, err, ErrNightInFlight)
	assert.Equal(t, []PlayerID{goon}, ballot.Pending(), "cop's submission survives")

	sum, err := e.RunNightFrom(context.Background(), ballot)
	require.NoError(t, err)
	require.Len(t, sum.Reports, 2)
	assert.Equal(t, "cop", sum.Reports[0].Name)
	assert.Equal(t, "goon", sum.Reports[0].TargetName)
	assert.Equal(t, []PlayerID{cop, goon}, ballot.Pending(), "ballot is emptied once the night runs")
}
