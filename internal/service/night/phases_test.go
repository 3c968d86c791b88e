package night

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestEngine(t *testing.T, store *Store, opts Options) *Engine {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	e, err := NewEngine(store, opts)
	require.NoError(t, err)
	return e
}

// passSetupNight 结算一个没有任何提交的第 0 晚
func passSetupNight(t *testing.T, e *Engine) {
	t.Helper()
	_, err := e.RunNight(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, 1, e.Night())
}

func outcomeOf(t *testing.T, s *Summary, id PlayerID, c Capability) Result {
	t.Helper()
	for _, r := range s.Reports {
		if r.Player != id {
			continue
		}
		for _, o := range r.Outcomes {
			if o.Capability == c {
				return o.Result
			}
		}
	}
	t.Fatalf("no %s outcome for player %d", c, id)
	return Result{}
}

func snapshot(t *testing.T, s *Store, id PlayerID) Player {
	t.Helper()
	p, ok := s.Snapshot(id)
	require.True(t, ok)
	return p
}

func TestNight_BlockedDoctorCannotSaveFromGodfather(t *testing.T) {
	s := NewStore()
	rb := s.CreatePlayer("rb", FactionTown, RoleRoleblocker)
	doc := s.CreatePlayer("doc", FactionTown, RoleDoctor)
	gf := s.CreatePlayer("gf", FactionMafia, RoleGodfather)
	x := s.CreatePlayer("x", FactionTown, RoleVanilla)

	var sawBlocked, sawSaved bool
	phases := append(DefaultPhases(), Phase{
		Name:  "probe",
		After: []string{PhaseSave},
		Run: func(_ context.Context, nc *NightContext) error {
			sawBlocked = nc.Blocked(doc)
			sawSaved = nc.Saved(x)
			return nil
		},
	})

	e := newTestEngine(t, s, Options{Phases: phases})
	passSetupNight(t, e)

	sum, err := e.RunNight(context.Background(), Submissions{rb: doc, doc: x, gf: x})
	require.NoError(t, err)

	assert.True(t, sawBlocked, "doctor should be blocked during the night")
	assert.False(t, sawSaved, "blocked doctor must not save")

	assert.Equal(t, Result{Success: true, Value: NotApplicable}, outcomeOf(t, sum, rb, CapBlock))
	assert.Equal(t, Result{Success: false, Value: NotApplicable}, outcomeOf(t, sum, doc, CapSave))
	assert.Equal(t, Result{Success: true, Value: NotApplicable}, outcomeOf(t, sum, gf, CapKill))

	victim := snapshot(t, s, x)
	assert.True(t, victim.Died)
	assert.Equal(t, 1, victim.DiedOn)
	assert.True(t, victim.LongDead)
	assert.Equal(t, []Death{{Player: x, Name: "x", Role: RoleVanilla}}, sum.Deaths)

	assert.Equal(t, Nobody, snapshot(t, s, doc).Position, "blocked visitor stays home")
	assert.Equal(t, doc, snapshot(t, s, rb).Position)
}

func TestNight_CopAndDetective(t *testing.T) {
	s := NewStore()
	cop := s.CreatePlayer("cop", FactionTown, RoleCop)
	det := s.CreatePlayer("det", FactionTown, RoleDetective)
	goon := s.CreatePlayer("goon", FactionMafia, RoleGoon)
	gf := s.CreatePlayer("gf", FactionMafia, RoleGodfather)

	e := newTestEngine(t, s, Options{})
	sum, err := e.RunNight(context.Background(), Submissions{cop: goon, det: gf})
	require.NoError(t, err)

	assert.Equal(t, Result{Success: true, Value: "Guilty"}, outcomeOf(t, sum, cop, CapCop))
	assert.Equal(t, Result{Success: false, Value: NotApplicable}, outcomeOf(t, sum, det, CapDetective))

	sum, err = e.RunNight(context.Background(), Submissions{cop: gf, det: goon})
	require.NoError(t, err)

	assert.Equal(t, Result{Success: true, Value: "Innocent"}, outcomeOf(t, sum, cop, CapCop))
	assert.Equal(t, Result{Success: true, Value: "Goon"}, outcomeOf(t, sum, det, CapDetective))
}

func TestNight_UncoppableStopsOnlyCop(t *testing.T) {
	s := NewStore()
	sheriff := s.CreatePlayer("sheriff", FactionTown, RoleSheriff)
	goon := s.CreatePlayer("goon", FactionMafia, RoleGoon)
	require.NoError(t, s.Grant(goon, TraitUncoppable))

	e := newTestEngine(t, s, Options{})
	sum, err := e.RunNight(context.Background(), Submissions{sheriff: goon})
	require.NoError(t, err)

	assert.Equal(t, failed(), outcomeOf(t, sum, sheriff, CapCop))
	assert.Equal(t, Result{Success: true, Value: "Goon"}, outcomeOf(t, sum, sheriff, CapDetective))
}

func TestNight_BlockedDominatesStopper(t *testing.T) {
	s := NewStore()
	rb := s.CreatePlayer("rb", FactionTown, RoleRoleblocker)
	cop := s.CreatePlayer("cop", FactionTown, RoleCop)
	tracker := s.CreatePlayer("tracker", FactionTown, RoleTracker)
	goon := s.CreatePlayer("goon", FactionMafia, RoleGoon)

	e := newTestEngine(t, s, Options{})

	sum, err := e.RunNight(context.Background(), Submissions{rb: cop, cop: goon})
	require.NoError(t, err)
	assert.Equal(t, failed(), outcomeOf(t, sum, cop, CapCop))

	require.NoError(t, s.Grant(goon, TraitUntrackable))
	sum, err = e.RunNight(context.Background(), Submissions{rb: tracker, tracker: goon})
	require.NoError(t, err)
	assert.Equal(t, failed(), outcomeOf(t, sum, tracker, CapTrack))
}

func TestNight_UntrackableStopsTracker(t *testing.T) {
	s := NewStore()
	tracker := s.CreatePlayer("tracker", FactionTown, RoleTracker)
	watcher := s.CreatePlayer("watcher", FactionTown, RoleWatcher)
	goon := s.CreatePlayer("goon", FactionMafia, RoleGoon)
	v := s.CreatePlayer("v", FactionTown, RoleVanilla)
	require.NoError(t, s.Grant(goon, TraitUntrackable))

	e := newTestEngine(t, s, Options{})
	sum, err := e.RunNight(context.Background(), Submissions{tracker: goon, watcher: v, goon: v})
	require.NoError(t, err)

	assert.Equal(t, failed(), outcomeOf(t, sum, tracker, CapTrack))
	// 只挡追踪，不挡守望
	assert.Equal(t, Result{Success: true, Value: "watcher, goon"}, outcomeOf(t, sum, watcher, CapWatch))
}

func TestNight_CorruptInnocenceHaltsEngine(t *testing.T) {
	s := NewStore()
	cop := s.CreatePlayer("cop", FactionTown, RoleCop)
	v := s.CreatePlayer("v", FactionTown, RoleVanilla)

	p, _ := s.get(v)
	p.Innocence = Innocence(7)

	e := newTestEngine(t, s, Options{})
	_, err := e.RunNight(context.Background(), Submissions{cop: v})
	require.ErrorIs(t, err, ErrInvariant)

	var ie *InvariantError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, PhaseCop, ie.Phase)
	assert.Equal(t, v, ie.Player)

	_, err = e.RunNight(context.Background(), nil)
	require.ErrorIs(t, err, ErrEngineHalted)
}

func TestNight_CorruptRoleHaltsEngine(t *testing.T) {
	s := NewStore()
	det := s.CreatePlayer("det", FactionTown, RoleDetective)
	v := s.CreatePlayer("v", FactionTown, RoleVanilla)

	p, _ := s.get(v)
	p.Role = Role(99)

	e := newTestEngine(t, s, Options{})
	_, err := e.RunNight(context.Background(), Submissions{det: v})

	var ie *InvariantError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, PhaseDetective, ie.Phase)
	assert.Equal(t, v, ie.Player)
	assert.Nil(t, e.LastSummary())
}

func TestNight_BreakthroughIgnoresBlock(t *testing.T) {
	s := NewStore()
	rb := s.CreatePlayer("rb", FactionTown, RoleRoleblocker)
	cop := s.CreatePlayer("cop", FactionTown, RoleCop, ModifierBreakthrough)
	goon := s.CreatePlayer("goon", FactionMafia, RoleGoon)

	e := newTestEngine(t, s, Options{})
	sum, err := e.RunNight(context.Background(), Submissions{rb: cop, cop: goon})
	require.NoError(t, err)

	assert.Equal(t, failed(), outcomeOf(t, sum, rb, CapBlock))
	assert.Equal(t, Result{Success: true, Value: "Guilty"}, outcomeOf(t, sum, cop, CapCop))
	assert.Equal(t, goon, snapshot(t, s, cop).Position)
}

func TestNight_BlockWithoutTargetFails(t *testing.T) {
	s := NewStore()
	rb := s.CreatePlayer("rb", FactionTown, RoleRoleblocker)
	s.CreatePlayer("v", FactionTown, RoleVanilla)

	e := newTestEngine(t, s, Options{})
	sum, err := e.RunNight(context.Background(), Submissions{rb: Nobody})
	require.NoError(t, err)

	assert.Equal(t, failed(), outcomeOf(t, sum, rb, CapBlock))
	require.Len(t, sum.Reports, 1)
	assert.Equal(t, "nobody", sum.Reports[0].TargetName)
}

func TestNight_TrackerAndWatcher(t *testing.T) {
	s := NewStore()
	tracker := s.CreatePlayer("tracker", FactionTown, RoleTracker)
	watcher := s.CreatePlayer("watcher", FactionTown, RoleWatcher)
	cop := s.CreatePlayer("cop", FactionTown, RoleCop)
	doc := s.CreatePlayer("doc", FactionTown, RoleDoctor)
	v := s.CreatePlayer("v", FactionTown, RoleVanilla)
	goon := s.CreatePlayer("goon", FactionMafia, RoleGoon)

	e := newTestEngine(t, s, Options{})
	sum, err := e.RunNight(context.Background(), Submissions{
		tracker: v,
		watcher: v,
		cop:     v,
		doc:     v,
		goon:    cop,
	})
	require.NoError(t, err)

	assert.Equal(t, Result{Success: true, Value: "nowhere"}, outcomeOf(t, sum, tracker, CapTrack))
	// 守望者自己也去了目标家，不做特殊处理
	assert.Equal(t, Result{Success: true, Value: "tracker, watcher, cop, doc"}, outcomeOf(t, sum, watcher, CapWatch))

	sum, err = e.RunNight(context.Background(), Submissions{tracker: goon, watcher: goon, goon: doc})
	require.NoError(t, err)
	assert.Equal(t, Result{Success: true, Value: "doc"}, outcomeOf(t, sum, tracker, CapTrack))
	assert.Equal(t, Result{Success: true, Value: "tracker, watcher"}, outcomeOf(t, sum, watcher, CapWatch))
}

func TestNight_BlockedWatcherFails(t *testing.T) {
	s := NewStore()
	rb := s.CreatePlayer("rb", FactionTown, RoleRoleblocker)
	watcher := s.CreatePlayer("watcher", FactionTown, RoleWatcher)
	v := s.CreatePlayer("v", FactionTown, RoleVanilla)

	e := newTestEngine(t, s, Options{})
	sum, err := e.RunNight(context.Background(), Submissions{rb: watcher, watcher: v})
	require.NoError(t, err)

	assert.Equal(t, failed(), outcomeOf(t, sum, watcher, CapWatch))
}

func TestNight_MachoRefusesSave(t *testing.T) {
	s := NewStore()
	doc := s.CreatePlayer("doc", FactionTown, RoleDoctor)
	macho := s.CreatePlayer("macho", FactionTown, RoleVanilla, ModifierMacho)
	goon := s.CreatePlayer("goon", FactionMafia, RoleGoon)

	e := newTestEngine(t, s, Options{})
	passSetupNight(t, e)

	sum, err := e.RunNight(context.Background(), Submissions{doc: macho, goon: macho})
	require.NoError(t, err)

	assert.Equal(t, failed(), outcomeOf(t, sum, doc, CapSave))
	assert.Equal(t, succeeded(NotApplicable), outcomeOf(t, sum, goon, CapKill))
	assert.True(t, snapshot(t, s, macho).Died)
}

func TestNight_SavedTargetSurvives(t *testing.T) {
	s := NewStore()
	doc := s.CreatePlayer("doc", FactionTown, RoleDoctor)
	v := s.CreatePlayer("v", FactionTown, RoleVanilla)
	goon := s.CreatePlayer("goon", FactionMafia, RoleGoon)

	e := newTestEngine(t, s, Options{})
	passSetupNight(t, e)

	sum, err := e.RunNight(context.Background(), Submissions{doc: v, goon: v})
	require.NoError(t, err)

	assert.Equal(t, succeeded(NotApplicable), outcomeOf(t, sum, doc, CapSave))
	assert.Equal(t, failed(), outcomeOf(t, sum, goon, CapKill))
	assert.False(t, snapshot(t, s, v).Died)
	assert.Empty(t, sum.Deaths)
}

func TestNight_NoKillsOnSetupNight(t *testing.T) {
	s := NewStore()
	goon := s.CreatePlayer("goon", FactionMafia, RoleGoon)
	gf := s.CreatePlayer("gf", FactionMafia, RoleGodfather)
	v := s.CreatePlayer("v", FactionTown, RoleVanilla)

	e := newTestEngine(t, s, Options{})
	sum, err := e.RunNight(context.Background(), Submissions{goon: v, gf: v})
	require.NoError(t, err)

	assert.Equal(t, failed(), outcomeOf(t, sum, goon, CapKill))
	assert.Equal(t, failed(), outcomeOf(t, sum, gf, CapKill))
	assert.False(t, snapshot(t, s, v).Died)
}

func TestNight_SetupNightKillsWhenConfigured(t *testing.T) {
	s := NewStore()
	goon := s.CreatePlayer("goon", FactionMafia, RoleGoon)
	v := s.CreatePlayer("v", FactionTown, RoleVanilla)

	e := newTestEngine(t, s, Options{SetupNightKills: true})
	sum, err := e.RunNight(context.Background(), Submissions{goon: v})
	require.NoError(t, err)

	assert.Equal(t, succeeded(NotApplicable), outcomeOf(t, sum, goon, CapKill))
	assert.Equal(t, 0, snapshot(t, s, v).DiedOn)
}

func TestNight_FirstKillWins(t *testing.T) {
	s := NewStore()
	goon := s.CreatePlayer("goon", FactionMafia, RoleGoon)
	gf := s.CreatePlayer("gf", FactionMafia, RoleGodfather)
	v := s.CreatePlayer("v", FactionTown, RoleVanilla)

	e := newTestEngine(t, s, Options{})
	passSetupNight(t, e)

	sum, err := e.RunNight(context.Background(), Submissions{goon: v, gf: v})
	require.NoError(t, err)

	assert.True(t, outcomeOf(t, sum, goon, CapKill).Success)
	assert.True(t, outcomeOf(t, sum, gf, CapKill).Success)
	assert.Len(t, sum.Deaths, 1)
	assert.Equal(t, 1, snapshot(t, s, v).DiedOn)
}

func TestNight_InactiveActionFails(t *testing.T) {
	s := NewStore()
	cop := s.CreatePlayer("cop", FactionTown, RoleCop)
	s.CreatePlayer("goon", FactionMafia, RoleGoon)

	e := newTestEngine(t, s, Options{})
	sum, err := e.RunNight(context.Background(), Submissions{})
	require.NoError(t, err)

	assert.Equal(t, failed(), outcomeOf(t, sum, cop, CapCop))
	assert.Equal(t, Nobody, snapshot(t, s, cop).Target)
}
