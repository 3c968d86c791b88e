package night

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

const (
	PhaseAssignTargets = "assign_targets"
	PhaseBlock         = "block_actions"
	PhaseVisits        = "update_visits"
	PhaseCop           = "cop_actions"
	PhaseDetective     = "detective_actions"
	PhaseTrack         = "track_actions"
	PhaseWatch         = "watch_actions"
	PhaseSave          = "save_actions"
	PhaseKill          = "kill_actions"
	PhaseReport        = "report_results"
	PhaseCleanup       = "clear_effects"
	PhaseDeaths        = "process_deaths"
	PhaseAdvance       = "advance_night"
)

// DefaultPhases 声明完整夜晚的因果顺序
//
// 被封锁的访问者不会移动，所以 update_visits 必须在 block_actions 之后。
func DefaultPhases() []Phase {
	return []Phase{
		{Name: PhaseAssignTargets, Run: assignTargets},
		{Name: PhaseBlock, After: []string{PhaseAssignTargets}, Run: resolveBlocks},
		{Name: PhaseVisits, After: []string{PhaseBlock}, Run: updateVisits},
		{Name: PhaseCop, After: []string{PhaseVisits}, Run: copAction.resolve},
		{Name: PhaseDetective, After: []string{PhaseVisits}, Run: detectiveAction.resolve},
		{Name: PhaseTrack, After: []string{PhaseVisits}, Run: trackAction.resolve},
		{Name: PhaseWatch, After: []string{PhaseVisits}, Run: resolveWatches},
		{Name: PhaseSave, After: []string{PhaseVisits}, Run: resolveSaves},
		{Name: PhaseKill, After: []string{PhaseCop, PhaseDetective, PhaseTrack, PhaseWatch, PhaseSave}, Run: resolveKills},
		{Name: PhaseReport, After: []string{PhaseKill}, Run: reportResults},
		{Name: PhaseCleanup, After: []string{PhaseReport}, Run: clearEffects},
		{Name: PhaseDeaths, After: []string{PhaseCleanup}, Run: processDeaths},
		{Name: PhaseAdvance, After: []string{PhaseDeaths}, Run: advanceNight},
	}
}

// assignTargets 把提交的目标写入每名在场玩家；没有提交的玩家当晚行动不激活
func assignTargets(_ context.Context, nc *NightContext) error {
	for _, p := range nc.store.players {
		if !p.InPlay() {
			continue
		}

		target, submitted := nc.submissions[p.ID]
		if !submitted {
			target = Nobody
		}
		if target != Nobody {
			if _, err := nc.store.mustGet(PhaseAssignTargets, target); err != nil {
				return err
			}
		}

		p.Target = target
		for _, a := range p.actions {
			if submitted {
				a.arm(target)
			} else {
				a.disarm()
			}
		}
	}
	return nil
}

func resolveBlocks(_ context.Context, nc *NightContext) error {
	if n := nc.effects.count(EffectBlocked); n != 0 {
		return invariant(PhaseBlock, Nobody, "%d Blocked flags leaked from a previous night", n)
	}

	for _, ac := range nc.store.actorsWith(CapBlock) {
		res := failed()

		if ac.action.Active() && ac.action.Target() != Nobody {
			target, err := nc.store.mustGet(PhaseBlock, ac.action.Target())
			if err != nil {
				return err
			}
			// Breakthrough 免疫封锁
			if !target.Traits.Has(TraitBreakthrough) {
				nc.effects.set(EffectBlocked, target.ID)
				res = succeeded(NotApplicable)
			}
		}

		if err := nc.results.put(PhaseBlock, ac.player.ID, CapBlock, res); err != nil {
			return err
		}
	}
	return nil
}

func updateVisits(_ context.Context, nc *NightContext) error {
	for _, p := range nc.store.players {
		if !p.InPlay() {
			continue
		}
		switch {
		case !p.Traits.Has(TraitVisiting):
			p.Position = Nobody
		case nc.effects.has(EffectBlocked, p.ID):
			p.Position = Nobody
		default:
			p.Position = p.Target
		}
	}
	return nil
}

// resolveWatches 公布当晚位置等于目标的所有在场玩家
func resolveWatches(_ context.Context, nc *NightContext) error {
	for _, ac := range nc.store.actorsWith(CapWatch) {
		res := failed()

		target := ac.action.Target()
		if ac.action.Active() && !nc.effects.has(EffectBlocked, ac.player.ID) && target != Nobody {
			if _, err := nc.store.mustGet(PhaseWatch, target); err != nil {
				return err
			}

			var visitors []string
			for _, p := range nc.store.players {
				if p.InPlay() && p.Position == target {
					visitors = append(visitors, p.Name)
				}
			}

			value := "nobody"
			if len(visitors) > 0 {
				value = strings.Join(visitors, ", ")
			}
			res = succeeded(value)
		}

		if err := nc.results.put(PhaseWatch, ac.player.ID, CapWatch, res); err != nil {
			return err
		}
	}
	return nil
}

func resolveSaves(_ context.Context, nc *NightContext) error {
	if n := nc.effects.count(EffectSaved); n != 0 {
		return invariant(PhaseSave, Nobody, "%d Saved flags leaked from a previous night", n)
	}

	for _, ac := range nc.store.actorsWith(CapSave) {
		res := failed()

		if ac.action.Active() && !nc.effects.has(EffectBlocked, ac.player.ID) && ac.action.Target() != Nobody {
			target, err := nc.store.mustGet(PhaseSave, ac.action.Target())
			if err != nil {
				return err
			}
			// Macho 拒绝保护
			if !target.Traits.Has(TraitMacho) {
				nc.effects.set(EffectSaved, target.ID)
				res = succeeded(NotApplicable)
			}
		}

		if err := nc.results.put(PhaseSave, ac.player.ID, CapSave, res); err != nil {
			return err
		}
	}
	return nil
}

func resolveKills(_ context.Context, nc *NightContext) error {
	setup := nc.Night == 0 && !nc.opts.SetupNightKills

	for _, ac := range nc.store.actorsWith(CapKill) {
		res := failed()

		if !setup && ac.action.Active() && ac.action.Target() != Nobody {
			target, err := nc.store.mustGet(PhaseKill, ac.action.Target())
			if err != nil {
				return err
			}
			if !nc.effects.has(EffectSaved, target.ID) {
				// 第一次击杀生效，重复击杀不改写死亡夜晚
				if !target.Died {
					target.Died = true
					target.DiedOn = nc.Night
				}
				res = succeeded(NotApplicable)
			}
		}

		if err := nc.results.put(PhaseKill, ac.player.ID, CapKill, res); err != nil {
			return err
		}
	}
	return nil
}

func clearEffects(_ context.Context, nc *NightContext) error {
	nc.effects.reset()
	return nil
}

// processDeaths 幂等：已经 LongDead 的玩家不会被再次处理
func processDeaths(_ context.Context, nc *NightContext) error {
	for _, p := range nc.store.players {
		if !p.DiedTonight() {
			continue
		}
		p.LongDead = true
		p.Target = Nobody
		p.Position = Nobody
		for _, a := range p.actions {
			a.disarm()
		}

		nc.logger.Debug(
			"玩家死亡已处理",
			zap.Int("night", nc.Night),
			zap.String("player", p.Name),
		)
	}
	return nil
}

func advanceNight(_ context.Context, nc *NightContext) error {
	nc.advance()
	return nil
}
