package night

import "context"

// infoAction 描述一类情报行动：用哪种能力、公开目标的哪个属性、被哪种标记阻止
type infoAction struct {
	phase      string
	capability Capability
	stopper    Trait
	disclose   func(nc *NightContext, target *Player) (string, error)
}

var (
	copAction = infoAction{
		phase:      PhaseCop,
		capability: CapCop,
		stopper:    TraitUncoppable,
		disclose:   discloseInnocence,
	}
	detectiveAction = infoAction{
		phase:      PhaseDetective,
		capability: CapDetective,
		stopper:    TraitUndetectable,
		disclose:   discloseRole,
	}
	trackAction = infoAction{
		phase:      PhaseTrack,
		capability: CapTrack,
		stopper:    TraitUntrackable,
		disclose:   disclosePosition,
	}
)

// resolve 的判定顺序：未激活 -> 被封锁 -> 无目标 -> 目标有对应阻止标记 -> 成功
func (ia infoAction) resolve(_ context.Context, nc *NightContext) error {
	for _, ac := range nc.store.actorsWith(ia.capability) {
		res, err := ia.evaluate(nc, ac)
		if err != nil {
			return err
		}
		if err := nc.results.put(ia.phase, ac.player.ID, ia.capability, res); err != nil {
			return err
		}
	}
	return nil
}

func (ia infoAction) evaluate(nc *NightContext, ac actor) (Result, error) {
	switch {
	case !ac.action.Active():
		return failed(), nil
	case nc.effects.has(EffectBlocked, ac.player.ID):
		return failed(), nil
	case ac.action.Target() == Nobody:
		return failed(), nil
	}

	target, err := nc.store.mustGet(ia.phase, ac.action.Target())
	if err != nil {
		return Result{}, err
	}
	if target.Traits.Has(ia.stopper) {
		return failed(), nil
	}

	value, err := ia.disclose(nc, target)
	if err != nil {
		return Result{}, err
	}
	return succeeded(value), nil
}

func discloseInnocence(_ *NightContext, target *Player) (string, error) {
	switch target.Innocence {
	case Innocent, Guilty:
		return target.Innocence.String(), nil
	default:
		return "", invariant(PhaseCop, target.ID, "target has no innocence")
	}
}

func discloseRole(_ *NightContext, target *Player) (string, error) {
	if !target.Role.valid() {
		return "", invariant(PhaseDetective, target.ID, "target has no role")
	}
	return target.Role.String(), nil
}

// disclosePosition 公开目标当晚去了哪里，没有出门则为 "nowhere"
func disclosePosition(nc *NightContext, target *Player) (string, error) {
	if target.Position == Nobody {
		return "nowhere", nil
	}
	visited, err := nc.store.mustGet(PhaseTrack, target.Position)
	if err != nil {
		return "", err
	}
	return visited.Name, nil
}
