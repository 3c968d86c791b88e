package night

import (
	"errors"
	"fmt"
)

var (
	// 调度器或数据模型出错，整晚必须中止
	ErrInvariant = errors.New("night invariant violated")

	ErrEngineHalted      = errors.New("engine halted after an aborted night")
	ErrNightInFlight     = errors.New("another night is already resolving")
	ErrInvalidSubmission = errors.New("invalid target submission")
	ErrUnknownPlayer     = errors.New("unknown player")
	ErrDuplicateName     = errors.New("duplicate player name")
	ErrUnknownValue      = errors.New("unknown value")

	ErrDuplicatePhase    = errors.New("duplicate phase")
	ErrUnknownDependency = errors.New("unknown phase dependency")
	ErrPhaseCycle        = errors.New("phase dependency cycle")
)

// InvariantError 描述一次违反不变式的具体位置
type InvariantError struct {
	Phase  string
	Player PlayerID
	Reason string
}

func (e *InvariantError) Error() string {
	if e.Player == Nobody {
		return fmt.Sprintf("%s: %s", e.Phase, e.Reason)
	}
	return fmt.Sprintf("%s: player %d: %s", e.Phase, e.Player, e.Reason)
}

// Is 让 errors.Is(err, ErrInvariant) 对所有 InvariantError 成立
func (e *InvariantError) Is(target error) bool {
	return target == ErrInvariant
}

func invariant(phase string, player PlayerID, format string, args ...any) error {
	return &InvariantError{
		Phase:  phase,
		Player: player,
		Reason: fmt.Sprintf(format, args...),
	}
}
