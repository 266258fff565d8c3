package growth

import (
	"context"
	"sync"

	"oncosim/internal/sim"
	"oncosim/internal/treatment"
)

// Arm is one counterfactual treatment branch in a comparison run.
type Arm struct {
	Name string
	Kind treatment.Kind
}

// ArmResult carries the daily trajectory and endpoint of one arm.
type ArmResult struct {
	Arm        Arm
	Trajectory []sim.Point
	Final      sim.State
	FinalStage Stage
	Err        error
}

// CompareTreatments runs each arm on an independent clone of the base engine
// for the given number of days, sampling daily. Arms run concurrently; the
// base engine is never mutated.
func CompareTreatments(ctx context.Context, base *Engine, arms []Arm, days int) []ArmResult {
	results := make([]ArmResult, len(arms))

	var wg sync.WaitGroup
	for i, arm := range arms {
		wg.Add(1)
		go func(idx int, arm Arm) {
			defer wg.Done()
			results[idx] = runArm(ctx, base.Clone(), arm, days)
		}(i, arm)
	}
	wg.Wait()

	return results
}

func runArm(ctx context.Context, eng *Engine, arm Arm, days int) ArmResult {
	res := ArmResult{
		Arm:        arm,
		Trajectory: make([]sim.Point, 0, days+1),
	}

	eng.SetTreatment(arm.Kind)
	res.Trajectory = append(res.Trajectory, sim.Point{Time: eng.CurrentTime(), State: sim.State{eng.SensitiveVolume(), eng.ResistantVolume()}})

	for day := 0; day < days; day++ {
		select {
		case <-ctx.Done():
			res.Err = ctx.Err()
			return res
		default:
		}

		if err := eng.Simulate(1.0); err != nil {
			res.Err = err
			return res
		}
		res.Trajectory = append(res.Trajectory, sim.Point{
			Time:  eng.CurrentTime(),
			State: sim.State{eng.SensitiveVolume(), eng.ResistantVolume()},
		})
	}

	res.Final = sim.State{eng.SensitiveVolume(), eng.ResistantVolume()}
	res.FinalStage = eng.Stage()
	return res
}
