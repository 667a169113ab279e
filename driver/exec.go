package driver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/droverhq/drover"
	"github.com/droverhq/drover/id"
	"github.com/droverhq/drover/workflow"
)

// runState turns one state definition into a running attempt: it merges
// the optional argument overrides onto the base fragments, launches the
// containers, and appends a new started StateInstance to the run.
//
// Exactly one backend start call and exactly one append per invocation.
// Retrying is the caller's operation; runState never retries.
func (d *Driver) runState(ctx context.Context, st *workflow.State, args []string) error {
	cmdArgs := st.CmdArgs
	if len(args) > 0 {
		if len(args) != len(st.CmdArgs) {
			return &InvalidArgumentsError{State: st.Name, Want: len(st.CmdArgs), Got: len(args)}
		}
		merged := make([]string, len(st.CmdArgs))
		for i, base := range st.CmdArgs {
			merged[i] = base + " " + args[i]
		}
		cmdArgs = merged
	}

	containers, err := d.svc.StartContainers(ctx, st.ExecEnv, st.PackageName, cmdArgs, st.Timeout)
	if err != nil {
		return fmt.Errorf("drover: start containers for state %q: %w", st.Name, err)
	}

	si := &workflow.StateInstance{
		Entity:     drover.NewEntity(),
		ID:         id.NewStateInstanceID(),
		StateName:  st.Name,
		Containers: containers,
		Status:     workflow.StateStarted,
		RetryNum:   d.inst.AttemptCount(st.Name),
	}
	d.inst.Append(si)
	d.inst.Touch()

	d.logger.Info("state started",
		slog.String("instance_id", d.inst.ID.String()),
		slog.String("state", st.Name),
		slog.Int("retry_num", si.RetryNum),
		slog.Int("containers", len(containers)),
	)
	d.emitter.EmitStateStarted(ctx, d.inst, si)
	return nil
}
