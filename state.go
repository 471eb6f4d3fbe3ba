package artifact

import (
	"context"

	"github.com/aicell-lab/hypha-artifact/artifacttypes"
	"github.com/aicell-lab/hypha-artifact/errors"
)

// Edit updates the artifact metadata. With Stage set the changes go to the
// staged version until Commit or Discard.
func (c *Client) Edit(ctx context.Context, req artifacttypes.EditRequest) error {
	state, err := c.stateService("edit")
	if err != nil {
		return err
	}
	return state.Edit(ctx, req)
}

// Commit finalizes the staged manifest and files. An empty version lets the
// server pick one.
func (c *Client) Commit(ctx context.Context, version, comment string) error {
	state, err := c.stateService("commit")
	if err != nil {
		return err
	}
	return state.Commit(ctx, version, comment)
}

// Discard drops all staged changes.
func (c *Client) Discard(ctx context.Context) error {
	state, err := c.stateService("discard")
	if err != nil {
		return err
	}
	return state.Discard(ctx)
}

// stateService returns the service as a StateService when it is one
//
//nolint:ireturn // the state surface is optional on custom services.
func (c *Client) stateService(op string) (artifacttypes.StateService, error) {
	state, ok := c.svc.(artifacttypes.StateService)
	if !ok {
		return nil, errors.NewConfigError(op, errors.ErrUnsupported)
	}
	return state, nil
}
