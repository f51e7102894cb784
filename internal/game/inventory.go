package game

import (
	"context"

	"wildcraft/internal/inventory"
	"wildcraft/internal/live"
)

// ListInventory returns the stacks of a player the caller owns.
func (e *Engine) ListInventory(ctx context.Context, userID, playerID string) ([]inventory.Stack, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	p, ok, err := e.Players.Get(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPlayerNotFound
	}
	if p.UserID != userID {
		return nil, ErrForbidden
	}
	return e.Inventory.List(ctx, playerID)
}

func (e *Engine) GrantItems(ctx context.Context, userID, playerID string, items []inventory.Line) error {
	p, unlockFn, err := e.lockOwnedPlayer(ctx, userID, playerID)
	if err != nil {
		return err
	}
	defer unlockFn()

	if err := e.Inventory.Grant(ctx, p.ID, items, e.now()); err != nil {
		return err
	}
	e.notify(live.PlayerScope(p.ID), "inventory")
	return nil
}

// ConsumeItems debits all lines or none.
func (e *Engine) ConsumeItems(ctx context.Context, userID, playerID string, items []inventory.Line) error {
	p, unlockFn, err := e.lockOwnedPlayer(ctx, userID, playerID)
	if err != nil {
		return err
	}
	defer unlockFn()

	if err := e.Inventory.Consume(ctx, p.ID, items, e.now()); err != nil {
		return err
	}
	e.notify(live.PlayerScope(p.ID), "inventory")
	return nil
}
