package main

// handleRequestItem withdraws items from a building into the caller's
// unit. The transfer itself is the host-originated takeItems.
func handleRequestItem(hc *HandlerContext, args RequestItemArgs) error {
	p := hc.Player
	b := hc.World.BuildAt(args.Build)
	if p == nil || b == nil || !b.Interactable(p.Team) || p.Dead() || args.Amount <= 0 ||
		!hc.World.Content.HasItem(args.Item) || !p.Within(b.Center(), hc.World.Rules.ItemTransferRange) {
		hc.Ignore()
		return nil
	}
	if hc.Authoritative() {
		if !canInteract(p, b) {
			return hc.Fault(ActionWithdrawItem, "cannot withdraw from another team")
		}
		desc := newDesc(ActionWithdrawItem, p)
		desc.Tile = b.Pos()
		desc.Item = args.Item
		desc.Amount = args.Amount
		if err := hc.Check(desc); err != nil {
			return err
		}
	}

	u := p.Unit()
	taken := min(b.Items[args.Item], u.MaxAccepted(args.Item), args.Amount)
	if taken <= 0 {
		hc.Ignore()
		return nil
	}
	carried := 0
	if u.Stack.Item == args.Item {
		carried = u.Stack.Amount
	}
	hc.Emit(ActTakeItems, TakeItemsArgs{
		Build:       b.Pos(),
		Item:        args.Item,
		Amount:      taken,
		To:          u.ID,
		BuildAmount: b.Items[args.Item] - taken,
		UnitAmount:  carried + taken,
	})
	hc.Notify(&ItemEvent{
		BaseEvent: BaseEvent{Kind: EventWithdraw, Player: p},
		Build:     b,
		Unit:      u,
		Item:      args.Item,
		Amount:    taken,
	})
	return nil
}

// handleTakeItems applies the counts the host computed. A repeated
// delivery finds them already in place and changes nothing.
func handleTakeItems(hc *HandlerContext, args TakeItemsArgs) error {
	b := hc.World.BuildAt(args.Build)
	u := hc.World.Unit(args.To)
	if b == nil || u == nil || args.Item == "" {
		hc.Ignore()
		return nil
	}
	if b.Items[args.Item] == args.BuildAmount && u.Stack == (ItemStack{Item: args.Item, Amount: args.UnitAmount}) {
		hc.Ignore()
		return nil
	}
	b.SetItem(args.Item, args.BuildAmount)
	u.SetStack(args.Item, args.UnitAmount)
	hc.Emit(ActTransferItemEffect, TransferItemEffectArgs{Item: args.Item, From: b.Center(), To: u.ID})
	return nil
}

// handleTransferInventory deposits the caller's whole stack into a building
func handleTransferInventory(hc *HandlerContext, args TransferInventoryArgs) error {
	p := hc.Player
	b := hc.World.BuildAt(args.Build)
	rules := hc.World.Rules
	if p == nil || b == nil || !b.HasItems() || p.Dead() ||
		!p.Within(b.Center(), rules.ItemTransferRange) || (rules.OnlyDepositCore && !b.Block.Core) {
		hc.Ignore()
		return nil
	}
	u := p.Unit()
	if hc.Authoritative() {
		switch {
		case u.Stack.Amount <= 0:
			return hc.Fault(ActionDepositItem, "nothing to deposit")
		case !canInteract(p, b):
			return hc.Fault(ActionDepositItem, "cannot deposit into another team")
		case hc.Remote() && !p.AllowDeposit():
			return hc.Fault(ActionDepositItem, "depositing too fast")
		}
		desc := newDesc(ActionDepositItem, p)
		desc.Tile = b.Pos()
		desc.Item = u.Stack.Item
		desc.Amount = u.Stack.Amount
		if err := hc.Check(desc); err != nil {
			return err
		}
	}

	item := u.Stack.Item
	accepted := b.AcceptStack(item, u.Stack.Amount)
	hc.Emit(ActTransferItemTo, TransferItemToArgs{
		Unit:        u.ID,
		Item:        item,
		Amount:      accepted,
		From:        u.Pos,
		Build:       b.Pos(),
		BuildAmount: b.Items[item] + accepted,
		UnitAmount:  u.Stack.Amount - accepted,
	})
	hc.Notify(&ItemEvent{
		BaseEvent: BaseEvent{Kind: EventDeposit, Player: p},
		Build:     b,
		Unit:      u,
		Item:      item,
		Amount:    accepted,
	})
	return nil
}

func handleTransferItemTo(hc *HandlerContext, args TransferItemToArgs) error {
	b := hc.World.BuildAt(args.Build)
	if b == nil || !b.HasItems() || args.Item == "" {
		hc.Ignore()
		return nil
	}
	u := hc.World.Unit(args.Unit)
	unitDone := u == nil || u.Stack == (ItemStack{Item: args.Item, Amount: args.UnitAmount}) ||
		(args.UnitAmount == 0 && u.Stack.Amount == 0)
	if b.Items[args.Item] == args.BuildAmount && unitDone {
		hc.Ignore()
		return nil
	}
	if u != nil {
		u.SetStack(args.Item, args.UnitAmount)
	}
	b.SetItem(args.Item, args.BuildAmount)
	return nil
}

// handleTransferItemEffect carries no state; clients draw the transfer
func handleTransferItemEffect(hc *HandlerContext, args TransferItemEffectArgs) error {
	if hc.World.Unit(args.To) == nil {
		hc.Ignore()
	}
	return nil
}

func handleDropItem(hc *HandlerContext, args DropItemArgs) error {
	p := hc.Player
	if p == nil || p.Dead() {
		hc.Ignore()
		return nil
	}
	u := p.Unit()
	if hc.Authoritative() {
		if u.Stack.Amount <= 0 {
			return hc.Fault(ActionDropItem, "nothing to drop")
		}
		desc := newDesc(ActionDropItem, p)
		desc.Item = u.Stack.Item
		desc.Amount = u.Stack.Amount
		if err := hc.Check(desc); err != nil {
			return err
		}
	}
	u.ClearItem()
	return nil
}
