package collection

import (
	"commhub/models"
)

// ApplyEvent merges one push event into the displayed page. The channel is
// at-least-once: events whose sequence number is not greater than the last
// applied one are dropped, which also absorbs echoes of local optimistic
// mutations. Returns true when the event is accepted, i.e. it consumed a
// fresh sequence number — even if nothing on the displayed page changed.
// Duplicates, unknown types and other collections return false.
func (v *View[T]) ApplyEvent(evt models.PushEvent) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if evt.Collection != v.name {
		return false
	}
	if evt.Seq <= v.lastSeq {
		v.log.Debug("Dropping duplicate/out-of-order event seq=%d (last=%d)", evt.Seq, v.lastSeq)
		return false
	}

	kind := evt.Kind()
	if kind == models.KindUnknown {
		v.log.Warn("Dropping event with unknown type %q", evt.Type)
		return false
	}

	v.lastSeq = evt.Seq
	if v.checkpoints != nil {
		if err := v.checkpoints.SaveCheckpoint(v.name, evt.Seq); err != nil {
			v.log.Warn("Failed to save sequence checkpoint: %v", err)
		}
	}

	if !v.hasPage {
		// Nothing displayed yet; the first fetch will pick up the change.
		return true
	}

	switch kind {
	case models.KindCreated:
		v.applyCreated(evt)
	case models.KindUpdated:
		v.applyUpdated(evt)
	case models.KindDeleted:
		v.applyDeleted(evt)
	case models.KindStatusChanged:
		v.applyStatusChanged(evt)
	}
	return true
}

// applyCreated prepends the new item when page 1 is displayed, evicting the
// last item to preserve the page size. The total count grows regardless of
// the displayed page.
func (v *View[T]) applyCreated(evt models.PushEvent) {
	v.page.TotalCount++
	v.query.setTotal(v.page.TotalCount)

	item, ok := v.extract(evt)
	if !ok {
		v.log.Warn("Created event seq=%d carried no record payload", evt.Seq)
		return
	}

	if v.page.Page == 1 {
		items := append([]T{item}, v.page.Items...)
		if len(items) > v.page.PageSize {
			items = items[:v.page.PageSize]
		}
		v.page.Items = items
	}
}

// applyUpdated replaces the item in place when it is on the displayed page.
// Otherwise it is a no-op: navigating to its page will fetch the new value.
func (v *View[T]) applyUpdated(evt models.PushEvent) {
	item, ok := v.extract(evt)
	if !ok {
		v.log.Warn("Updated event seq=%d carried no record payload", evt.Seq)
		return
	}
	for i := range v.page.Items {
		if v.page.Items[i].ItemID() == item.ItemID() {
			v.page.Items[i] = item
			return
		}
	}
}

// applyDeleted removes the item and decrements the count. The page is left
// short until the next fetch; there is no auto-backfill, so bulk deletes do
// not cascade into a fetch storm.
func (v *View[T]) applyDeleted(evt models.PushEvent) {
	id := evt.SubjectID()
	for i := range v.page.Items {
		if v.page.Items[i].ItemID() == id {
			v.page.Items = append(v.page.Items[:i], v.page.Items[i+1:]...)
			if v.page.TotalCount > 0 {
				v.page.TotalCount--
			}
			v.query.setTotal(v.page.TotalCount)
			return
		}
	}
}

// applyStatusChanged patches fields on the matching item only. Count is never
// affected.
func (v *View[T]) applyStatusChanged(evt models.PushEvent) {
	id := evt.SubjectID()
	for i := range v.page.Items {
		if v.page.Items[i].ItemID() == id {
			v.patch(&v.page.Items[i], evt)
			return
		}
	}
}
