package hotkey

// Event is a press or release edge for a registered combo.
type Event struct {
	ID      int
	Pressed bool
}

// Detector turns a stream of raw key transitions into combo edges.
// It is a plain state machine with no OS dependencies; the platform
// listener feeds it and dispatches the events it returns. Not safe for
// concurrent use.
type Detector struct {
	combos map[int]Combo
	ids    []int
	mods   uint32
	down   map[uint32]bool
	active map[int]bool
}

func NewDetector(combos map[int]Combo) *Detector {
	return &Detector{
		combos: combos,
		ids:    sortedIDs(combos),
		down:   make(map[uint32]bool),
		active: make(map[int]bool),
	}
}

// Update records one key transition and returns the combo edges it
// produced. A combo presses when its modifiers and all its keys are
// held, and releases as soon as any of them goes up. Key repeats
// (down while already down) produce no edges.
func (d *Detector) Update(vk uint32, pressed bool) []Event {
	if bit := modBit(vk); bit != 0 {
		if pressed {
			d.mods |= bit
		} else {
			d.mods &^= bit
		}
	} else {
		if pressed && d.down[vk] {
			return nil
		}
		if pressed {
			d.down[vk] = true
		} else {
			delete(d.down, vk)
		}
	}

	var events []Event
	for _, id := range d.ids {
		satisfied := d.satisfied(d.combos[id])
		switch {
		case satisfied && !d.active[id]:
			d.active[id] = true
			events = append(events, Event{ID: id, Pressed: true})
		case !satisfied && d.active[id]:
			delete(d.active, id)
			events = append(events, Event{ID: id, Pressed: false})
		}
	}
	return events
}

// Owns reports whether vk is a non-modifier key of some registered
// combo. The listener uses this to decide which events to swallow.
func (d *Detector) Owns(vk uint32) bool {
	for _, c := range d.combos {
		for _, k := range c.Keys {
			if k == vk {
				return true
			}
		}
	}
	return false
}

// ShouldSwallow reports whether a transition of vk belongs to a combo
// whose modifiers are currently held, so the listener can keep the key
// from reaching the focused window.
func (d *Detector) ShouldSwallow(vk uint32) bool {
	for _, c := range d.combos {
		if d.mods&c.Mods != c.Mods {
			continue
		}
		for _, k := range c.Keys {
			if k == vk {
				return true
			}
		}
	}
	return false
}

func (d *Detector) satisfied(c Combo) bool {
	if d.mods&c.Mods != c.Mods {
		return false
	}
	for _, k := range c.Keys {
		if !d.down[k] {
			return false
		}
	}
	return true
}
