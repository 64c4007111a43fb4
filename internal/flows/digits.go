package flows

// DigitCount is the fixed width of the time-based code entry.
const DigitCount = 6

// DigitEntry models the six fixed-width code slots plus the focused position.
// Slot zero value means empty; filled slots hold ASCII digits.
type DigitEntry struct {
	Slots [DigitCount]byte
	Focus int
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// Set writes one digit into an explicit slot and advances focus past it.
// Non-digit input is rejected without state change.
func (d *DigitEntry) Set(pos int, c byte) bool {
	if pos < 0 || pos >= DigitCount || !isDigit(c) {
		return false
	}
	d.Slots[pos] = c
	if pos+1 < DigitCount {
		d.Focus = pos + 1
	} else {
		d.Focus = DigitCount - 1
	}
	return true
}

// Input writes one digit at the focused slot.
func (d *DigitEntry) Input(c byte) bool {
	return d.Set(d.Focus, c)
}

// Backspace clears the focused slot, or the previous one when the focused
// slot is already empty, and moves focus there.
func (d *DigitEntry) Backspace() {
	if d.Slots[d.Focus] != 0 {
		d.Slots[d.Focus] = 0
		return
	}
	if d.Focus > 0 {
		d.Focus--
		d.Slots[d.Focus] = 0
	}
}

// Paste fans a multi-character string out across the slots starting at the
// focused position. Only digit characters are consumed; anything past the
// last slot is ignored. Focus lands on the first empty slot, or the last
// slot when the paste filled all six.
func (d *DigitEntry) Paste(s string) {
	pos := d.Focus
	for i := 0; i < len(s) && pos < DigitCount; i++ {
		if !isDigit(s[i]) {
			continue
		}
		d.Slots[pos] = s[i]
		pos++
	}
	d.Focus = d.firstEmpty()
}

func (d *DigitEntry) firstEmpty() int {
	for i := 0; i < DigitCount; i++ {
		if d.Slots[i] == 0 {
			return i
		}
	}
	return DigitCount - 1
}

// Clear empties every slot and resets focus.
func (d *DigitEntry) Clear() {
	*d = DigitEntry{}
}

// Complete reports whether all six slots are filled.
func (d *DigitEntry) Complete() bool {
	for _, c := range d.Slots {
		if c == 0 {
			return false
		}
	}
	return true
}

// Code returns the concatenated digits of the filled slots.
func (d *DigitEntry) Code() string {
	out := make([]byte, 0, DigitCount)
	for _, c := range d.Slots {
		if c != 0 {
			out = append(out, c)
		}
	}
	return string(out)
}
