package hive

// HeatingMode is the mode of a hot water or heating zone as the session reports it
type HeatingMode string

const (
	ModeOn       HeatingMode = "ON"
	ModeOff      HeatingMode = "OFF"
	ModeSchedule HeatingMode = "SCHEDULE"
	ModeManual   HeatingMode = "MANUAL"
	ModeBoost    HeatingMode = "BOOST" // on, but only for a limited time
)

// Modes lists every HeatingMode
var Modes = []HeatingMode{ModeOn, ModeOff, ModeSchedule, ModeManual, ModeBoost}

// ToRequestValue translates a mode into what the server accepts on write.
// There is no "on" on the wire, sustained on is manual mode.
func ToRequestValue(mode HeatingMode) HeatingMode {
	if mode == ModeOn {
		return ModeManual
	}
	return mode
}

// Active reports whether a switch bound to this mode should show as on
func (m HeatingMode) Active() bool {
	return m == ModeOn || m == ModeManual || m == ModeBoost
}

// Valid reports whether m is one of the known modes
func (m HeatingMode) Valid() bool {
	for _, v := range Modes {
		if m == v {
			return true
		}
	}
	return false
}
