package models

// AlertMode is the display mode derived from the latest valid reading.
type AlertMode int

const (
	AlertNormal AlertMode = iota
	AlertHighHumidity
	AlertHighTemperature
	AlertFlood
)

// String returns the mode name used in logs.
func (m AlertMode) String() string {
	switch m {
	case AlertNormal:
		return "normal"
	case AlertHighHumidity:
		return "high_humidity"
	case AlertHighTemperature:
		return "high_temperature"
	case AlertFlood:
		return "flood_alert"
	default:
		return "unknown"
	}
}
