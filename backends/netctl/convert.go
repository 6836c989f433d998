package netctl

import "rwchcd-core/iotypes"

func temperatureFromWire(tr *TemperatureReading) iotypes.Temperature {
	if tr == nil {
		return iotypes.TempInvalidVal()
	}
	switch tr.State {
	case "ok":
		return iotypes.TempValue(tr.Value)
	case "short":
		return iotypes.TempShortCirc()
	case "disconnected":
		return iotypes.TempOpenCirc()
	case "unset":
		return iotypes.TempUnsetVal()
	default:
		return iotypes.TempInvalidVal()
	}
}
