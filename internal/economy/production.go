package economy

// SecondsPerHour converts hourly rates into per-second amounts.
const SecondsPerHour = 3600.0

// Accrue adds elapsed seconds of hourly production to stock and clamps the
// result to [0, capacity]. Negative elapsed time produces nothing.
func Accrue(stock, perHour Amounts, elapsedSeconds, capacity float64) Amounts {
	if elapsedSeconds < 0 {
		elapsedSeconds = 0
	}
	return stock.Add(perHour.Scale(elapsedSeconds / SecondsPerHour)).Clamp(capacity)
}
