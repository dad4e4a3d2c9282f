package core

// EffectiveMonth computes the bill a credit-card charge lands on. A charge
// made on or before the card's closing day makes the next bill; a charge
// made after it misses that bill and lands on the one after, so December
// purchases can roll into February of the following year.
func EffectiveMonth(date Date, closingDay int) YearMonth {
	if date.Day() > closingDay {
		return date.YearMonth().AddMonths(2)
	}
	return date.YearMonth().AddMonths(1)
}

// CalendarMonth returns the month a transaction impacts when no credit
// card is involved: simply the month containing its date.
func CalendarMonth(date Date) YearMonth {
	return date.YearMonth()
}
