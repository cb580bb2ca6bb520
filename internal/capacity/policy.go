package capacity

// Policy определяет поведение Adjuster при попытке занять слот,
// когда доступных не осталось.
type Policy int

const (
	// PolicyStrict — занять нельзя: доступность ниже нуля не опускаем.
	PolicyStrict Policy = iota
	// PolicyAllowOverbook — занять можно: отрицательная доступность
	// фиксирует овербукинг и является валидным состоянием леджера.
	PolicyAllowOverbook
)

func (p Policy) String() string {
	switch p {
	case PolicyStrict:
		return "strict"
	case PolicyAllowOverbook:
		return "allow_overbook"
	default:
		return "unknown"
	}
}
