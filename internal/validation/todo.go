package validation

// Todo text length bounds, inclusive.
const (
	MinTodoLength = 3
	MaxTodoLength = 200
)

// ValidateTodoText checks a todo text value taken from field key of p.
func ValidateTodoText(p Payload, key string) (string, error) {
	v := p[key]
	err := firstViolation([]rule{
		{func() bool { return present(v) }, "Missing todo text."},
		{func() bool { return isString(v) }, "Todo is not a text."},
		{func() bool { return lengthBetween(v, MinTodoLength, MaxTodoLength) }, "Todo length should be 3-200."},
	})
	if err != nil {
		return "", err
	}
	return str(v), nil
}
