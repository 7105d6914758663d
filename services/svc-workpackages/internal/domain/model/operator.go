package model

// Operator is the wire symbol of a filter operator.
type Operator string

const (
	OpEquals         Operator = "="
	OpNotEquals      Operator = "!"
	OpAny            Operator = "*"
	OpNone           Operator = "!*"
	OpOpen           Operator = "o"
	OpClosed         Operator = "c"
	OpContains       Operator = "~"
	OpNotContains    Operator = "!~"
	OpSearch         Operator = "**"
	OpGreaterOrEqual Operator = ">="
	OpLessOrEqual    Operator = "<="
	OpOnDate         Operator = "=d"
	OpBetweenDates   Operator = "<>d"
	OpToday          Operator = "t"
	OpThisWeek       Operator = "w"
	OpLessDaysAgo    Operator = ">t-"
	OpMoreDaysAgo    Operator = "<t-"
	OpDaysAgo        Operator = "t-"
	OpInLessDays     Operator = "<t+"
	OpInMoreDays     Operator = ">t+"
	OpInDays         Operator = "t+"
)

type arity struct {
	min, max int
}

const unbounded = -1

var operatorArity = map[Operator]arity{
	OpEquals:         {1, unbounded},
	OpNotEquals:      {1, unbounded},
	OpAny:            {0, 0},
	OpNone:           {0, 0},
	OpOpen:           {0, 0},
	OpClosed:         {0, 0},
	OpContains:       {1, 1},
	OpNotContains:    {1, 1},
	OpSearch:         {1, 1},
	OpGreaterOrEqual: {1, 1},
	OpLessOrEqual:    {1, 1},
	OpOnDate:         {1, 1},
	OpBetweenDates:   {2, 2},
	OpToday:          {0, 0},
	OpThisWeek:       {0, 0},
	OpLessDaysAgo:    {1, 1},
	OpMoreDaysAgo:    {1, 1},
	OpDaysAgo:        {1, 1},
	OpInLessDays:     {1, 1},
	OpInMoreDays:     {1, 1},
	OpInDays:         {1, 1},
}

func (o Operator) String() string { return string(o) }

func (o Operator) IsKnown() bool {
	_, ok := operatorArity[o]

	return ok
}

// IsUnary reports whether the operator takes no values.
func (o Operator) IsUnary() bool {
	a, ok := operatorArity[o]

	return ok && a.max == 0
}

func (o Operator) acceptsValueCount(n int) bool {
	a, ok := operatorArity[o]
	if !ok {
		return false
	}

	return n >= a.min && (a.max == unbounded || n <= a.max)
}
