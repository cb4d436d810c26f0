package goals

import (
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Number is a lenient numeric field. It accepts JSON numbers and numeric
// strings; anything else, including null, NaN and infinities, leaves it
// invalid. Decoding never fails.
type Number struct {
	Value float64
	Valid bool
}

func (n *Number) UnmarshalJSON(b []byte) error {
	*n = Number{}
	var raw interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil
	}
	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	*n = Number{Value: f, Valid: true}
	return nil
}

// OrZero is the coercion applied to plain numeric targets.
func (n Number) OrZero() float64 {
	if !n.Valid {
		return 0
	}
	return n.Value
}

// OrNil is the coercion applied to percentage targets.
func (n Number) OrNil() *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}

// Flag is a lenient boolean: true, "true" and "1" are true.
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	var raw interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		*f = false
		return nil
	}
	switch v := raw.(type) {
	case bool:
		*f = Flag(v)
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		*f = Flag(s == "true" || s == "1")
	case float64:
		*f = Flag(v == 1)
	default:
		*f = false
	}
	return nil
}

// TargetsPayload carries a full set of targets as submitted by clients.
type TargetsPayload struct {
	Calories    Number `json:"calories"`
	Protein     Number `json:"protein"`
	Carbs       Number `json:"carbs"`
	Fat         Number `json:"fat"`
	WaterGoalML Number `json:"water_goal_ml"`

	SaturatedFat       Number `json:"saturated_fat"`
	PolyunsaturatedFat Number `json:"polyunsaturated_fat"`
	MonounsaturatedFat Number `json:"monounsaturated_fat"`
	TransFat           Number `json:"trans_fat"`
	Cholesterol        Number `json:"cholesterol"`
	Sodium             Number `json:"sodium"`
	Potassium          Number `json:"potassium"`
	DietaryFiber       Number `json:"dietary_fiber"`
	Sugars             Number `json:"sugars"`
	VitaminA           Number `json:"vitamin_a"`
	VitaminC           Number `json:"vitamin_c"`
	Calcium            Number `json:"calcium"`
	Iron               Number `json:"iron"`

	TargetExerciseCaloriesBurned  Number `json:"target_exercise_calories_burned"`
	TargetExerciseDurationMinutes Number `json:"target_exercise_duration_minutes"`

	ProteinPercentage Number `json:"protein_percentage"`
	CarbsPercentage   Number `json:"carbs_percentage"`
	FatPercentage     Number `json:"fat_percentage"`

	BreakfastPercentage Number `json:"breakfast_percentage"`
	LunchPercentage     Number `json:"lunch_percentage"`
	DinnerPercentage    Number `json:"dinner_percentage"`
	SnacksPercentage    Number `json:"snacks_percentage"`
}

// Targets coerces the payload: invalid numbers become 0, invalid
// percentages become nil, and grams are derived when all three macro
// percentages are present.
func (p TargetsPayload) Targets() Targets {
	t := Targets{
		Calories:    p.Calories.OrZero(),
		Protein:     p.Protein.OrZero(),
		Carbs:       p.Carbs.OrZero(),
		Fat:         p.Fat.OrZero(),
		WaterGoalML: p.WaterGoalML.OrZero(),

		SaturatedFat:       p.SaturatedFat.OrZero(),
		PolyunsaturatedFat: p.PolyunsaturatedFat.OrZero(),
		MonounsaturatedFat: p.MonounsaturatedFat.OrZero(),
		TransFat:           p.TransFat.OrZero(),
		Cholesterol:        p.Cholesterol.OrZero(),
		Sodium:             p.Sodium.OrZero(),
		Potassium:          p.Potassium.OrZero(),
		DietaryFiber:       p.DietaryFiber.OrZero(),
		Sugars:             p.Sugars.OrZero(),
		VitaminA:           p.VitaminA.OrZero(),
		VitaminC:           p.VitaminC.OrZero(),
		Calcium:            p.Calcium.OrZero(),
		Iron:               p.Iron.OrZero(),

		TargetExerciseCaloriesBurned:  p.TargetExerciseCaloriesBurned.OrZero(),
		TargetExerciseDurationMinutes: p.TargetExerciseDurationMinutes.OrZero(),

		ProteinPercentage: p.ProteinPercentage.OrNil(),
		CarbsPercentage:   p.CarbsPercentage.OrNil(),
		FatPercentage:     p.FatPercentage.OrNil(),

		BreakfastPercentage: p.BreakfastPercentage.OrNil(),
		LunchPercentage:     p.LunchPercentage.OrNil(),
		DinnerPercentage:    p.DinnerPercentage.OrNil(),
		SnacksPercentage:    p.SnacksPercentage.OrNil(),
	}
	t.NormalizeMacros()
	return t
}

// TimelineRequest is the body of a timeline edit. Keys may carry the "p_"
// prefix used by older clients (p_start_date, p_cascade, p_calories, ...).
type TimelineRequest struct {
	StartDate string `json:"start_date"`
	Cascade   Flag   `json:"cascade"`
	TargetsPayload
}

func (r *TimelineRequest) UnmarshalJSON(b []byte) error {
	type plain TimelineRequest
	normalized, err := stripParamPrefix(b)
	if err != nil {
		return err
	}
	var out plain
	if err := json.Unmarshal(normalized, &out); err != nil {
		return err
	}
	*r = TimelineRequest(out)
	return nil
}

// DefaultGoalRequest is the body of a default row write; "p_" keys are
// accepted as well.
type DefaultGoalRequest struct {
	TargetsPayload
}

func (r *DefaultGoalRequest) UnmarshalJSON(b []byte) error {
	normalized, err := stripParamPrefix(b)
	if err != nil {
		return err
	}
	return json.Unmarshal(normalized, &r.TargetsPayload)
}

// stripParamPrefix rewrites top-level "p_x" keys to "x". A plain key wins
// over its prefixed twin.
func stripParamPrefix(b []byte) ([]byte, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, err
	}
	out := make(map[string]json.RawMessage, len(fields))
	for k, v := range fields {
		if name, ok := strings.CutPrefix(k, "p_"); ok {
			if _, plain := fields[name]; plain {
				continue
			}
			out[name] = v
			continue
		}
		out[k] = v
	}
	return json.Marshal(out)
}
