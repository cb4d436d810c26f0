package goals

// Targets is the full set of daily nutrition and exercise targets shared by
// goals, presets and resolved results. Grams are per day; percentages are
// nil when unset.
type Targets struct {
	Calories    float64 `gorm:"column:calories;default:0" json:"calories"`
	Protein     float64 `gorm:"column:protein;default:0" json:"protein"`
	Carbs       float64 `gorm:"column:carbs;default:0" json:"carbs"`
	Fat         float64 `gorm:"column:fat;default:0" json:"fat"`
	WaterGoalML float64 `gorm:"column:water_goal_ml;default:0" json:"water_goal_ml"`

	SaturatedFat       float64 `gorm:"column:saturated_fat;default:0" json:"saturated_fat"`
	PolyunsaturatedFat float64 `gorm:"column:polyunsaturated_fat;default:0" json:"polyunsaturated_fat"`
	MonounsaturatedFat float64 `gorm:"column:monounsaturated_fat;default:0" json:"monounsaturated_fat"`
	TransFat           float64 `gorm:"column:trans_fat;default:0" json:"trans_fat"`
	Cholesterol        float64 `gorm:"column:cholesterol;default:0" json:"cholesterol"`
	Sodium             float64 `gorm:"column:sodium;default:0" json:"sodium"`
	Potassium          float64 `gorm:"column:potassium;default:0" json:"potassium"`
	DietaryFiber       float64 `gorm:"column:dietary_fiber;default:0" json:"dietary_fiber"`
	Sugars             float64 `gorm:"column:sugars;default:0" json:"sugars"`
	VitaminA           float64 `gorm:"column:vitamin_a;default:0" json:"vitamin_a"`
	VitaminC           float64 `gorm:"column:vitamin_c;default:0" json:"vitamin_c"`
	Calcium            float64 `gorm:"column:calcium;default:0" json:"calcium"`
	Iron               float64 `gorm:"column:iron;default:0" json:"iron"`

	TargetExerciseCaloriesBurned  float64 `gorm:"column:target_exercise_calories_burned;default:0" json:"target_exercise_calories_burned"`
	TargetExerciseDurationMinutes float64 `gorm:"column:target_exercise_duration_minutes;default:0" json:"target_exercise_duration_minutes"`

	ProteinPercentage *float64 `gorm:"column:protein_percentage" json:"protein_percentage" validate:"omitempty,gte=0,lte=100"`
	CarbsPercentage   *float64 `gorm:"column:carbs_percentage" json:"carbs_percentage" validate:"omitempty,gte=0,lte=100"`
	FatPercentage     *float64 `gorm:"column:fat_percentage" json:"fat_percentage" validate:"omitempty,gte=0,lte=100"`

	BreakfastPercentage *float64 `gorm:"column:breakfast_percentage" json:"breakfast_percentage" validate:"omitempty,gte=0,lte=100"`
	LunchPercentage     *float64 `gorm:"column:lunch_percentage" json:"lunch_percentage" validate:"omitempty,gte=0,lte=100"`
	DinnerPercentage    *float64 `gorm:"column:dinner_percentage" json:"dinner_percentage" validate:"omitempty,gte=0,lte=100"`
	SnacksPercentage    *float64 `gorm:"column:snacks_percentage" json:"snacks_percentage" validate:"omitempty,gte=0,lte=100"`
}

// targetColumns lists every Targets column, used as the DO UPDATE set of
// upserts and the Select list of full-row updates.
var targetColumns = []string{
	"calories", "protein", "carbs", "fat", "water_goal_ml",
	"saturated_fat", "polyunsaturated_fat", "monounsaturated_fat", "trans_fat",
	"cholesterol", "sodium", "potassium", "dietary_fiber", "sugars",
	"vitamin_a", "vitamin_c", "calcium", "iron",
	"target_exercise_calories_burned", "target_exercise_duration_minutes",
	"protein_percentage", "carbs_percentage", "fat_percentage",
	"breakfast_percentage", "lunch_percentage", "dinner_percentage", "snacks_percentage",
}

func floatPtr(v float64) *float64 { return &v }

// DefaultTargets is the stock fallback used when a user has no stored goals.
func DefaultTargets() Targets {
	return Targets{
		Calories:           2000,
		Protein:            150,
		Carbs:              250,
		Fat:                67,
		WaterGoalML:        1920,
		SaturatedFat:       20,
		PolyunsaturatedFat: 10,
		MonounsaturatedFat: 25,
		TransFat:           0,
		Cholesterol:        300,
		Sodium:             2300,
		Potassium:          3500,
		DietaryFiber:       25,
		Sugars:             50,
		VitaminA:           900,
		VitaminC:           90,
		Calcium:            1000,
		Iron:               18,

		BreakfastPercentage: floatPtr(25),
		LunchPercentage:     floatPtr(25),
		DinnerPercentage:    floatPtr(25),
		SnacksPercentage:    floatPtr(25),
	}
}

// HasMacroPercentages reports whether all three macro percentages are set.
func (t Targets) HasMacroPercentages() bool {
	return t.ProteinPercentage != nil && t.CarbsPercentage != nil && t.FatPercentage != nil
}

// NormalizeMacros replaces protein, carbs and fat grams with the values
// derived from calories when all three percentages are set. Protein and
// carbs carry 4 kcal per gram, fat 9. No rounding is applied.
func (t *Targets) NormalizeMacros() {
	if !t.HasMacroPercentages() {
		return
	}
	t.Protein = t.Calories * *t.ProteinPercentage / 100 / 4
	t.Carbs = t.Calories * *t.CarbsPercentage / 100 / 4
	t.Fat = t.Calories * *t.FatPercentage / 100 / 9
}

// Clone returns a deep copy, so percentage pointers are not shared.
func (t Targets) Clone() Targets {
	c := t
	c.ProteinPercentage = clonePtr(t.ProteinPercentage)
	c.CarbsPercentage = clonePtr(t.CarbsPercentage)
	c.FatPercentage = clonePtr(t.FatPercentage)
	c.BreakfastPercentage = clonePtr(t.BreakfastPercentage)
	c.LunchPercentage = clonePtr(t.LunchPercentage)
	c.DinnerPercentage = clonePtr(t.DinnerPercentage)
	c.SnacksPercentage = clonePtr(t.SnacksPercentage)
	return c
}

func clonePtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
