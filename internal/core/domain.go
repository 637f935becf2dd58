package core

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// UnknownSentinel is persisted in place of a nutrition value the
// estimator could not determine.
const UnknownSentinel = "N/D"

var (
	ErrInvalidTimestamp   = errors.New("invalid timestamp format")
	ErrInvalidIndex       = errors.New("invalid record index")
	ErrUserExists         = errors.New("username already taken")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type (
	// Nutrient is a single nutrition value that may be unknown when the
	// estimator was unavailable or returned garbage. It marshals to a
	// number, or to the sentinel string when unknown.
	Nutrient struct {
		Value float64
		Known bool
	}

	// Meal is one logged meal. Timestamp is the display-format string
	// fixed at write time; field names match the persisted wire format.
	Meal struct {
		User        string   `json:"utente"`
		Type        string   `json:"tipo"`
		Description string   `json:"descrizione"`
		Timestamp   string   `json:"data_ora"`
		Calories    Nutrient `json:"calorie"`
		Proteins    Nutrient `json:"proteine"`
		Carbs       Nutrient `json:"carboidrati"`
		Fats        Nutrient `json:"grassi"`
		DietComment string   `json:"commento_dietologo,omitempty"`
	}

	// Measurement is one body-composition reading. Fields are pointers
	// because historical records may lack some of them; a missing field
	// is excluded from averages, never treated as zero.
	Measurement struct {
		User            string   `json:"utente"`
		Timestamp       string   `json:"data_ora"`
		Weight          *float64 `json:"peso"`
		BMI             *float64 `json:"bmi"`
		BodyFat         *float64 `json:"grasso_corporeo"`
		SkeletalMuscle  *float64 `json:"muscolo_scheletrico"`
		FatFreeMass     *float64 `json:"peso_senza_grassi"`
		SubcutaneousFat *float64 `json:"grasso_sottocutaneo"`
		VisceralFat     *int     `json:"grasso_viscerale"`
		BodyWater       *float64 `json:"acqua_corporea"`
		MuscleMass      *float64 `json:"massa_muscolare"`
		BoneMass        *float64 `json:"massa_ossea"`
		Proteins        *float64 `json:"proteine"`
		BMR             *float64 `json:"bmr"`
		MetabolicAge    *int     `json:"eta_metabolica"`
	}

	// User carries profile data and the password hash. The username is
	// the key of the users document, not a field of it.
	User struct {
		Password      string  `json:"password"`
		Name          string  `json:"nome"`
		Surname       string  `json:"cognome"`
		Email         string  `json:"email"`
		Sex           string  `json:"sesso"`
		Age           int     `json:"eta"`
		InitialWeight float64 `json:"peso_iniziale"`
		Height        int     `json:"altezza"`
		Admin         bool    `json:"admin,omitempty"`
	}
)

// KnownNutrient wraps a determined value.
func KnownNutrient(v float64) Nutrient {
	return Nutrient{Value: v, Known: true}
}

// UnknownNutrient is the degraded value for an unavailable estimate.
func UnknownNutrient() Nutrient {
	return Nutrient{}
}

// OrZero returns the value, with unknown counting as zero. Meal
// aggregation sums with this rule.
func (n Nutrient) OrZero() float64 {
	if !n.Known {
		return 0
	}
	return n.Value
}

func (n Nutrient) MarshalJSON() ([]byte, error) {
	if !n.Known {
		return json.Marshal(UnknownSentinel)
	}
	return json.Marshal(n.Value)
}

// UnmarshalJSON accepts a number, a numeric string, or anything else
// (sentinel, null, malformed) which all decode as unknown. Reads must
// never fail on a nutrition field.
func (n *Nutrient) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*n = KnownNutrient(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*n = KnownNutrient(f)
			return nil
		}
	}
	*n = UnknownNutrient()
	return nil
}

func (m Meal) Owner() string { return m.User }
func (m Meal) When() string  { return m.Timestamp }

// Validate is the gate before any persistence: only the timestamp is
// checked, everything else is free text.
func (m Meal) Validate() error {
	if _, err := ParseDisplay(m.Timestamp); err != nil {
		return ErrInvalidTimestamp
	}
	return nil
}

func (m Measurement) Owner() string { return m.User }
func (m Measurement) When() string  { return m.Timestamp }

func (m Measurement) Validate() error {
	if _, err := ParseDisplay(m.Timestamp); err != nil {
		return ErrInvalidTimestamp
	}
	return nil
}

// MeasurementFields lists the numeric fields in report order.
var MeasurementFields = []string{
	"peso", "bmi", "grasso_corporeo", "grasso_sottocutaneo",
	"grasso_viscerale", "muscolo_scheletrico", "peso_senza_grassi",
	"acqua_corporea", "massa_muscolare", "massa_ossea", "proteine",
	"bmr", "eta_metabolica",
}

// Field returns the named numeric field, or nil when absent. Integer
// fields are widened to float64 for averaging.
func (m Measurement) Field(name string) *float64 {
	intVal := func(p *int) *float64 {
		if p == nil {
			return nil
		}
		f := float64(*p)
		return &f
	}
	switch name {
	case "peso":
		return m.Weight
	case "bmi":
		return m.BMI
	case "grasso_corporeo":
		return m.BodyFat
	case "grasso_sottocutaneo":
		return m.SubcutaneousFat
	case "grasso_viscerale":
		return intVal(m.VisceralFat)
	case "muscolo_scheletrico":
		return m.SkeletalMuscle
	case "peso_senza_grassi":
		return m.FatFreeMass
	case "acqua_corporea":
		return m.BodyWater
	case "massa_muscolare":
		return m.MuscleMass
	case "massa_ossea":
		return m.BoneMass
	case "proteine":
		return m.Proteins
	case "bmr":
		return m.BMR
	case "eta_metabolica":
		return intVal(m.MetabolicAge)
	default:
		return nil
	}
}
