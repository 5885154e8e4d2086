package models

type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
)

type ActivityLevel string

const (
	Sedentary   ActivityLevel = "sedentary"
	Light       ActivityLevel = "light"
	Moderate    ActivityLevel = "moderate"
	Active      ActivityLevel = "active"
	ExtraActive ActivityLevel = "extra_active"
)

type Goal string

const (
	Lose     Goal = "lose"
	Maintain Goal = "maintain"
	Gain     Goal = "gain"
)

type Language string

const (
	Thai    Language = "th"
	English Language = "en"
)

// DefaultDailyLimit is used until a profile has been set up.
const DefaultDailyLimit = 2000

type UserProfile struct {
	Name              string        `json:"name"`
	Gender            Gender        `json:"gender"`
	Age               int           `json:"age"`
	Weight            float64       `json:"weight"`
	Height            float64       `json:"height"`
	Activity          ActivityLevel `json:"activity"`
	Goal              Goal          `json:"goal"`
	DailyLimit        int           `json:"dailyLimit"`
	PreferredLanguage Language      `json:"language"`
	ProfileImage      string        `json:"profileImage,omitempty"`
}

// DefaultProfile mirrors the values shown on a first launch.
func DefaultProfile() UserProfile {
	return UserProfile{
		Gender:            Male,
		Activity:          Moderate,
		Goal:              Maintain,
		DailyLimit:        DefaultDailyLimit,
		PreferredLanguage: Thai,
	}
}

// Validate checks the fields the budget calculation depends on.
func (p UserProfile) Validate() error {
	switch {
	case p.Name == "":
		return ValidationError("name is required")
	case p.Age <= 0:
		return ValidationError("age must be positive")
	case p.Weight <= 0:
		return ValidationError("weight must be positive")
	case p.Height <= 0:
		return ValidationError("height must be positive")
	}
	switch p.Gender {
	case Male, Female:
	default:
		return ValidationError("unknown gender " + string(p.Gender))
	}
	switch p.Activity {
	case Sedentary, Light, Moderate, Active, ExtraActive:
	default:
		return ValidationError("unknown activity level " + string(p.Activity))
	}
	switch p.Goal {
	case Lose, Maintain, Gain:
	default:
		return ValidationError("unknown goal " + string(p.Goal))
	}
	switch p.PreferredLanguage {
	case Thai, English:
	default:
		return ValidationError("unknown language " + string(p.PreferredLanguage))
	}
	return nil
}

type Personality string

const (
	Kind       Personality = "kind"
	Aggressive Personality = "aggressive"
	Funny      Personality = "funny"
)

type Trainer struct {
	Name        string      `json:"name"`
	Personality Personality `json:"personality"`
	Image       string      `json:"image"`
}

func DefaultTrainer() Trainer {
	return Trainer{
		Name:        "Coach Ken",
		Personality: Kind,
		Image:       "https://images.unsplash.com/photo-1534438327276-14e5300c3a48?w=800&h=800&fit=crop",
	}
}

func (t Trainer) Validate() error {
	if t.Name == "" {
		return ValidationError("trainer name is required")
	}
	switch t.Personality {
	case Kind, Aggressive, Funny:
		return nil
	default:
		return ValidationError("unknown personality " + string(t.Personality))
	}
}
