package presets

import (
	"github.com/goliatone/go-formstate/pkg/field"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/validation"
)

// Registration is the flat event registration form. Editing a field clears
// its error right away.
func Registration() Definition {
	withGuest := `attendingWithGuest == "Yes"`
	return Definition{
		Name:  "registration",
		Title: "Event Registration Form",
		Initial: field.Snapshot{
			"name":               "",
			"email":              "",
			"age":                "",
			"attendingWithGuest": "No",
			"guestName":          "",
		},
		Fields: []field.Definition{
			{Path: "name", Label: "Name", Type: field.TypeText},
			{Path: "email", Label: "Email", Type: field.TypeEmail},
			{Path: "age", Label: "Age", Type: field.TypeNumber},
			{Path: "attendingWithGuest", Label: "Are you attending with a guest?", Type: field.TypeSelect, Options: []string{"No", "Yes"}},
			{Path: "guestName", Label: "Guest Name", Type: field.TypeText, VisibleWhen: withGuest},
		},
		Rules: []validation.Rule{
			validation.Required("name", "Name is required"),
			validation.Required("email", "Email is required"),
			validation.Email("email", "Email is invalid"),
			validation.Required("age", "Age is required"),
			validation.Positive("age", "Age must be a number greater than 0"),
			validation.Required("guestName", "Guest name is required").OnlyWhen(validation.When(withGuest)),
		},
		Policy: form.Policy{ClearErrorOnEdit: true},
	}
}

// JobApplication is the position-dependent application form with a skill
// checkbox group.
func JobApplication() Definition {
	experienced := `position == "Developer" || position == "Designer"`
	designer := `position == "Designer"`
	manager := `position == "Manager"`
	skills := []string{"JavaScript", "CSS", "Python", "Java"}

	skillGroup := make(map[string]any, len(skills))
	for _, skill := range skills {
		skillGroup[skill] = false
	}

	return Definition{
		Name:  "application",
		Title: "Job Application Form",
		Initial: field.Snapshot{
			"fullName":             "",
			"email":                "",
			"phoneNumber":          "",
			"position":             "",
			"relevantExperience":   "",
			"portfolioURL":         "",
			"managementExperience": "",
			"additionalSkills":     skillGroup,
			"interviewTime":        "",
		},
		Fields: []field.Definition{
			{Path: "fullName", Label: "Full Name", Type: field.TypeText},
			{Path: "email", Label: "Email", Type: field.TypeEmail},
			{Path: "phoneNumber", Label: "Phone Number", Type: field.TypeText},
			{Path: "position", Label: "Applying for Position", Type: field.TypeSelect, Options: []string{"Developer", "Designer", "Manager"}},
			{Path: "relevantExperience", Label: "Relevant Experience (years)", Type: field.TypeNumber, VisibleWhen: experienced},
			{Path: "portfolioURL", Label: "Portfolio URL", Type: field.TypeText, VisibleWhen: designer},
			{Path: "managementExperience", Label: "Management Experience", Type: field.TypeText, VisibleWhen: manager},
			{Path: "additionalSkills", Label: "Additional Skills", Type: field.TypeCheckbox, Options: skills},
			{Path: "interviewTime", Label: "Preferred Interview Time", Type: field.TypeDateTime},
		},
		Rules: []validation.Rule{
			validation.Required("fullName", "Full Name is required"),
			validation.Required("email", "Email is required"),
			validation.Email("email", "Email is invalid"),
			validation.Required("phoneNumber", "Phone Number is required"),
			validation.Number("phoneNumber", "Phone Number must be a valid number"),
			{
				Path:    "relevantExperience",
				Message: "Relevant Experience is required and must be greater than 0",
				When:    validation.When(experienced),
				Test:    validation.All(validation.Present, validation.GreaterThan(0)),
			},
			{
				Path:    "portfolioURL",
				Message: "Portfolio URL is required and must be a valid URL",
				When:    validation.When(designer),
				Test:    validation.All(validation.Present, validation.Matches(validation.URLPattern)),
			},
			validation.Required("managementExperience", "Management Experience is required").OnlyWhen(validation.When(manager)),
			validation.AtLeastOne("additionalSkills", "At least one skill must be selected"),
			validation.Required("interviewTime", "Preferred Interview Time is required"),
		},
	}
}

// Survey is the topic survey: surveyTopic selects a nested section to
// validate and drives the externally sourced additional questions.
func Survey() Definition {
	technology := `surveyTopic == "Technology"`
	health := `surveyTopic == "Health"`
	education := `surveyTopic == "Education"`

	return Definition{
		Name:  "survey",
		Title: "Survey Form",
		Initial: field.Snapshot{
			"fullName":    "",
			"email":       "",
			"surveyTopic": "",
			"technology": map[string]any{
				"favoriteLanguage":  "",
				"yearsOfExperience": "",
			},
			"health": map[string]any{
				"exerciseFrequency": "",
				"dietPreference":    "",
			},
			"education": map[string]any{
				"highestQualification": "",
				"fieldOfStudy":         "",
			},
			"feedback": "",
		},
		Fields: []field.Definition{
			{Path: "fullName", Label: "Full Name", Type: field.TypeText},
			{Path: "email", Label: "Email", Type: field.TypeEmail},
			{Path: "surveyTopic", Label: "Survey Topic", Type: field.TypeSelect, Options: []string{"Technology", "Health", "Education"}},
			{Path: "technology.favoriteLanguage", Label: "Favorite Programming Language", Type: field.TypeText, VisibleWhen: technology},
			{Path: "technology.yearsOfExperience", Label: "Years of Experience", Type: field.TypeNumber, VisibleWhen: technology},
			{Path: "health.exerciseFrequency", Label: "Exercise Frequency", Type: field.TypeSelect, Options: []string{"Daily", "Weekly", "Monthly", "Rarely"}, VisibleWhen: health},
			{Path: "health.dietPreference", Label: "Diet Preference", Type: field.TypeText, VisibleWhen: health},
			{Path: "education.highestQualification", Label: "Highest Qualification", Type: field.TypeText, VisibleWhen: education},
			{Path: "education.fieldOfStudy", Label: "Field of Study", Type: field.TypeText, VisibleWhen: education},
			{Path: "feedback", Label: "Feedback", Type: field.TypeTextArea},
		},
		Rules: []validation.Rule{
			validation.Required("fullName", "Full Name is required"),
			validation.Required("email", "Email is required"),
			validation.Email("email", "Email is invalid"),
			validation.Required("surveyTopic", "Survey Topic is required"),
			validation.Required("technology.favoriteLanguage", "Favorite Programming Language is required").OnlyWhen(validation.When(technology)),
			validation.Required("technology.yearsOfExperience", "Years of Experience is required").OnlyWhen(validation.When(technology)),
			validation.Required("health.exerciseFrequency", "Exercise Frequency is required").OnlyWhen(validation.When(health)),
			validation.Required("health.dietPreference", "Diet Preference is required").OnlyWhen(validation.When(health)),
			validation.Required("education.highestQualification", "Highest Qualification is required").OnlyWhen(validation.When(education)),
			validation.Required("education.fieldOfStudy", "Field of Study is required").OnlyWhen(validation.When(education)),
			validation.Required("feedback", "Feedback is required"),
			validation.MinLen("feedback", "Feedback must be at least 10 characters", 10),
		},
		Discriminant: "surveyTopic",
	}
}
