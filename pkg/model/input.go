package model

import (
	"encoding/json"
	"os"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// Dates use DateLayout and clock times use ClockLayout
type RawSession struct {
	Id          string   `mapstructure:"id" json:"id,omitempty"`
	Date        string   `mapstructure:"date" json:"date,omitempty"`
	Start       string   `mapstructure:"start" json:"start,omitempty"`
	End         string   `mapstructure:"end" json:"end,omitempty"`
	Subject     string   `mapstructure:"subject" json:"subject,omitempty"`
	Rooms       []string `mapstructure:"rooms" json:"rooms,omitempty"`
	Required    int      `mapstructure:"required" json:"required,omitempty"`
	Tags        []string `mapstructure:"tags" json:"tags,omitempty"`
	Responsible []string `mapstructure:"responsible" json:"responsible,omitempty"`
}

// A window without start and end covers the whole day
type RawWindow struct {
	Date  string `mapstructure:"date" json:"date,omitempty"`
	Start string `mapstructure:"start" json:"start,omitempty"`
	End   string `mapstructure:"end" json:"end,omitempty"`
}

type RawTeacher struct {
	Id         string      `mapstructure:"id" json:"id,omitempty"`
	Name       string      `mapstructure:"name" json:"name,omitempty"`
	Department string      `mapstructure:"department" json:"department,omitempty"`
	Grade      string      `mapstructure:"grade" json:"grade,omitempty"`
	MinQuota   int         `mapstructure:"min_quota" json:"min_quota,omitempty"`
	MaxQuota   int         `mapstructure:"max_quota" json:"max_quota,omitempty"` // 0 falls back to the grade quota, then to no limit
	Tags       []string    `mapstructure:"tags" json:"tags,omitempty"`
	Blackouts  []RawWindow `mapstructure:"blackouts" json:"blackouts,omitempty"`
}

// Either Session or the window fields are set
type RawPreference struct {
	Teacher string  `mapstructure:"teacher" json:"teacher,omitempty"`
	Session string  `mapstructure:"session" json:"session,omitempty"`
	Date    string  `mapstructure:"date" json:"date,omitempty"`
	Start   string  `mapstructure:"start" json:"start,omitempty"`
	End     string  `mapstructure:"end" json:"end,omitempty"`
	Score   float64 `mapstructure:"score" json:"score,omitempty"`
}

// RawInput gathers the exam calendar and the teacher constraints as handed over by the import collaborator
type RawInput struct {
	Sessions    []RawSession    `mapstructure:"sessions" json:"sessions,omitempty"`
	Teachers    []RawTeacher    `mapstructure:"teachers" json:"teachers,omitempty"`
	Preferences []RawPreference `mapstructure:"preferences" json:"preferences,omitempty"`
}

func InputFromJson(file string) (RawInput, error) {
	bytes, err := os.ReadFile(file)
	if err != nil {
		return RawInput{}, errors.Wrapf(err, "cannot read input file %v", file)
	}

	var inputJson map[string]any
	if err := json.Unmarshal(bytes, &inputJson); err != nil {
		return RawInput{}, errors.Wrapf(err, "cannot parse input file %v", file)
	}

	return InputFromMap(inputJson)
}

func InputFromMap(inputMap map[string]any) (RawInput, error) {
	var rawInput RawInput
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true, // Accept "2" for numbers and a single string for string lists
		Result:           &rawInput,
	})
	if err != nil {
		return RawInput{}, errors.WithStack(err)
	}
	if err := decoder.Decode(inputMap); err != nil {
		return RawInput{}, errors.Wrap(err, "cannot decode input")
	}
	return rawInput, nil
}
