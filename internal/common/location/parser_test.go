package location

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ria-hunter/internal/models"
)

func strp(s string) *string { return &s }

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  models.Location
	}{
		{"empty", "", models.Location{}},
		{"whitespace only", "   ", models.Location{}},
		{"city and state", "St. Louis, MO", models.Location{City: strp("St. Louis"), State: strp("MO")}},
		{"city and state untrimmed", "  Clayton ,  mo ", models.Location{City: strp("Clayton"), State: strp("mo")}},
		{"state code only", "MO", models.Location{State: strp("MO")}},
		{"city only", "Chicago", models.Location{City: strp("Chicago")}},
		{"three letter single segment is a city", "NYC", models.Location{City: strp("NYC")}},
		{"full state name is a city segment", "Missouri", models.Location{City: strp("Missouri")}},
		{"two parts with empty state", "Boston,", models.Location{City: strp("Boston")}},
		{"three parts with trailing code", "Clayton, St. Louis County, MO", models.Location{City: strp("Clayton"), State: strp("MO")}},
		{"three parts state in middle", "St. Louis, MO, USA", models.Location{City: strp("St. Louis"), State: strp("MO")}},
		{"three parts without code", "St. Louis, Missouri, United States", models.Location{City: strp("St. Louis")}},
		{"leading empty segments", ", , Denver, CO", models.Location{City: strp("Denver"), State: strp("CO")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.input))
		})
	}
}

func TestParse_CityStateProperty(t *testing.T) {
	for _, in := range []string{"Austin, TX", "Kansas City ,KS", "  Saint Paul,MN  "} {
		loc := Parse(in)
		if assert.NotNil(t, loc.City) && assert.NotNil(t, loc.State) {
			assert.Len(t, *loc.State, 2)
		}
	}
}

func TestParse_IsPure(t *testing.T) {
	in := "Clayton, St. Louis County, MO"
	assert.Equal(t, Parse(in), Parse(in))
}

func TestNormalizeState(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"MO", "MO", true},
		{"mo", "MO", true},
		{"Missouri", "MO", true},
		{"new york", "NY", true},
		{"XX", "XX", false},
		{"Narnia", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeState(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, got, tt.in)
		}
	}
}

func TestCityVariants(t *testing.T) {
	want := []string{"SAINT LOUIS", "SAINTLOUIS", "ST LOUIS", "ST. LOUIS"}
	assert.Equal(t, want, CityVariants("St. Louis"))
	assert.Equal(t, want, CityVariants("saint louis"))
	assert.Equal(t, want, CityVariants("ST LOUIS"))
	assert.Equal(t, []string{"CHICAGO"}, CityVariants(" chicago "))
	assert.Equal(t, []string{"STAMFORD"}, CityVariants("Stamford"))
	assert.Nil(t, CityVariants(""))
}

func TestStateForCity(t *testing.T) {
	st, ok := StateForCity("St. Louis")
	assert.True(t, ok)
	assert.Equal(t, "MO", st)

	_, ok = StateForCity("Springfield")
	assert.False(t, ok)
}

func TestFindKnownCity(t *testing.T) {
	tests := []struct {
		text      string
		wantCity  string
		wantState string
		wantOK    bool
	}{
		{"top advisers St. Louis venture", "SAINT LOUIS", "MO", true},
		{"who manages the most in saint louis?", "SAINT LOUIS", "MO", true},
		{"Kansas City hedge funds", "KANSAS CITY", "MO", true},
		{"firms in Springfield", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			city, state, ok := FindKnownCity(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantCity, city)
			assert.Equal(t, tt.wantState, state)
		})
	}
}

func TestFindStateName(t *testing.T) {
	code, ok := FindStateName("largest advisers across North Carolina")
	assert.True(t, ok)
	assert.Equal(t, "NC", code)

	code, ok = FindStateName("Missouri private equity")
	assert.True(t, ok)
	assert.Equal(t, "MO", code)

	_, ok = FindStateName("advisers with venture funds")
	assert.False(t, ok)
}
