package fundtype

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"ria-hunter/internal/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		label string
		want  models.CanonicalFundType
	}{
		{"Venture Capital Fund", models.FundTypeVC},
		{"VENTURE", models.FundTypeVC},
		{"early-stage venture vehicle", models.FundTypeVC},
		{"Private Equity Fund", models.FundTypePE},
		{"Hedge Fund", models.FundTypeHF},
		{"Real Estate Fund", models.FundTypeRE},
		{"Real Estate REIT", models.FundTypeREIT},
		{"Non-traded REIT", models.FundTypeREIT},
		{"Fund of Funds", models.FundTypeFoF},
		{"Private Credit", models.FundTypeCredit},
		{"Distressed Debt", models.FundTypeCredit},
		{"Fixed Income Opportunities", models.FundTypeCredit},
		{"Commodity Pool", models.FundTypeCommodity},
		{"BDC", models.FundTypeBDC},
		{"Closed-End Fund", models.FundTypeCEF},
		{"closed end interval", models.FundTypeCEF},
		{"Open-End Fund", models.FundTypeOEF},
		{"Mutual Fund", models.FundTypeOEF},
		{"MLP Income", models.FundTypeMLP},
		{"Infrastructure Fund", models.FundTypeInfra},
		{"Energy Transition", models.FundTypeEnergy},
		{"Liquidity Fund", models.FundTypeOther},
		{"Securitized Asset Fund", models.FundTypeOther},
		{"", models.FundTypeOther},
		{"   ", models.FundTypeOther},
		{UnknownLabel, models.FundTypeOther},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.label))
		})
	}
}

func TestClassify_VentureAnyCase(t *testing.T) {
	for _, label := range []string{"venture", "Venture Capital", "A VeNtUrE fund", "corporate venture arm"} {
		assert.Equal(t, models.FundTypeVC, Classify(label), label)
		assert.Equal(t, models.FundTypeVC, Classify(strings.ToUpper(label)), label)
	}
}

func TestClassify_FirstMatchWins(t *testing.T) {
	// venture is checked before private equity and hedge
	assert.Equal(t, models.FundTypeVC, Classify("Venture / Private Equity Hedge"))
	assert.Equal(t, models.FundTypePE, Classify("private equity real estate"))
}

func TestBucketLabel(t *testing.T) {
	assert.Equal(t, UnknownLabel, BucketLabel(""))
	assert.Equal(t, UnknownLabel, BucketLabel("  "))
	assert.Equal(t, "Hedge Fund", BucketLabel(" Hedge Fund "))
	assert.Equal(t, models.FundTypeOther, Classify(BucketLabel("")))
}

func TestAggregate(t *testing.T) {
	agg := Aggregate([]models.FundTypeCount{
		{Label: "Hedge Fund", Count: 4},
		{Label: "hedge", Count: 1},
		{Label: "Private Equity Fund", Count: 3},
		{Label: "", Count: 2},
		{Label: "Liquidity Fund", Count: 1},
	})

	assert.Equal(t, 5, agg[models.FundTypeHF])
	assert.Equal(t, 3, agg[models.FundTypePE])
	assert.Equal(t, 3, agg[models.FundTypeOther])
	assert.Equal(t, []models.CanonicalFundType{models.FundTypeHF, models.FundTypeOther, models.FundTypePE}, SortedTypes(agg))
}

func TestFamily(t *testing.T) {
	assert.ElementsMatch(t, []models.CanonicalFundType{models.FundTypeVC, models.FundTypePE}, Family(models.FundTypePE))
	assert.ElementsMatch(t, []models.CanonicalFundType{models.FundTypeVC, models.FundTypePE}, Family(models.FundTypeVC))
	assert.Equal(t, []models.CanonicalFundType{models.FundTypeHF}, Family(models.FundTypeHF))

	set := Family(models.FundTypeVC)
	assert.True(t, InFamily("Private Equity Fund", set))
	assert.True(t, InFamily("venture capital", set))
	assert.False(t, InFamily("Hedge Fund", set))
}
