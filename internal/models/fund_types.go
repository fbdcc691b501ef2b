// internal/models/fund_types.go
package models

// CanonicalFundType is the closed short taxonomy for private fund records.
type CanonicalFundType string

const (
	FundTypeVC        CanonicalFundType = "VC"
	FundTypePE        CanonicalFundType = "PE"
	FundTypeHF        CanonicalFundType = "HF"
	FundTypeRE        CanonicalFundType = "RE"
	FundTypeREIT      CanonicalFundType = "REIT"
	FundTypeFoF       CanonicalFundType = "FoF"
	FundTypeCredit    CanonicalFundType = "Credit"
	FundTypeCommodity CanonicalFundType = "Commodity"
	FundTypeBDC       CanonicalFundType = "BDC"
	FundTypeCEF       CanonicalFundType = "CEF"
	FundTypeOEF       CanonicalFundType = "OEF"
	FundTypeMLP       CanonicalFundType = "MLP"
	FundTypeInfra     CanonicalFundType = "Infra"
	FundTypeEnergy    CanonicalFundType = "Energy"
	FundTypeOther     CanonicalFundType = "Other"
)

var AllFundTypes = []CanonicalFundType{
	FundTypeVC, FundTypePE, FundTypeHF, FundTypeRE, FundTypeREIT,
	FundTypeFoF, FundTypeCredit, FundTypeCommodity, FundTypeBDC,
	FundTypeCEF, FundTypeOEF, FundTypeMLP, FundTypeInfra, FundTypeEnergy,
	FundTypeOther,
}

func (f CanonicalFundType) IsValid() bool {
	for _, t := range AllFundTypes {
		if f == t {
			return true
		}
	}
	return false
}

// VentureFundTypes is the set that counts as venture-capital activity.
var VentureFundTypes = []CanonicalFundType{FundTypeVC, FundTypePE}

// IsVenture reports whether f is a member of VentureFundTypes.
func (f CanonicalFundType) IsVenture() bool {
	return f == FundTypeVC || f == FundTypePE
}
