package match

// Field weights for global full-text scoring. The absolute values are not
// part of the contract; the orderings are: an exact hit on a canonical field
// (identifier, perm id, code) outweighs any property hit, and every weight
// is positive so a candidate matching a superset of fields always scores at
// least as high as one matching a subset.
const (
	// WeightCanonicalExact scores an exact match on identifier, perm id, or
	// code.
	WeightCanonicalExact = 100.0
	// WeightAttributeExact scores an exact match on any other attribute.
	WeightAttributeExact = 50.0
	// WeightAttributePartial scores a partial (token or phrase) attribute
	// match.
	WeightAttributePartial = 20.0
	// WeightPropertyPhrase scores a phrase match inside a property value.
	WeightPropertyPhrase = 10.0
	// WeightPropertyToken scores a token match inside a property value.
	WeightPropertyToken = 5.0
)

// CanonicalAttributes are the attributes whose exact matches dominate
// ranking.
var CanonicalAttributes = map[string]bool{
	"identifier": true,
	"permId":     true,
	"code":       true,
}

// AttributeWeight returns the weight of a hit on the named attribute.
func AttributeWeight(name string, exact bool) float64 {
	if exact && CanonicalAttributes[name] {
		return WeightCanonicalExact
	}
	if exact {
		return WeightAttributeExact
	}
	return WeightAttributePartial
}

// PropertyWeight returns the weight of a hit inside a property value.
func PropertyWeight(phrase bool) float64 {
	if phrase {
		return WeightPropertyPhrase
	}
	return WeightPropertyToken
}
