package pricing

import "strings"

// Bucket is the ordered set of items that fall under one rule.
type Bucket struct {
	Kind  RuleKind
	Items []LineItem
}

// Buckets holds one bucket per rule kind, indexed by RuleKind.
type Buckets [len(Kinds)]Bucket

// OfferGroup is the set of bulk-buy items sharing one exact product code.
type OfferGroup struct {
	Code  string
	Items []LineItem
}

// Classify partitions items into the six rule buckets. Every item lands in exactly one bucket.
func Classify(items []LineItem, rules Rules) Buckets {
	var out Buckets
	for _, kind := range Kinds {
		out[kind].Kind = kind
	}
	for _, it := range items {
		kind := KindOf(it.ProductCode, rules)
		out[kind].Items = append(out[kind].Items, it)
	}
	return out
}

// KindOf returns the rule kind for a product code. Matching is a case-sensitive prefix match.
func KindOf(code string, rules Rules) RuleKind {
	for _, kind := range Kinds {
		if kind == None {
			continue
		}
		if p := rules.Prefix(kind); p != "" && strings.HasPrefix(code, p) {
			return kind
		}
	}
	return None
}

// GroupByCode groups items by exact product code. Groups keep first-appearance order
// and items keep input order.
func GroupByCode(items []LineItem) []OfferGroup {
	index := make(map[string]int)
	var groups []OfferGroup
	for _, it := range items {
		i, ok := index[it.ProductCode]
		if !ok {
			i = len(groups)
			index[it.ProductCode] = i
			groups = append(groups, OfferGroup{Code: it.ProductCode})
		}
		groups[i].Items = append(groups[i].Items, it)
	}
	return groups
}
