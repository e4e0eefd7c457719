package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-checkout/internal/pricing"
)

type tierFile struct {
	Prefix  string          `toml:"prefix"`
	Percent decimal.Decimal `toml:"percent"`
}

type rulesFile struct {
	BulkStrategy  string          `toml:"bulk_strategy"`
	PointsDivisor decimal.Decimal `toml:"points_divisor"`
	Percent10     tierFile        `toml:"percent_10"`
	Percent15     tierFile        `toml:"percent_15"`
	Percent20     tierFile        `toml:"percent_20"`
	BulkBuy       struct {
		Prefix string `toml:"prefix"`
	} `toml:"bulk_buy"`
	Package struct {
		Prefix   string          `toml:"prefix"`
		Discount decimal.Decimal `toml:"discount"`
	} `toml:"package"`
	Threshold struct {
		Amount  decimal.Decimal `toml:"amount"`
		Percent decimal.Decimal `toml:"percent"`
	} `toml:"threshold"`
}

// LoadRules builds the pricing rules. Values from the optional TOML file at path
// override the defaults, and a non-empty strategy overrides the file.
func LoadRules(path, strategy string) (pricing.Rules, error) {
	rules := pricing.DefaultRules()
	if path = strings.TrimSpace(path); path != "" {
		f := fileFromRules(rules)
		meta, err := toml.DecodeFile(path, &f)
		if err != nil {
			return pricing.Rules{}, fmt.Errorf("decode rules file %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return pricing.Rules{}, fmt.Errorf("rules file %s: unknown keys %v", path, undecoded)
		}
		rules = f.rules()
	}
	if strings.TrimSpace(strategy) != "" {
		s, err := pricing.ParseBulkStrategy(strategy)
		if err != nil {
			return pricing.Rules{}, err
		}
		rules.BulkStrategy = s
	}
	if err := rules.Validate(); err != nil {
		return pricing.Rules{}, err
	}
	return rules, nil
}

func fileFromRules(r pricing.Rules) rulesFile {
	var f rulesFile
	f.BulkStrategy = string(r.BulkStrategy)
	f.PointsDivisor = r.PointsDivisor
	f.Percent10 = tierFile{Prefix: r.Percent10.Prefix, Percent: r.Percent10.Percent}
	f.Percent15 = tierFile{Prefix: r.Percent15.Prefix, Percent: r.Percent15.Percent}
	f.Percent20 = tierFile{Prefix: r.Percent20.Prefix, Percent: r.Percent20.Percent}
	f.BulkBuy.Prefix = r.BulkBuyPrefix
	f.Package.Prefix = r.PackagePrefix
	f.Package.Discount = r.PackageDiscount
	f.Threshold.Amount = r.Threshold
	f.Threshold.Percent = r.ThresholdPercent
	return f
}

func (f rulesFile) rules() pricing.Rules {
	return pricing.Rules{
		Percent10:        pricing.PercentTier{Prefix: f.Percent10.Prefix, Percent: f.Percent10.Percent},
		Percent15:        pricing.PercentTier{Prefix: f.Percent15.Prefix, Percent: f.Percent15.Percent},
		Percent20:        pricing.PercentTier{Prefix: f.Percent20.Prefix, Percent: f.Percent20.Percent},
		BulkBuyPrefix:    f.BulkBuy.Prefix,
		BulkStrategy:     pricing.BulkStrategy(strings.ToLower(strings.TrimSpace(f.BulkStrategy))),
		PackagePrefix:    f.Package.Prefix,
		PackageDiscount:  f.Package.Discount,
		PointsDivisor:    f.PointsDivisor,
		Threshold:        f.Threshold.Amount,
		ThresholdPercent: f.Threshold.Percent,
	}
}
