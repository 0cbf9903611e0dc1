// Package gameconfig loads the season tuning file: curve coefficients,
// economy constants, shop, boost, ad-reward and daily-reward tables.
// Missing sections fall back to the reference tuning, so an empty file
// is a valid deployment.
package gameconfig

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/playforge/idle-season-service/pkg/ads"
	"github.com/playforge/idle-season-service/pkg/boost"
	"github.com/playforge/idle-season-service/pkg/dailyreward"
	"github.com/playforge/idle-season-service/pkg/economy"
	"github.com/playforge/idle-season-service/pkg/rank"
	"github.com/playforge/idle-season-service/pkg/season"
)

// GameConfig is the full tuning snapshot for one deployment. Numeric
// sanity (positive prices, growth above one) is enforced downstream by
// the catalog constructors; Validate only rejects structural mistakes.
type GameConfig struct {
	Curve   rank.Coefficients `yaml:"curve"`
	Economy economy.Config    `yaml:"economy"`

	Shop []economy.Item `yaml:"shop,omitempty"`

	Boosts       []BoostConfig        `yaml:"boosts,omitempty"`
	AdRewards    []AdRewardConfig     `yaml:"adRewards,omitempty"`
	DailyRewards []dailyreward.Reward `yaml:"dailyRewards,omitempty"`

	MinPrestigeRank int `yaml:"minPrestigeRank"`
}

// BoostConfig is the wire form of a boost spec; durations are seconds.
type BoostConfig struct {
	Type               string  `yaml:"type"`
	Name               string  `yaml:"name"`
	Multiplier         float64 `yaml:"multiplier"`
	DurationSeconds    int     `yaml:"durationSeconds"`
	CooldownSeconds    int     `yaml:"cooldownSeconds"`
	Source             string  `yaml:"source"`
	PersistentCooldown bool    `yaml:"persistentCooldown"`
}

// AdRewardConfig is the wire form of an ad reward; the cooldown is
// seconds.
type AdRewardConfig struct {
	ID              string  `yaml:"id"`
	Name            string  `yaml:"name"`
	Coins           float64 `yaml:"coins"`
	CooldownSeconds int     `yaml:"cooldownSeconds"`
}

// Load reads a tuning file. Supports environment variable expansion in
// the form ${VAR_NAME} or ${VAR_NAME:default}.
func Load(path string) (*GameConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read game config %s: %w", path, err)
	}

	expanded := expandEnvVars(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse game config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid game config: %w", err)
	}
	return cfg, nil
}

// Default returns the reference tuning with empty table sections, which
// the catalog accessors resolve to the reference catalogs.
func Default() *GameConfig {
	return &GameConfig{
		Curve:           rank.DefaultCoefficients(),
		Economy:         economy.DefaultConfig(),
		MinPrestigeRank: 5,
	}
}

// Validate rejects structurally broken tables: duplicate ids and
// entries without an id or type.
func (c *GameConfig) Validate() error {
	itemIDs := make(map[string]bool)
	for _, item := range c.Shop {
		if item.ID == "" {
			return fmt.Errorf("shop item with empty id")
		}
		if itemIDs[item.ID] {
			return fmt.Errorf("duplicate shop item id: %s", item.ID)
		}
		itemIDs[item.ID] = true
	}

	boostTypes := make(map[string]bool)
	for _, b := range c.Boosts {
		if b.Type == "" {
			return fmt.Errorf("boost with empty type")
		}
		if boostTypes[b.Type] {
			return fmt.Errorf("duplicate boost type: %s", b.Type)
		}
		boostTypes[b.Type] = true
	}

	rewardIDs := make(map[string]bool)
	for _, r := range c.AdRewards {
		if r.ID == "" {
			return fmt.Errorf("ad reward with empty id")
		}
		if rewardIDs[r.ID] {
			return fmt.Errorf("duplicate ad reward id: %s", r.ID)
		}
		rewardIDs[r.ID] = true
	}

	if c.MinPrestigeRank < 1 || c.MinPrestigeRank > rank.MaxIndex {
		return fmt.Errorf("minPrestigeRank %d out of range 1..%d", c.MinPrestigeRank, rank.MaxIndex)
	}
	return nil
}

// ShopCatalog builds the shop from the config, or the reference shop
// when the section is absent.
func (c *GameConfig) ShopCatalog() *economy.Catalog {
	if len(c.Shop) == 0 {
		return economy.DefaultCatalog()
	}
	return economy.NewCatalog(c.Shop)
}

// BoostCatalog builds the boost catalog from the config, or the
// reference catalog when the section is absent.
func (c *GameConfig) BoostCatalog() *boost.Catalog {
	if len(c.Boosts) == 0 {
		return boost.DefaultCatalog()
	}
	specs := make([]boost.Spec, 0, len(c.Boosts))
	for _, b := range c.Boosts {
		specs = append(specs, boost.Spec{
			Type:               boost.Type(b.Type),
			Name:               b.Name,
			Multiplier:         b.Multiplier,
			Duration:           time.Duration(b.DurationSeconds) * time.Second,
			Cooldown:           time.Duration(b.CooldownSeconds) * time.Second,
			Source:             boost.Source(b.Source),
			PersistentCooldown: b.PersistentCooldown,
		})
	}
	return boost.NewCatalog(specs)
}

// AdRewardCatalog builds the ad-reward catalog from the config, or the
// reference catalog when the section is absent.
func (c *GameConfig) AdRewardCatalog() *ads.RewardCatalog {
	if len(c.AdRewards) == 0 {
		return ads.DefaultRewardCatalog()
	}
	rewards := make([]ads.Reward, 0, len(c.AdRewards))
	for _, r := range c.AdRewards {
		rewards = append(rewards, ads.Reward{
			ID:       r.ID,
			Name:     r.Name,
			Coins:    r.Coins,
			Cooldown: time.Duration(r.CooldownSeconds) * time.Second,
		})
	}
	return ads.NewRewardCatalog(rewards)
}

// DailyRewardTable builds the streak table from the config, or the
// reference table when the section is absent.
func (c *GameConfig) DailyRewardTable() *dailyreward.Table {
	if len(c.DailyRewards) == 0 {
		return dailyreward.DefaultTable()
	}
	return dailyreward.NewTable(c.DailyRewards)
}

// SeasonFor returns the calendar season containing now, carrying this
// config's curve and economy tuning.
func (c *GameConfig) SeasonFor(now time.Time) season.Season {
	s := season.ForMonth(now)
	s.Curve = c.Curve
	s.Economy = c.Economy
	return s
}

func expandEnvVars(s string) string {
	return os.Expand(s, func(key string) string {
		parts := strings.SplitN(key, ":", 2)
		varName := parts[0]
		defaultValue := ""
		if len(parts) == 2 {
			defaultValue = parts[1]
		}

		value := os.Getenv(varName)
		if value == "" {
			return defaultValue
		}
		return value
	})
}
