package ads

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

// Reward-claim failure reasons.
var (
	ErrUnknownReward    = errors.New("unknown ad reward")
	ErrRewardOnCooldown = errors.New("ad reward on cooldown")
	ErrNotGranted       = errors.New("ad not granted")
)

// Reward is one flat-coin grant behind a rewarded ad, with its own
// claim cooldown. Tuning lives in configuration.
type Reward struct {
	ID       string        `yaml:"id" json:"id"`
	Name     string        `yaml:"name" json:"name"`
	Coins    float64       `yaml:"coins" json:"coins"`
	Cooldown time.Duration `yaml:"cooldown" json:"cooldown"`
}

// RewardCatalog maps reward ids to their tuning.
type RewardCatalog struct {
	rewards map[string]Reward
	order   []string
}

// NewRewardCatalog builds a catalog, dropping entries whose tuning is
// unusable.
func NewRewardCatalog(rewards []Reward) *RewardCatalog {
	c := &RewardCatalog{rewards: make(map[string]Reward, len(rewards))}
	for _, r := range rewards {
		if r.ID == "" || r.Coins <= 0 || r.Cooldown < 0 {
			logrus.Warnf("dropping malformed ad reward %q", r.ID)
			continue
		}
		if _, dup := c.rewards[r.ID]; dup {
			logrus.Warnf("dropping duplicate ad reward %q", r.ID)
			continue
		}
		c.rewards[r.ID] = r
		c.order = append(c.order, r.ID)
	}
	return c
}

// Get looks a reward up by id.
func (c *RewardCatalog) Get(id string) (Reward, bool) {
	r, ok := c.rewards[id]
	return r, ok
}

// Rewards lists the catalog in configured order.
func (c *RewardCatalog) Rewards() []Reward {
	out := make([]Reward, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.rewards[id])
	}
	return out
}

// DefaultRewardCatalog mirrors the reference ad-reward tuning.
func DefaultRewardCatalog() *RewardCatalog {
	return NewRewardCatalog([]Reward{
		{ID: "coin_pouch", Name: "Coin Pouch", Coins: 250, Cooldown: 30 * time.Minute},
		{ID: "coin_chest", Name: "Coin Chest", Coins: 1000, Cooldown: 2 * time.Hour},
	})
}
