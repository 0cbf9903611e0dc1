// Package ads defines the rewarded-ad collaborator surface. The
// progression core never talks to an ad SDK; it consults a Presenter
// for grant outcomes and applies rewards on granted, nothing else.
package ads

import "context"

// Outcome is the result of one rewarded-ad presentation.
type Outcome string

const (
	// OutcomeGranted means the user watched the ad to completion.
	OutcomeGranted Outcome = "granted"
	// OutcomeDeclined means the user dismissed the ad early.
	OutcomeDeclined Outcome = "declined"
	// OutcomeFailed means the ad could not be shown at all.
	OutcomeFailed Outcome = "failed"
)

// Granted reports whether the outcome unlocks the gated reward.
func (o Outcome) Granted() bool {
	return o == OutcomeGranted
}

// Presenter shows rewarded ads. Implementations wrap the platform ad
// SDK; ShowRewardedAd blocks until the presentation resolves, so it
// takes a context.
type Presenter interface {
	CanShowRewardedAd() bool
	ShowRewardedAd(ctx context.Context, placement string) (Outcome, error)
}

// MockPresenter is a deterministic Presenter for tests. The zero value
// grants every ad.
type MockPresenter struct {
	Unavailable bool
	Next        Outcome
	Err         error

	// Shown records the placements presented, in order.
	Shown []string
}

func (m *MockPresenter) CanShowRewardedAd() bool {
	return !m.Unavailable
}

func (m *MockPresenter) ShowRewardedAd(_ context.Context, placement string) (Outcome, error) {
	m.Shown = append(m.Shown, placement)
	if m.Err != nil {
		return OutcomeFailed, m.Err
	}
	if m.Next == "" {
		return OutcomeGranted, nil
	}
	return m.Next, nil
}
