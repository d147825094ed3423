package common

import (
	stderrors "optimex/core/errors"
)

// FeatureView reports which optional protocol features are switched on.
type FeatureView interface {
	FeatureEnabled(feature string) bool
}

// Guard fails with ErrFeatureDisabled when the feature is switched off.
func Guard(v FeatureView, feature string) error {
	if v == nil || feature == "" {
		return nil
	}
	if !v.FeatureEnabled(feature) {
		return stderrors.ErrFeatureDisabled
	}
	return nil
}
