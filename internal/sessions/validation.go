package sessions

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode"
)

const maxTitleLength = 200

// ValidateProfile checks every profile field against its legal values.
func ValidateProfile(p Profile) error {
	var errs []error
	if !slices.Contains(BitrateOptions, p.BitrateKbps) {
		errs = append(errs, fmt.Errorf("bitrate %d kbps not in %v", p.BitrateKbps, BitrateOptions))
	}
	if !slices.Contains(ResolutionOptions, p.Resolution) {
		errs = append(errs, fmt.Errorf("resolution %q not in %v", p.Resolution, ResolutionOptions))
	}
	if !slices.Contains(FPSOptions, p.FPS) {
		errs = append(errs, fmt.Errorf("fps %d not in %v", p.FPS, FPSOptions))
	}
	if !slices.Contains(OrientationOptions, p.Orientation) {
		errs = append(errs, fmt.Errorf("orientation %q not in %v", p.Orientation, OrientationOptions))
	}
	return errors.Join(errs...)
}

// validateSpec checks the fields an update may set. Source and key may
// still be empty.
func validateSpec(s *Spec) error {
	var errs []error
	if len(s.Title) > maxTitleLength {
		errs = append(errs, fmt.Errorf("title longer than %d characters", maxTitleLength))
	}
	if !slices.Contains(PlatformOptions, s.Platform) {
		errs = append(errs, fmt.Errorf("platform %q not in %v", s.Platform, PlatformOptions))
	}
	if strings.ContainsAny(s.Source, "\r\n") {
		errs = append(errs, errors.New("source must be a single line"))
	}
	if strings.IndexFunc(s.DestinationKey, unicode.IsSpace) >= 0 || strings.Contains(s.DestinationKey, "/") {
		errs = append(errs, errors.New("destination key must not contain whitespace or '/'"))
	}
	if err := ValidateProfile(s.Profile); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// validateForStart additionally requires a source and a key.
func validateForStart(s *Spec) error {
	var errs []error
	if s.Source == "" {
		errs = append(errs, errors.New("source is required"))
	}
	if s.DestinationKey == "" {
		errs = append(errs, errors.New("destination key is required"))
	}
	if err := validateSpec(s); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// apply returns a copy of s with the update applied.
func (u ConfigUpdate) apply(s Spec) Spec {
	if u.Title != nil {
		s.Title = strings.TrimSpace(*u.Title)
	}
	if u.Source != nil {
		s.Source = strings.TrimSpace(*u.Source)
	}
	if u.DestinationKey != nil {
		s.DestinationKey = strings.TrimSpace(*u.DestinationKey)
	}
	if u.Platform != nil {
		s.Platform = *u.Platform
	}
	if u.BitrateKbps != nil {
		s.Profile.BitrateKbps = *u.BitrateKbps
	}
	if u.Resolution != nil {
		s.Profile.Resolution = *u.Resolution
	}
	if u.FPS != nil {
		s.Profile.FPS = *u.FPS
	}
	if u.Orientation != nil {
		s.Profile.Orientation = *u.Orientation
	}
	if u.Loop != nil {
		s.Profile.Loop = *u.Loop
	}
	return s
}
