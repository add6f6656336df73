package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"proteinid/models"

	"github.com/hashicorp/go-hclog"
)

var ErrUploadsDisabled = errors.New("image uploads are not configured")

const profilePictureFolder = "profile-pictures"

// Where a goal came from.
const (
	GoalSourceOverride = "override"
	GoalSourceDerived  = "derived"
	GoalSourceDefault  = "default"
)

type ImageUploader interface {
	UploadDataURI(ctx context.Context, dataURI, folder, prefix string) (string, error)
}

// ProfileView is what the profile screen renders. Profile is nil while
// SetupRequired is set.
type ProfileView struct {
	SetupRequired bool                `json:"setup_required"`
	Profile       *models.UserProfile `json:"profile,omitempty"`
	Goal          int                 `json:"goal"`
	GoalSource    string              `json:"goal_source"`
}

// ProfileUpdate carries only the fields the caller wants to change. A
// ProteinGoalOverride of 0 clears the override; an empty ProfilePicture
// removes the picture and a data URI uploads a new one.
type ProfileUpdate struct {
	Name                *string     `json:"name"`
	WeightKg            *float64    `json:"weight_kg"`
	Sex                 *models.Sex `json:"sex"`
	WeightGoalKg        *float64    `json:"weight_goal_kg"`
	ProteinGoalOverride *int        `json:"protein_goal_override"`
	ProfilePicture      *string     `json:"profile_picture"`
}

type ProfileService struct {
	profiles ProfileStore
	uploader ImageUploader
	log      hclog.Logger
}

func NewProfileService(profiles ProfileStore, uploader ImageUploader, log hclog.Logger) *ProfileService {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &ProfileService{profiles: profiles, uploader: uploader, log: log.Named("profile")}
}

// ResolveGoal picks the daily goal for a profile: a positive override,
// else the goal derived from weight and sex, else DefaultProteinGoal.
func ResolveGoal(p *models.UserProfile) (int, string) {
	if p == nil {
		return DefaultProteinGoal, GoalSourceDefault
	}
	if p.ProteinGoalOverride != nil && *p.ProteinGoalOverride > 0 {
		return *p.ProteinGoalOverride, GoalSourceOverride
	}
	if g, err := DailyGoal(p.WeightKg, p.Sex); err == nil && g > 0 {
		return g, GoalSourceDerived
	}
	return DefaultProteinGoal, GoalSourceDefault
}

// goalFor treats a missing profile as the default goal.
func goalFor(ctx context.Context, profiles ProfileStore, userID string) (int, error) {
	p, err := profiles.Profile(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return DefaultProteinGoal, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load profile: %w", err)
	}
	g, _ := ResolveGoal(p)
	return g, nil
}

func (s *ProfileService) Get(ctx context.Context, userID string) (*ProfileView, error) {
	p, err := s.profiles.Profile(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return &ProfileView{SetupRequired: true, Goal: DefaultProteinGoal, GoalSource: GoalSourceDefault}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return viewOf(p), nil
}

func viewOf(p *models.UserProfile) *ProfileView {
	goal, source := ResolveGoal(p)
	return &ProfileView{Profile: p, Goal: goal, GoalSource: source}
}

// Update merges the given fields into the stored profile, creating it on
// first save. Nothing is written when any field is invalid.
func (s *ProfileService) Update(ctx context.Context, userID string, upd ProfileUpdate) (*ProfileView, error) {
	if err := upd.validate(); err != nil {
		return nil, err
	}

	p, err := s.profiles.Profile(ctx, userID)
	switch {
	case errors.Is(err, ErrNotFound):
		p = &models.UserProfile{UserID: userID}
	case err != nil:
		return nil, fmt.Errorf("load profile: %w", err)
	}

	if upd.Name != nil {
		p.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.WeightKg != nil {
		p.WeightKg = *upd.WeightKg
	}
	if upd.Sex != nil {
		p.Sex = *upd.Sex
	}
	if upd.WeightGoalKg != nil {
		if *upd.WeightGoalKg == 0 {
			p.WeightGoalKg = nil
		} else {
			g := *upd.WeightGoalKg
			p.WeightGoalKg = &g
		}
	}
	if upd.ProteinGoalOverride != nil {
		if *upd.ProteinGoalOverride == 0 {
			p.ProteinGoalOverride = nil
		} else {
			g := *upd.ProteinGoalOverride
			p.ProteinGoalOverride = &g
		}
	}
	if upd.ProfilePicture != nil {
		url, err := s.picture(ctx, userID, *upd.ProfilePicture)
		if err != nil {
			return nil, err
		}
		p.ProfilePicture = url
	}

	if err := s.profiles.SaveProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	s.log.Debug("profile saved", "user_id", userID)
	return viewOf(p), nil
}

func (s *ProfileService) picture(ctx context.Context, userID, in string) (string, error) {
	if in == "" {
		return "", nil
	}
	if s.uploader == nil {
		return "", ErrUploadsDisabled
	}
	url, err := s.uploader.UploadDataURI(ctx, in, profilePictureFolder, userID)
	if err != nil {
		return "", fmt.Errorf("upload profile picture: %w", err)
	}
	return url, nil
}

func (u ProfileUpdate) validate() error {
	if u.WeightKg != nil && !positive(*u.WeightKg) {
		return fmt.Errorf("%w: weight must be positive", ErrValidation)
	}
	if u.Sex != nil && !u.Sex.Valid() {
		return fmt.Errorf("%w: sex must be male or female", ErrValidation)
	}
	if u.WeightGoalKg != nil && *u.WeightGoalKg != 0 && !positive(*u.WeightGoalKg) {
		return fmt.Errorf("%w: weight goal must be positive", ErrValidation)
	}
	if u.ProteinGoalOverride != nil && *u.ProteinGoalOverride < 0 {
		return fmt.Errorf("%w: protein goal must not be negative", ErrValidation)
	}
	if u.ProfilePicture != nil && *u.ProfilePicture != "" && !strings.HasPrefix(*u.ProfilePicture, "data:image") {
		return fmt.Errorf("%w: profile picture must be an image data URI", ErrValidation)
	}
	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
