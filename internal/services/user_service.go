package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperr "time-bank.com/time-bank/internal/errors"
	model "time-bank.com/time-bank/internal/models"
	repository "time-bank.com/time-bank/internal/repositories"
)

// UserService exposes user records, profiles and read access to balances and
// ledger history. It never changes a balance after registration.
type UserService struct {
	store        *repository.Store
	storeTimeout time.Duration
}

type RegisterUserInput struct {
	ID             string
	Name           string
	Email          string
	InitialBalance decimal.Decimal
}

type Profile struct {
	User        *model.User `json:"user"`
	HoursEarned string      `json:"hours_earned"`
	TasksDone   int         `json:"tasks_done"`
}

// PublicProfile is what other users see: no email and no balance.
type PublicProfile struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Location     string   `json:"location"`
	SkillSets    []string `json:"skill_sets"`
	Availability string   `json:"availability"`
	AvatarURL    string   `json:"avatar_url"`
	HoursEarned  string   `json:"hours_earned"`
	TasksDone    int      `json:"tasks_done"`
}

type UpdateProfileInput struct {
	Name         string
	Description  string
	Location     string
	SkillSets    []string
	Availability string
	AvatarURL    string
}

func NewUserService(store *repository.Store, storeTimeout time.Duration) *UserService {
	return &UserService{
		store:        store,
		storeTimeout: storeTimeout,
	}
}

func (s *UserService) Register(ctx context.Context, in RegisterUserInput) (*model.User, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name is required", apperr.ErrInvalidInput)
	}
	if in.InitialBalance.IsNegative() || in.InitialBalance.GreaterThan(model.MaxHours) || !model.FitsHoursScale(in.InitialBalance) {
		return nil, fmt.Errorf(
			"%w: initial balance must be between 0 and %s with at most %d decimal places",
			apperr.ErrInvalidInput, model.MaxHours, model.HoursScale,
		)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	user := &model.User{
		ID:          in.ID,
		Name:        in.Name,
		Email:       in.Email,
		TimeBalance: in.InitialBalance,
	}
	if err := s.store.Users.Create(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("user %s registered with %s hours", user.ID, user.TimeBalance)
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*model.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.store.Users.FindByID(ctx, id)
}

// Profile returns the user together with totals derived from the ledger.
func (s *UserService) Profile(ctx context.Context, id string) (*Profile, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	user, err := s.store.Users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	entries, err := s.store.Ledger.ListByUser(ctx, id)
	if err != nil {
		return nil, err
	}

	earned := decimal.Zero
	for _, e := range entries {
		earned = earned.Add(e.TimeEarned)
	}

	return &Profile{
		User:        user,
		HoursEarned: earned.String(),
		TasksDone:   len(entries),
	}, nil
}

// PublicProfile returns the profile of id as any other user may see it.
func (s *UserService) PublicProfile(ctx context.Context, id string) (*PublicProfile, error) {
	profile, err := s.Profile(ctx, id)
	if err != nil {
		return nil, err
	}

	u := profile.User
	return &PublicProfile{
		ID:           u.ID,
		Name:         u.Name,
		Description:  u.Description,
		Location:     u.Location,
		SkillSets:    u.SkillSets,
		Availability: u.Availability,
		AvatarURL:    u.AvatarURL,
		HoursEarned:  profile.HoursEarned,
		TasksDone:    profile.TasksDone,
	}, nil
}

// UpdateProfile replaces the editable profile fields and marks the profile
// complete.
func (s *UserService) UpdateProfile(ctx context.Context, id string, in UpdateProfileInput) (*model.User, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", apperr.ErrInvalidInput)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	user, err := s.store.Users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Name = name
	user.Description = strings.TrimSpace(in.Description)
	user.Location = strings.TrimSpace(in.Location)
	user.SkillSets = normalizeSkills(in.SkillSets)
	user.Availability = strings.TrimSpace(in.Availability)
	user.AvatarURL = strings.TrimSpace(in.AvatarURL)
	user.IsProfileComplete = true

	if err := s.store.Users.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("user %s updated their profile", id)
	return user, nil
}

func (s *UserService) GetBalance(ctx context.Context, id string) (decimal.Decimal, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.store.Users.GetBalance(ctx, id)
}

func (s *UserService) Ledger(ctx context.Context, id string) ([]model.LedgerEntry, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.store.Ledger.ListByUser(ctx, id)
}

func (s *UserService) SetPushToken(ctx context.Context, id, token string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.store.Users.SetPushToken(ctx, id, token)
}

func (s *UserService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.storeTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.storeTimeout)
}

// normalizeSkills trims entries and drops blanks and repeats.
func normalizeSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	seen := make(map[string]bool, len(skills))
	for _, skill := range skills {
		skill = strings.TrimSpace(skill)
		key := strings.ToLower(skill)
		if skill == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, skill)
	}
	return out
}
