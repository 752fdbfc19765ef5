package progression

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type CompleteReferralRequest struct {
	Code string `json:"code" validate:"required,min=4,max=20"`
}

type RequirementRequest struct {
	Type  string          `json:"type" validate:"required,requirement_type"`
	Value decimal.Decimal `json:"value" validate:"money_nonneg"`
}

// ToRequirement converts the request into its typed variant
func (r RequirementRequest) ToRequirement() (Requirement, error) {
	switch RequirementKind(r.Type) {
	case RequirementLuvy:
		return LuvyRequirement{Amount: r.Value}, nil
	case RequirementReceipts, RequirementStreak:
		if !r.Value.IsInteger() {
			return nil, fmt.Errorf("%w: %s needs a whole number", ErrInvalidRequirement, r.Type)
		}
		if RequirementKind(r.Type) == RequirementStreak {
			return StreakRequirement{Days: int(r.Value.IntPart())}, nil
		}
		return ReceiptsRequirement{Count: r.Value.IntPart()}, nil
	}
	return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidRequirement, r.Type)
}

type CreateAchievementRequest struct {
	Code        string             `json:"code" validate:"required,max=50"`
	Name        string             `json:"name" validate:"required,max=100"`
	Description string             `json:"description" validate:"required"`
	Category    string             `json:"category" validate:"required,achievement_category"`
	Icon        *string            `json:"icon" validate:"omitempty,max=100"`
	Requirement RequirementRequest `json:"requirement"`
	RewardLuvy  decimal.Decimal    `json:"reward_luvy" validate:"money_nonneg"`
	IsActive    *bool              `json:"is_active"`
}

func (req *CreateAchievementRequest) ToEntity() (*Achievement, error) {
	requirement, err := req.Requirement.ToRequirement()
	if err != nil {
		return nil, err
	}
	return &Achievement{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		Category:    AchievementCategory(req.Category),
		Icon:        req.Icon,
		Requirement: RequirementSpec{requirement},
		Reward:      Reward{Luvy: req.RewardLuvy},
		IsActive:    req.IsActive == nil || *req.IsActive,
	}, nil
}

type CreateChallengeRequest struct {
	Code        string          `json:"code" validate:"required,max=50"`
	Name        string          `json:"name" validate:"required,max=100"`
	Description string          `json:"description" validate:"required"`
	Period      string          `json:"period" validate:"required,challenge_period"`
	Category    string          `json:"category" validate:"required,challenge_category"`
	Target      int64           `json:"target" validate:"required,gt=0"`
	RewardLuvy  decimal.Decimal `json:"reward_luvy" validate:"money_positive"`
	StartDate   time.Time       `json:"start_date" validate:"required"`
	EndDate     time.Time       `json:"end_date" validate:"required,gtfield=StartDate"`
	IsActive    *bool           `json:"is_active"`
}

func (req *CreateChallengeRequest) ToEntity() *Challenge {
	return &Challenge{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		Period:      ChallengePeriod(req.Period),
		Category:    ChallengeCategory(req.Category),
		Goal:        Goal{Target: req.Target},
		Reward:      Reward{Luvy: req.RewardLuvy},
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		IsActive:    req.IsActive == nil || *req.IsActive,
	}
}

// LevelResponse adds the next threshold to a user's level
type LevelResponse struct {
	*UserLevel
	NextLevel    *Level           `json:"next_level,omitempty"`
	NextLevelMin *decimal.Decimal `json:"next_level_at,omitempty"`
}

func LevelResponseFromEntity(l *UserLevel) LevelResponse {
	resp := LevelResponse{UserLevel: l}
	if rank := l.Level.Rank(); rank >= 0 && rank+1 < len(Thresholds) {
		next := Thresholds[rank+1]
		resp.NextLevel = &next.Level
		resp.NextLevelMin = &next.Min
	}
	return resp
}
