package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"spiritual_growth_service/internal/member/domain"
	"spiritual_growth_service/internal/member/repository"
	"spiritual_growth_service/pkg"
	"spiritual_growth_service/pkg/config"
	"spiritual_growth_service/pkg/database"
	"spiritual_growth_service/pkg/encrypt"
	"spiritual_growth_service/pkg/logger"
	token "spiritual_growth_service/pkg/token"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MemberUseCase application services of the member service.
type MemberUseCase interface {
	Register(ctx context.Context, email, password, displayName, tier string) error
	FindMember(ctx context.Context, param *domain.MemberQuery) (*domain.Member, error)
	GetProfile(ctx context.Context, memberID string) (*domain.Profile, error)
	Login(ctx context.Context, email, password string) (string, error)
	Logout(ctx context.Context, token string) error
	ForceLogout(ctx context.Context, memberID string) error
	CheckSessionTimeout(ctx context.Context, token string) (bool, error)
	ReconnectSession(ctx context.Context, token string) error
}

type memberUseCase struct {
	memberRepo repository.MemberRepository
	sessionTTL time.Duration
	redisRepo  database.RedisRepository[domain.MemberSession]
}

// NewMemberUseCase create a new MemberUseCase
func NewMemberUseCase(memberRepo repository.MemberRepository,
	sessionTTL time.Duration,
	redisRepo database.RedisRepository[domain.MemberSession],
) MemberUseCase {
	return &memberUseCase{
		memberRepo: memberRepo,
		sessionTTL: sessionTTL,
		redisRepo:  redisRepo,
	}
}

// Register creates a new member account with the member role. Guide
// accounts are provisioned directly in the database.
func (m *memberUseCase) Register(ctx context.Context, email, password, displayName, tier string) error {
	if !pkg.Contains(domain.Tiers, tier) {
		return errors.New("unknown tier")
	}

	if _, err := m.memberRepo.FindByMember(ctx, &domain.MemberQuery{Email: &email}); err == nil {
		return errors.New("email already exists")
	}

	pw, err := encrypt.HashPassword(password)
	if err != nil {
		logger.Log.Errorf("password err :", err)
		return err
	}

	user := domain.Member{
		MemberID:    uuid.New().String(),
		Email:       email,
		Password:    pw,
		DisplayName: displayName,
		Role:        string(token.RoleMember),
		Tier:        tier,
	}

	logger.Log.Info(fmt.Sprintf("usecase Register : %v", user.MemberID))

	return m.memberRepo.CreateUser(ctx, &user)
}

// FindMember query a member by id, member id or email.
func (m *memberUseCase) FindMember(ctx context.Context, param *domain.MemberQuery) (*domain.Member, error) {
	return m.memberRepo.FindByMember(ctx, param)
}

// GetProfile the public profile other services resolve by member id.
func (m *memberUseCase) GetProfile(ctx context.Context, memberID string) (*domain.Profile, error) {
	member, err := m.memberRepo.FindByMember(ctx, &domain.MemberQuery{MemberID: &memberID})
	if err != nil {
		return nil, err
	}

	return &domain.Profile{
		MemberID:    member.MemberID,
		DisplayName: member.DisplayName,
		Role:        member.Role,
		Tier:        member.Tier,
	}, nil
}

// Login verifies the password, marks the member online and issues a JWT
// backed by a redis session with the configured TTL.
func (m *memberUseCase) Login(ctx context.Context, email, password string) (string, error) {
	member, err := m.memberRepo.FindByMember(ctx, &domain.MemberQuery{Email: &email})
	if err != nil {
		logger.Log.Error("email can't find!!!")
		return "", errors.New("user not found")
	}

	if err = member.IsPasswordMatch(password); err != nil {
		logger.Log.Error("password can't match!!!")
		return "", err
	}

	member.Status = domain.MemberStatusOnLine

	jwt, err := token.GenerateJWT(member.MemberID, member.Role, config.EnvConfig.MemberService)
	if err != nil {
		return "", err
	}

	now := time.Now()
	session := domain.MemberSession{
		Token:        jwt,
		MemberID:     member.MemberID,
		CreatedAt:    now,
		LastActivity: now,
		ExpiredAt:    now.Add(m.sessionTTL),
	}

	m.redisRepo.Set(context.Background(), member.MemberID, session, m.sessionTTL)

	if err := m.memberRepo.UpdateMemberStatus(ctx, member); err != nil {
		return "", err
	}

	return jwt, nil
}

// Logout drops the session and marks the member offline.
func (m *memberUseCase) Logout(ctx context.Context, t string) error {
	tokenInfo, err := token.ParseJWT(t)
	if err != nil {
		logger.Log.Error("Logout err :", zap.String("err", err.Error()))
		return err
	}
	logger.Log.Debug("logout", zap.String("member token info", fmt.Sprintf("%v", tokenInfo)))

	m.redisRepo.Del(context.Background(), tokenInfo.MemberID)

	return m.memberRepo.UpdateMemberStatus(ctx, &domain.Member{
		MemberID: tokenInfo.MemberID,
		Status:   domain.MemberStatusOffLine,
	})
}

// ForceLogout clears every session of a member id.
func (m *memberUseCase) ForceLogout(ctx context.Context, memberID string) error {
	m.redisRepo.Del(context.Background(), memberID)

	return m.memberRepo.UpdateMemberStatus(ctx, &domain.Member{
		MemberID: memberID,
		Status:   domain.MemberStatusOffLine,
	})
}

// CheckSessionTimeout reports whether the token's session has expired.
func (m *memberUseCase) CheckSessionTimeout(ctx context.Context, t string) (bool, error) {
	tokenInfo, err := token.ParseJWT(t)
	if err != nil {
		logger.Log.Error("CheckSessionTimeout err :", zap.String("err", err.Error()))
		return true, err
	}

	ttl, err := m.redisRepo.GetTTL(context.Background(), tokenInfo.MemberID)
	if err != nil {
		return true, err
	}

	if ttl > 0 {
		return false, nil
	}
	return true, nil
}

// ReconnectSession extends the session TTL after a client reconnect.
func (m *memberUseCase) ReconnectSession(ctx context.Context, t string) error {
	tokenInfo, err := token.ParseJWT(t)
	if err != nil {
		logger.Log.Error("ReconnectSession err :", zap.String("err", err.Error()))
		return err
	}

	m.redisRepo.ExtendTTL(context.Background(), tokenInfo.MemberID, m.sessionTTL)

	return nil
}
