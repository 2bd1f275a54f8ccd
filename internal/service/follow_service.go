package service

import (
	"context"

	"marketplace-service/internal/apperr"
	"marketplace-service/internal/models"
	"marketplace-service/internal/repository"
	"marketplace-service/internal/util"

	"go.uber.org/zap"
)

// FollowService toggles the user-to-shop follow relation
type FollowService struct {
	repo   repository.Repository
	events EventPublisher
	logger *zap.Logger
}

// NewFollowService creates a new follow service
func NewFollowService(repo repository.Repository, events EventPublisher) *FollowService {
	if events == nil {
		events = NoopPublisher()
	}
	return &FollowService{
		repo:   repo,
		events: events,
		logger: util.GetLogger(),
	}
}

// Follow fails with Conflict when the user already follows the shop
func (s *FollowService) Follow(ctx context.Context, userID, shopID int64) error {
	ctx, span := util.StartSpan(ctx, "FollowService.Follow")
	defer span.End()

	if _, err := s.repo.GetShopByID(ctx, shopID); err != nil {
		return err
	}
	if err := s.repo.CreateFollow(ctx, userID, shopID); err != nil {
		if apperr.Is(err, apperr.KindConflict) {
			return apperr.Conflict("already following this shop")
		}
		return err
	}

	util.FollowsTotal.WithLabelValues("follow").Inc()
	s.publish(ctx, models.EventTypeShopFollowed, userID, shopID)
	return nil
}

// Unfollow fails with BadRequest when the user does not follow the shop
func (s *FollowService) Unfollow(ctx context.Context, userID, shopID int64) error {
	ctx, span := util.StartSpan(ctx, "FollowService.Unfollow")
	defer span.End()

	removed, err := s.repo.DeleteFollow(ctx, userID, shopID)
	if err != nil {
		return err
	}
	if !removed {
		return apperr.BadRequest("not following this shop")
	}

	util.FollowsTotal.WithLabelValues("unfollow").Inc()
	s.publish(ctx, models.EventTypeShopUnfollowed, userID, shopID)
	return nil
}

// IsFollowing is false for anonymous callers (userID 0)
func (s *FollowService) IsFollowing(ctx context.Context, userID, shopID int64) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	return s.repo.IsFollowing(ctx, userID, shopID)
}

// Followers lists the users following a shop. Only public profile fields
// are returned since the listing is unauthenticated.
func (s *FollowService) Followers(ctx context.Context, shopID int64) ([]models.PublicUser, error) {
	if _, err := s.repo.GetShopByID(ctx, shopID); err != nil {
		return nil, err
	}
	users, err := s.repo.ListFollowers(ctx, shopID)
	if err != nil {
		return nil, err
	}

	followers := make([]models.PublicUser, 0, len(users))
	for i := range users {
		followers = append(followers, users[i].Public())
	}
	return followers, nil
}

// FollowedShops lists the shops a user follows
func (s *FollowService) FollowedShops(ctx context.Context, userID int64) ([]models.Shop, error) {
	return s.repo.ListFollowedShops(ctx, userID)
}

func (s *FollowService) publish(ctx context.Context, eventType string, userID, shopID int64) {
	event := &models.FollowEvent{
		BaseEvent: models.NewBaseEvent(eventType),
		UserID:    userID,
		ShopID:    shopID,
	}
	if err := s.events.PublishFollow(ctx, event); err != nil {
		util.EventsPublishFailedTotal.WithLabelValues(eventType).Inc()
		s.logger.Error("Failed to publish follow event",
			zap.String("type", eventType),
			zap.Error(err))
	}
}
