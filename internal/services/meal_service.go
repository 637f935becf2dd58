// Package services orchestrates record operations across storage, the
// nutrition estimator and the export queue.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"dietario/internal/amqp"
	"dietario/internal/backend"
	"dietario/internal/core"
	"dietario/internal/gemini"
)

// RecordPublisher is the queue side of a service. A nil publisher
// disables export without changing any request path.
type RecordPublisher interface {
	PublishRecord(ctx context.Context, msg *amqp.RecordMessage) error
}

// MealService handles the meal log for one request at a time. Estimator
// failures degrade to unknown values; the record is saved regardless.
type MealService struct {
	store     backend.MealStore
	estimator gemini.Estimator
	codec     *core.Codec
	publisher RecordPublisher
}

func NewMealService(store backend.MealStore, estimator gemini.Estimator, codec *core.Codec, publisher RecordPublisher) *MealService {
	return &MealService{
		store:     store,
		estimator: estimator,
		codec:     codec,
		publisher: publisher,
	}
}

// Create estimates the macros for the description, saves the meal and
// publishes it for export. An empty timestamp means now.
func (s *MealService) Create(ctx context.Context, user, mealType, description, timestamp string) (core.Meal, error) {
	timestamp, err := s.codec.NormalizeTimestamp(timestamp)
	if err != nil {
		return core.Meal{}, err
	}

	meal := core.Meal{
		User:        user,
		Type:        mealType,
		Description: description,
		Timestamp:   timestamp,
	}

	s.estimate(ctx, &meal)

	if err := s.store.Append(ctx, meal); err != nil {
		return core.Meal{}, fmt.Errorf("save meal: %w", err)
	}

	s.publishMeal(ctx, meal)

	return meal, nil
}

// List returns the user's meals newest first. Indexes into this view
// are what Update and Delete accept.
func (s *MealService) List(ctx context.Context, user string) ([]core.Meal, error) {
	return s.store.ListSortedDescending(ctx, user)
}

// Update replaces the meal at the given position in the newest-first
// view and re-estimates its macros.
func (s *MealService) Update(ctx context.Context, user string, index int, mealType, description, timestamp string) (core.Meal, error) {
	meals, err := s.store.ListSortedDescending(ctx, user)
	if err != nil {
		return core.Meal{}, err
	}
	if index < 0 || index >= len(meals) {
		return core.Meal{}, core.ErrInvalidIndex
	}

	meal := meals[index]
	meal.Type = mealType
	meal.Description = description
	if timestamp != "" {
		normalized, err := s.codec.NormalizeTimestamp(timestamp)
		if err != nil {
			return core.Meal{}, err
		}
		meal.Timestamp = normalized
	}

	s.estimate(ctx, &meal)

	meals[index] = meal
	if err := s.store.RewriteUser(ctx, user, meals); err != nil {
		return core.Meal{}, fmt.Errorf("rewrite meals: %w", err)
	}

	s.publishMeal(ctx, meal)

	return meal, nil
}

// Delete removes the meal at the given position in the newest-first
// view.
func (s *MealService) Delete(ctx context.Context, user string, index int) error {
	meals, err := s.store.ListSortedDescending(ctx, user)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(meals) {
		return core.ErrInvalidIndex
	}

	kept := append(meals[:index], meals[index+1:]...)
	if err := s.store.RewriteUser(ctx, user, kept); err != nil {
		return fmt.Errorf("rewrite meals: %w", err)
	}

	return nil
}

// estimate fills the macro fields and the dietitian comment, degrading
// each to its unknown form when the estimator fails.
func (s *MealService) estimate(ctx context.Context, meal *core.Meal) {
	nutrition, err := s.estimator.Estimate(ctx, meal.Description)
	if err != nil {
		slog.WarnContext(ctx, "Nutrition estimate unavailable",
			"user", meal.User, "error", err)
		nutrition = gemini.Unavailable()
	}
	meal.Calories = nutrition.Calories
	meal.Proteins = nutrition.Proteins
	meal.Carbs = nutrition.Carbs
	meal.Fats = nutrition.Fats

	comment, err := s.estimator.Comment(ctx, mealSummary(*meal))
	if err != nil {
		slog.WarnContext(ctx, "Dietitian comment unavailable",
			"user", meal.User, "error", err)
		comment = ""
	}
	meal.DietComment = comment
}

func (s *MealService) publishMeal(ctx context.Context, meal core.Meal) {
	if s.publisher == nil {
		return
	}

	msg, err := amqp.NewMealMessage(meal)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to build meal message",
			"user", meal.User, "error", err)
		return
	}
	// Don't fail the request, the meal is saved locally.
	if err := s.publisher.PublishRecord(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish meal message",
			"user", meal.User, "error", err)
	}
}

// mealSummary is the text handed to the comment prompt.
func mealSummary(m core.Meal) string {
	return fmt.Sprintf("%s: %s. Valori stimati: calorie %s, proteine %s g, carboidrati %s g, grassi %s g.",
		m.Type, m.Description,
		nutrientText(m.Calories), nutrientText(m.Proteins),
		nutrientText(m.Carbs), nutrientText(m.Fats))
}

func nutrientText(n core.Nutrient) string {
	if !n.Known {
		return core.UnknownSentinel
	}
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}
