package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ledgerline/spendtrack/internal/domain"
	pkgkafka "github.com/ledgerline/spendtrack/pkg/kafka"
)

// Kafka topics for spendtrack domain events.
var (
	TopicUserRegistered = pkgkafka.Topic(AggregateTypeUser, "registered")
	TopicUserUpdated    = pkgkafka.Topic(AggregateTypeUser, "updated")
	TopicExpenseCreated = pkgkafka.Topic(AggregateTypeExpense, "created")
	TopicExpenseUpdated = pkgkafka.Topic(AggregateTypeExpense, "updated")
	TopicExpenseDeleted = pkgkafka.Topic(AggregateTypeExpense, "deleted")
)

// Aggregate type constants.
const (
	AggregateTypeUser    = "user"
	AggregateTypeExpense = "expense"
)

// Source identifier for events originating from this service.
const Source = "spendtrack"

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// UserUpdatedData is the payload for a user.updated event.
type UserUpdatedData struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

// ExpenseData is the payload shared by expense.created and expense.updated events.
type ExpenseData struct {
	ID       string    `json:"id"`
	UserID   string    `json:"user_id"`
	Amount   float64   `json:"amount"`
	Currency string    `json:"currency"`
	Category string    `json:"category"`
	Date     time.Time `json:"date"`
}

// ExpenseDeletedData is the payload for an expense.deleted event.
type ExpenseDeletedData struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
}

// Producer publishes spendtrack domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	data := UserRegisteredData{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
	}

	event, err := pkgkafka.NewEvent(TopicUserRegistered, user.ID, AggregateTypeUser, Source, data)
	if err != nil {
		return fmt.Errorf("create user.registered event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserRegistered, event); err != nil {
		return fmt.Errorf("publish user.registered event: %w", err)
	}

	p.logger.DebugContext(ctx, "published user.registered event",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return nil
}

// PublishUserUpdated publishes a user.updated event.
func (p *Producer) PublishUserUpdated(ctx context.Context, user *domain.User) error {
	data := UserUpdatedData{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Phone: user.Phone,
	}

	event, err := pkgkafka.NewEvent(TopicUserUpdated, user.ID, AggregateTypeUser, Source, data)
	if err != nil {
		return fmt.Errorf("create user.updated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserUpdated, event); err != nil {
		return fmt.Errorf("publish user.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published user.updated event",
		slog.String("user_id", user.ID),
	)

	return nil
}

// PublishExpenseCreated publishes an expense.created event.
func (p *Producer) PublishExpenseCreated(ctx context.Context, expense *domain.Expense) error {
	return p.publishExpense(ctx, TopicExpenseCreated, expense)
}

// PublishExpenseUpdated publishes an expense.updated event.
func (p *Producer) PublishExpenseUpdated(ctx context.Context, expense *domain.Expense) error {
	return p.publishExpense(ctx, TopicExpenseUpdated, expense)
}

func (p *Producer) publishExpense(ctx context.Context, topic string, expense *domain.Expense) error {
	data := ExpenseData{
		ID:       expense.ID,
		UserID:   expense.UserID,
		Amount:   expense.Amount,
		Currency: expense.Currency,
		Category: expense.Category,
		Date:     expense.Date,
	}

	event, err := pkgkafka.NewEvent(topic, expense.ID, AggregateTypeExpense, Source, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published expense event",
		slog.String("topic", topic),
		slog.String("expense_id", expense.ID),
		slog.String("user_id", expense.UserID),
	)

	return nil
}

// PublishExpenseDeleted publishes an expense.deleted event.
func (p *Producer) PublishExpenseDeleted(ctx context.Context, userID, expenseID string) error {
	data := ExpenseDeletedData{
		ID:     expenseID,
		UserID: userID,
	}

	event, err := pkgkafka.NewEvent(TopicExpenseDeleted, expenseID, AggregateTypeExpense, Source, data)
	if err != nil {
		return fmt.Errorf("create expense.deleted event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicExpenseDeleted, event); err != nil {
		return fmt.Errorf("publish expense.deleted event: %w", err)
	}

	p.logger.DebugContext(ctx, "published expense.deleted event",
		slog.String("expense_id", expenseID),
		slog.String("user_id", userID),
	)

	return nil
}
