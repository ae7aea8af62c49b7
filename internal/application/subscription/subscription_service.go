package subscription

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/studyhall/backend/internal/domain/entitlement"
	"github.com/studyhall/backend/internal/domain/identity"
	"github.com/studyhall/backend/internal/domain/shared"
	"github.com/studyhall/backend/internal/infrastructure/billing"
)

// BillingGateway abstracts the Stripe operations the subscription flow
// needs; implemented by billing.StripeAdapter
type BillingGateway interface {
	CreateCustomer(ctx context.Context, input billing.CreateCustomerInput) (*billing.CreateCustomerOutput, error)
	CreateSubscription(ctx context.Context, input billing.CreateSubscriptionInput) (*billing.CreateSubscriptionOutput, error)
	CancelSubscription(ctx context.Context, input billing.CancelSubscriptionInput) (*billing.CancelSubscriptionOutput, error)
}

// SubscriptionService starts and cancels paid subscriptions. It only talks
// to Stripe and records the customer linkage; the actual tier change lands
// when Stripe confirms it through the webhook, so a failed payment never
// upgrades anyone.
type SubscriptionService struct {
	gateway       BillingGateway
	accountRepo   identity.AccountRepository
	instituteRepo identity.InstituteRepository
	catalog       *entitlement.Catalog
	logger        *zap.Logger
}

// NewSubscriptionService creates a new SubscriptionService
func NewSubscriptionService(
	gateway BillingGateway,
	accountRepo identity.AccountRepository,
	instituteRepo identity.InstituteRepository,
	catalog *entitlement.Catalog,
	logger *zap.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		gateway:       gateway,
		accountRepo:   accountRepo,
		instituteRepo: instituteRepo,
		catalog:       catalog,
		logger:        logger,
	}
}

// SubscribeInput contains input for starting a subscription
type SubscribeInput struct {
	Tier          string
	PaymentMethod string // Stripe payment method ID
	TrialDays     int
}

// SubscribeOutput contains the result of starting a subscription
type SubscribeOutput struct {
	SubscriptionID string `json:"subscription_id"`
	Status         string `json:"status"`
	ClientSecret   string `json:"client_secret,omitempty"` // Present when payment confirmation is needed
	PlanID         string `json:"plan_id"`
}

// SubscribeAccount starts a paid subscription for a student or teacher
// account
func (s *SubscriptionService) SubscribeAccount(ctx context.Context, accountID uuid.UUID, input SubscribeInput) (*SubscribeOutput, error) {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	audience := accountAudience(account.Role)
	plan, ok := s.catalog.Find(audience, input.Tier)
	if !ok {
		return nil, shared.NewDomainError("UNKNOWN_PLAN", fmt.Sprintf("No %s plan named %q", audience, input.Tier))
	}

	customerID := account.StripeCustomerID
	if customerID == "" {
		customer, err := s.gateway.CreateCustomer(ctx, billing.CreateCustomerInput{
			PrincipalID: account.ID,
			Email:       account.Email,
			Name:        account.GetDisplayNameOrEmail(),
		})
		if err != nil {
			return nil, err
		}
		customerID = customer.CustomerID
		account.SetStripeCustomerID(customerID)
		if err := s.accountRepo.Update(ctx, account); err != nil {
			return nil, fmt.Errorf("failed to save account: %w", err)
		}
	}

	sub, err := s.gateway.CreateSubscription(ctx, billing.CreateSubscriptionInput{
		PrincipalID:   account.ID,
		CustomerID:    customerID,
		Audience:      audience.String(),
		PlanID:        plan.ID,
		TrialDays:     input.TrialDays,
		PaymentMethod: input.PaymentMethod,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Started account subscription",
		zap.String("account_id", account.ID.String()),
		zap.String("plan_id", plan.ID),
		zap.String("subscription_id", sub.SubscriptionID))

	return &SubscribeOutput{
		SubscriptionID: sub.SubscriptionID,
		Status:         sub.Status.String(),
		ClientSecret:   sub.ClientSecret,
		PlanID:         plan.ID,
	}, nil
}

// SubscribeInstitute starts a paid subscription for an institute
func (s *SubscriptionService) SubscribeInstitute(ctx context.Context, instituteID uuid.UUID, input SubscribeInput) (*SubscribeOutput, error) {
	institute, err := s.instituteRepo.FindByID(ctx, instituteID)
	if err != nil {
		return nil, err
	}

	plan, ok := s.catalog.Find(entitlement.AudienceInstitute, input.Tier)
	if !ok {
		return nil, shared.NewDomainError("UNKNOWN_PLAN", fmt.Sprintf("No institute plan named %q", input.Tier))
	}

	customerID := institute.StripeCustomerID
	if customerID == "" {
		customer, err := s.gateway.CreateCustomer(ctx, billing.CreateCustomerInput{
			PrincipalID: institute.ID,
			Email:       institute.ContactEmail,
			Name:        institute.Name,
			Phone:       institute.ContactPhone,
		})
		if err != nil {
			return nil, err
		}
		customerID = customer.CustomerID
		institute.SetStripeIDs(customerID, institute.StripeSubscriptionID)
		if err := s.instituteRepo.Update(ctx, institute); err != nil {
			return nil, fmt.Errorf("failed to save institute: %w", err)
		}
	}

	sub, err := s.gateway.CreateSubscription(ctx, billing.CreateSubscriptionInput{
		PrincipalID:   institute.ID,
		CustomerID:    customerID,
		Audience:      entitlement.AudienceInstitute.String(),
		PlanID:        plan.ID,
		TrialDays:     input.TrialDays,
		PaymentMethod: input.PaymentMethod,
	})
	if err != nil {
		return nil, err
	}

	// Record the pending subscription so deleted-webhooks can correlate even
	// if the created-webhook is delayed.
	institute.SetStripeIDs(customerID, sub.SubscriptionID)
	if err := s.instituteRepo.Update(ctx, institute); err != nil {
		return nil, fmt.Errorf("failed to save institute: %w", err)
	}

	s.logger.Info("Started institute subscription",
		zap.String("institute_id", institute.ID.String()),
		zap.String("plan_id", plan.ID),
		zap.String("subscription_id", sub.SubscriptionID))

	return &SubscribeOutput{
		SubscriptionID: sub.SubscriptionID,
		Status:         sub.Status.String(),
		ClientSecret:   sub.ClientSecret,
		PlanID:         plan.ID,
	}, nil
}

// CancelInstituteSubscription cancels an institute's subscription. With
// atPeriodEnd the institute keeps access until the paid period runs out;
// the downgrade itself arrives through the subscription.deleted webhook.
func (s *SubscriptionService) CancelInstituteSubscription(ctx context.Context, instituteID uuid.UUID, atPeriodEnd bool, reason string) error {
	institute, err := s.instituteRepo.FindByID(ctx, instituteID)
	if err != nil {
		return err
	}
	if institute.StripeSubscriptionID == "" {
		return shared.NewDomainError("NO_SUBSCRIPTION", "Institute has no active subscription")
	}

	_, err = s.gateway.CancelSubscription(ctx, billing.CancelSubscriptionInput{
		PrincipalID:       institute.ID,
		SubscriptionID:    institute.StripeSubscriptionID,
		CancelAtPeriodEnd: atPeriodEnd,
		Reason:            reason,
	})
	if err != nil {
		return err
	}

	s.logger.Info("Canceled institute subscription",
		zap.String("institute_id", institute.ID.String()),
		zap.Bool("at_period_end", atPeriodEnd))
	return nil
}
