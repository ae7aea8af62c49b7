package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"

	"github.com/studyhall/backend/internal/domain/entitlement"
	"github.com/studyhall/backend/internal/domain/identity"
	"github.com/studyhall/backend/internal/domain/shared"
	"github.com/studyhall/backend/internal/infrastructure/billing"
)

// ProfilePlanWriter is the slice of the usage profile store the webhook
// needs: moving a principal's profile to a different plan
type ProfilePlanWriter interface {
	SetPlan(ctx context.Context, principalID uuid.UUID, planID string) error
}

// SeatProvisioner manages seat pools as subscriptions come and go
type SeatProvisioner interface {
	ProvisionPool(ctx context.Context, ownerID uuid.UUID, audience entitlement.Audience, tier string) (*entitlement.SeatPool, error)
	DeactivatePool(ctx context.Context, ownerID uuid.UUID) error
}

// StripeWebhookService handles Stripe webhook events. Subscription changes
// reach the platform exclusively through this path: the webhook correlates
// the Stripe customer to an account or institute, updates its tier, moves
// the usage profile to the new plan and provisions or deactivates the seat
// pool.
//
// Deliveries are retried by Stripe until acknowledged, so every handler is
// idempotent and unknown customers are acked rather than errored.
type StripeWebhookService struct {
	config         *billing.StripeConfig
	accountRepo    identity.AccountRepository
	instituteRepo  identity.InstituteRepository
	profiles       ProfilePlanWriter
	seats          SeatProvisioner
	catalog        *entitlement.Catalog
	idempotency    shared.IdempotencyStore
	idempotencyTTL time.Duration
	eventBus       shared.EventPublisher
	logger         *zap.Logger
}

// StripeWebhookServiceConfig contains configuration for StripeWebhookService
type StripeWebhookServiceConfig struct {
	Config        *billing.StripeConfig
	AccountRepo   identity.AccountRepository
	InstituteRepo identity.InstituteRepository
	Profiles      ProfilePlanWriter
	Seats         SeatProvisioner
	Catalog       *entitlement.Catalog
	Idempotency   shared.IdempotencyStore // optional; nil disables dedupe
	EventBus      shared.EventPublisher
	Logger        *zap.Logger
}

// NewStripeWebhookService creates a new StripeWebhookService
func NewStripeWebhookService(cfg StripeWebhookServiceConfig) *StripeWebhookService {
	return &StripeWebhookService{
		config:         cfg.Config,
		accountRepo:    cfg.AccountRepo,
		instituteRepo:  cfg.InstituteRepo,
		profiles:       cfg.Profiles,
		seats:          cfg.Seats,
		catalog:        cfg.Catalog,
		idempotency:    cfg.Idempotency,
		idempotencyTTL: shared.DefaultIdempotencyConfig().TTL,
		eventBus:       cfg.EventBus,
		logger:         cfg.Logger,
	}
}

// WebhookResult contains the result of processing a webhook
type WebhookResult struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Processed bool   `json:"processed"`
	Message   string `json:"message,omitempty"`
}

// ProcessWebhook verifies and processes a Stripe webhook delivery
func (s *StripeWebhookService) ProcessWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	// Verify webhook signature
	event, err := webhook.ConstructEvent(payload, signature, s.config.WebhookSecret)
	if err != nil {
		s.logger.Error("Failed to verify webhook signature",
			zap.Error(err))
		return nil, fmt.Errorf("webhook signature verification failed: %w", err)
	}

	return s.processVerified(ctx, event)
}

// processVerified processes a signature-verified Stripe event: duplicate
// deliveries are skipped, everything else is dispatched to its handler
func (s *StripeWebhookService) processVerified(ctx context.Context, event stripe.Event) (*WebhookResult, error) {
	s.logger.Info("Processing Stripe webhook event",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)))

	result := &WebhookResult{
		EventID:   event.ID,
		EventType: string(event.Type),
		Processed: true,
	}

	if s.idempotency != nil {
		isNew, err := s.idempotency.MarkProcessed(ctx, "stripe:"+event.ID, s.idempotencyTTL)
		if err != nil {
			// Dedupe is best-effort; the handlers themselves are idempotent.
			s.logger.Warn("Idempotency check failed, processing anyway",
				zap.String("event_id", event.ID),
				zap.Error(err))
		} else if !isNew {
			s.logger.Debug("Skipping duplicate webhook delivery",
				zap.String("event_id", event.ID))
			result.Message = "Duplicate delivery"
			return result, nil
		}
	}

	if err := s.handleEvent(ctx, event); err != nil {
		s.logger.Error("Failed to process webhook event",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
		result.Processed = false
		result.Message = err.Error()
		return result, err
	}

	return result, nil
}

// handleEvent dispatches a verified Stripe event to its handler
func (s *StripeWebhookService) handleEvent(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case "customer.subscription.created":
		return s.handleSubscriptionChanged(ctx, event, "subscription_created")
	case "customer.subscription.updated":
		return s.handleSubscriptionChanged(ctx, event, "subscription_updated")
	case "customer.subscription.deleted":
		return s.handleSubscriptionDeleted(ctx, event)
	case "invoice.paid":
		return s.handleInvoicePaid(ctx, event)
	case "invoice.payment_failed":
		return s.handleInvoicePaymentFailed(ctx, event)
	default:
		s.logger.Debug("Unhandled webhook event type",
			zap.String("event_type", string(event.Type)))
		return nil
	}
}

// handleSubscriptionChanged handles customer.subscription.created and
// customer.subscription.updated events: both resolve the principal and move
// it onto the subscription's plan.
func (s *StripeWebhookService) handleSubscriptionChanged(ctx context.Context, event stripe.Event, action string) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("failed to unmarshal subscription: %w", err)
	}

	customerID := ""
	if sub.Customer != nil {
		customerID = sub.Customer.ID
	}
	if customerID == "" {
		s.logger.Warn("Subscription has no customer ID, skipping",
			zap.String("subscription_id", sub.ID))
		return nil
	}

	tier := entitlement.NormalizeTier(sub.Metadata["plan_id"])

	s.logger.Info("Handling subscription change",
		zap.String("action", action),
		zap.String("subscription_id", sub.ID),
		zap.String("customer_id", customerID),
		zap.String("plan_id", tier),
		zap.String("status", string(sub.Status)))

	active := sub.Status == stripe.SubscriptionStatusActive ||
		sub.Status == stripe.SubscriptionStatusTrialing

	// Institutes first: they carry their own Stripe IDs
	institute, err := s.findInstitute(ctx, sub.ID, customerID)
	if err != nil {
		return err
	}
	if institute != nil {
		return s.applyToInstitute(ctx, institute, &sub, customerID, tier, action, active)
	}

	account, err := s.findAccount(ctx, customerID)
	if err != nil {
		return err
	}
	if account == nil {
		// Webhooks may arrive before onboarding completes, or for customers
		// not in our system. Ack to stop Stripe retries.
		s.logger.Warn("No principal found for Stripe customer",
			zap.String("customer_id", customerID))
		return nil
	}
	return s.applyToAccount(ctx, account, &sub, customerID, tier, action)
}

func (s *StripeWebhookService) applyToInstitute(ctx context.Context, institute *identity.Institute, sub *stripe.Subscription, customerID, tier, action string, active bool) error {
	institute.SetStripeIDs(customerID, sub.ID)
	if tier != "" {
		institute.SetTier(tier)
	}
	if sub.CurrentPeriodEnd > 0 {
		institute.SetExpiration(time.Unix(sub.CurrentPeriodEnd, 0))
	}
	if active && !institute.IsActive() {
		if err := institute.Activate(); err != nil {
			s.logger.Warn("Failed to activate institute", zap.Error(err))
		}
	}

	if err := s.instituteRepo.Update(ctx, institute); err != nil {
		return fmt.Errorf("failed to save institute: %w", err)
	}

	plan := s.catalog.Resolve(entitlement.AudienceInstitute, institute.Tier)
	if err := s.setProfilePlan(ctx, institute.ID, plan.ID); err != nil {
		return err
	}
	if _, err := s.seats.ProvisionPool(ctx, institute.ID, entitlement.AudienceInstitute, plan.ID); err != nil {
		return fmt.Errorf("failed to provision seat pool: %w", err)
	}

	s.publishSubscriptionEvent(ctx, institute.ID, action, sub.ID, plan.ID)

	s.logger.Info("Subscription change applied to institute",
		zap.String("institute_id", institute.ID.String()),
		zap.String("plan_id", plan.ID))
	return nil
}

func (s *StripeWebhookService) applyToAccount(ctx context.Context, account *identity.Account, sub *stripe.Subscription, customerID, tier, action string) error {
	if account.StripeCustomerID == "" {
		account.SetStripeCustomerID(customerID)
	}
	if tier != "" {
		account.SetTier(tier)
	}

	if err := s.accountRepo.Update(ctx, account); err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}

	audience := accountAudience(account.Role)
	plan := s.catalog.Resolve(audience, account.Tier)
	if err := s.setProfilePlan(ctx, account.ID, plan.ID); err != nil {
		return err
	}
	// Teachers on seated plans own a pool for their class rosters
	if plan.HasSeats() {
		if _, err := s.seats.ProvisionPool(ctx, account.ID, audience, plan.ID); err != nil {
			return fmt.Errorf("failed to provision seat pool: %w", err)
		}
	}

	s.publishSubscriptionEvent(ctx, account.ID, action, sub.ID, plan.ID)

	s.logger.Info("Subscription change applied to account",
		zap.String("account_id", account.ID.String()),
		zap.String("plan_id", plan.ID))
	return nil
}

// handleSubscriptionDeleted handles customer.subscription.deleted events:
// the principal falls back to its audience's most restrictive tier and any
// seat pool is deactivated (used seats are retained for reactivation).
func (s *StripeWebhookService) handleSubscriptionDeleted(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("failed to unmarshal subscription: %w", err)
	}

	customerID := ""
	if sub.Customer != nil {
		customerID = sub.Customer.ID
	}

	s.logger.Info("Handling subscription deleted",
		zap.String("subscription_id", sub.ID),
		zap.String("customer_id", customerID))

	institute, err := s.findInstitute(ctx, sub.ID, customerID)
	if err != nil {
		return err
	}
	if institute != nil {
		fallback := entitlement.FallbackTier(entitlement.AudienceInstitute)
		institute.SetStripeIDs(institute.StripeCustomerID, "")
		institute.SetTier(fallback)
		institute.ClearExpiration()
		if err := s.instituteRepo.Update(ctx, institute); err != nil {
			return fmt.Errorf("failed to save institute: %w", err)
		}
		if err := s.setProfilePlan(ctx, institute.ID, fallback); err != nil {
			return err
		}
		if err := s.deactivatePool(ctx, institute.ID); err != nil {
			return err
		}
		s.publishSubscriptionEvent(ctx, institute.ID, "subscription_deleted", sub.ID, fallback)
		return nil
	}

	account, err := s.findAccount(ctx, customerID)
	if err != nil {
		return err
	}
	if account == nil {
		s.logger.Warn("No principal found for deleted subscription",
			zap.String("subscription_id", sub.ID))
		return nil
	}

	audience := accountAudience(account.Role)
	fallback := entitlement.FallbackTier(audience)
	account.SetTier(fallback)
	if err := s.accountRepo.Update(ctx, account); err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	if err := s.setProfilePlan(ctx, account.ID, fallback); err != nil {
		return err
	}
	if err := s.deactivatePool(ctx, account.ID); err != nil {
		return err
	}

	s.publishSubscriptionEvent(ctx, account.ID, "subscription_deleted", sub.ID, fallback)
	return nil
}

// handleInvoicePaid handles invoice.paid events: a successful payment
// extends an institute's expiration and lifts any suspension
func (s *StripeWebhookService) handleInvoicePaid(ctx context.Context, event stripe.Event) error {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return fmt.Errorf("failed to unmarshal invoice: %w", err)
	}

	customerID := ""
	if invoice.Customer != nil {
		customerID = invoice.Customer.ID
	}
	if customerID == "" || invoice.Subscription == nil {
		s.logger.Debug("Invoice is not for a subscription, skipping",
			zap.String("invoice_id", invoice.ID))
		return nil
	}

	institute, err := s.findInstitute(ctx, invoice.Subscription.ID, customerID)
	if err != nil {
		return err
	}
	if institute != nil {
		if institute.IsSuspended() {
			if err := institute.Activate(); err != nil {
				s.logger.Warn("Failed to activate institute after payment", zap.Error(err))
			}
		}
		if invoice.PeriodEnd > 0 {
			institute.SetExpiration(time.Unix(invoice.PeriodEnd, 0))
		}
		if err := s.instituteRepo.Update(ctx, institute); err != nil {
			return fmt.Errorf("failed to save institute: %w", err)
		}
		s.publishPaymentEvent(ctx, institute.ID, "invoice_paid", invoice.ID)
		return nil
	}

	account, err := s.findAccount(ctx, customerID)
	if err != nil {
		return err
	}
	if account == nil {
		s.logger.Warn("No principal found for paid invoice",
			zap.String("customer_id", customerID))
		return nil
	}
	s.publishPaymentEvent(ctx, account.ID, "invoice_paid", invoice.ID)
	return nil
}

// handleInvoicePaymentFailed handles invoice.payment_failed events. Access
// is not cut on the first failure; Stripe's dunning cycle ends in a
// subscription.deleted event, which is where the downgrade happens.
func (s *StripeWebhookService) handleInvoicePaymentFailed(ctx context.Context, event stripe.Event) error {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return fmt.Errorf("failed to unmarshal invoice: %w", err)
	}

	customerID := ""
	if invoice.Customer != nil {
		customerID = invoice.Customer.ID
	}
	if customerID == "" || invoice.Subscription == nil {
		return nil
	}

	s.logger.Warn("Subscription payment failed",
		zap.String("invoice_id", invoice.ID),
		zap.String("customer_id", customerID))

	institute, err := s.findInstitute(ctx, invoice.Subscription.ID, customerID)
	if err != nil {
		return err
	}
	if institute != nil {
		s.publishPaymentEvent(ctx, institute.ID, "payment_failed", invoice.ID)
		return nil
	}

	account, err := s.findAccount(ctx, customerID)
	if err != nil {
		return err
	}
	if account != nil {
		s.publishPaymentEvent(ctx, account.ID, "payment_failed", invoice.ID)
	}
	return nil
}

// findInstitute resolves an institute by subscription ID, then by customer
// ID. A nil result without error means the subscription belongs to an
// account (or to nobody).
func (s *StripeWebhookService) findInstitute(ctx context.Context, subscriptionID, customerID string) (*identity.Institute, error) {
	if subscriptionID != "" {
		institute, err := s.instituteRepo.FindByStripeSubscriptionID(ctx, subscriptionID)
		if err == nil {
			return institute, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("failed to find institute: %w", err)
		}
	}
	if customerID == "" {
		return nil, nil
	}
	institute, err := s.instituteRepo.FindByStripeCustomerID(ctx, customerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find institute: %w", err)
	}
	return institute, nil
}

func (s *StripeWebhookService) findAccount(ctx context.Context, customerID string) (*identity.Account, error) {
	if customerID == "" {
		return nil, nil
	}
	account, err := s.accountRepo.FindByStripeCustomerID(ctx, customerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	return account, nil
}

// setProfilePlan moves the principal's usage profile to the plan. A missing
// profile is tolerated; the provisioning handler creates it with the
// aggregate's tier when the creation event is delivered.
func (s *StripeWebhookService) setProfilePlan(ctx context.Context, principalID uuid.UUID, planID string) error {
	if err := s.profiles.SetPlan(ctx, principalID, planID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Usage profile not yet provisioned, skipping plan update",
				zap.String("principal_id", principalID.String()))
			return nil
		}
		return fmt.Errorf("failed to update usage plan: %w", err)
	}
	return nil
}

func (s *StripeWebhookService) deactivatePool(ctx context.Context, ownerID uuid.UUID) error {
	if err := s.seats.DeactivatePool(ctx, ownerID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to deactivate seat pool: %w", err)
	}
	return nil
}

func (s *StripeWebhookService) publishSubscriptionEvent(ctx context.Context, principalID uuid.UUID, action, subscriptionID, planID string) {
	if s.eventBus == nil {
		return
	}
	event := NewStripeSubscriptionEvent(principalID, action, subscriptionID, planID)
	if err := s.eventBus.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish subscription event", zap.Error(err))
	}
}

func (s *StripeWebhookService) publishPaymentEvent(ctx context.Context, principalID uuid.UUID, action, invoiceID string) {
	if s.eventBus == nil {
		return
	}
	event := NewStripePaymentEvent(principalID, action, invoiceID)
	if err := s.eventBus.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish payment event", zap.Error(err))
	}
}

// accountAudience maps an account role to the plan catalog audience
func accountAudience(role identity.Role) entitlement.Audience {
	switch role {
	case identity.RoleTeacher:
		return entitlement.AudienceTeacher
	case identity.RoleAdmin:
		return entitlement.AudienceAdmin
	default:
		return entitlement.AudienceStudent
	}
}
